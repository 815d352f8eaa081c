package main

import "fmt"

// TonemapperType selects the curve the post-process pass applies. Values
// are shared with the shader constants and must stay stable.
type TonemapperType int32

// Tonemappers.
const (
	TonemapperNone TonemapperType = iota
	TonemapperStephenHillACES
	TonemapperSimplifiedLumaACES
	TonemapperHejl2015
	TonemapperHable
	TonemapperFilmicALU
	TonemapperLogDerivative
	TonemapperVisualizeRGBMax
	TonemapperVisualizeLuma

	tonemapperCount
)

var tonemapperNames = [tonemapperCount]string{
	TonemapperNone:               "None",
	TonemapperStephenHillACES:    "Stephen Hill ACES",
	TonemapperSimplifiedLumaACES: "SimplifiedLumaACES",
	TonemapperHejl2015:           "Hejl 2015",
	TonemapperHable:              "Hable",
	TonemapperFilmicALU:          "Filmic ALU (Hable)",
	TonemapperLogDerivative:      "LogDerivative",
	TonemapperVisualizeRGBMax:    "Visualize RGB Max",
	TonemapperVisualizeLuma:      "Visualize RGB Luma",
}

// TonemapperFromInt converts a shader constant or config value. Values
// outside the known range are rejected.
func TonemapperFromInt(v int) (TonemapperType, error) {
	if v < 0 || v >= int(tonemapperCount) {
		return TonemapperNone, fmt.Errorf("tonemapper %d out of range [0, %d)", v, tonemapperCount)
	}
	return TonemapperType(v), nil
}

// Tonemappers returns every tonemapper in shader constant order.
func Tonemappers() []TonemapperType {
	out := make([]TonemapperType, tonemapperCount)
	for i := range out {
		out[i] = TonemapperType(i)
	}
	return out
}

// DisplayName returns the name shown to users.
func (t TonemapperType) DisplayName() string {
	if t < 0 || t >= tonemapperCount {
		return fmt.Sprintf("TonemapperType(%d)", int32(t))
	}
	return tonemapperNames[t]
}

func (t TonemapperType) String() string { return t.DisplayName() }

// RenderOptions are the feature toggles of the demo renderer.
type RenderOptions struct {
	EnableMSAA             bool
	EnableHDR              bool
	EnableBloom            bool
	EnableTextures         bool
	EnableLighting         bool
	ShowSurfaces           bool
	ShowWireframes         bool
	ShowDebug3D            bool
	ShowText               bool
	ShowSkybox             bool
	ShowShadows            bool
	ShowFeatureToggles     bool
	BlurPassCount          int
	Tonemapper             TonemapperType
	EnableVisibilityUpdate bool
}

// Default2D returns the options of the 2D scenes.
func Default2D() RenderOptions {
	return RenderOptions{
		EnableTextures:         true,
		EnableLighting:         true,
		ShowSurfaces:           true,
		ShowDebug3D:            true,
		ShowText:               true,
		ShowSkybox:             true,
		ShowShadows:            true,
		Tonemapper:             TonemapperNone,
		EnableVisibilityUpdate: true,
	}
}

// Default3D returns the options of the 3D scenes.
func Default3D() RenderOptions {
	return RenderOptions{
		EnableMSAA:             true,
		EnableHDR:              true,
		EnableBloom:            true,
		EnableTextures:         true,
		EnableLighting:         true,
		ShowSurfaces:           true,
		ShowDebug3D:            true,
		ShowText:               true,
		ShowSkybox:             true,
		ShowShadows:            true,
		ShowFeatureToggles:     true,
		BlurPassCount:          5,
		Tonemapper:             TonemapperLogDerivative,
		EnableVisibilityUpdate: true,
	}
}

// renderOptionsFor returns the defaults of mode ("2d" or "3d").
func renderOptionsFor(mode string) (RenderOptions, error) {
	switch mode {
	case "2d":
		return Default2D(), nil
	case "", "3d":
		return Default3D(), nil
	default:
		return RenderOptions{}, fmt.Errorf("unknown scene mode %q", mode)
	}
}
