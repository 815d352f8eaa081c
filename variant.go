package rhi

import "github.com/gogpu/rhi/gpucore"

// variant is the closed union behind every façade object: a backend tag
// and the object of that backend. Exactly one of e and n is set.
type variant[E, N any] struct {
	backend gpucore.Backend
	e       E
	n       N
}

// emptyVariant takes the native type first so callers can name it and let
// the Empty type be inferred.
func emptyVariant[N, E any](e E) variant[E, N] {
	return variant[E, N]{backend: gpucore.BackendEmpty, e: e}
}

func nativeVariant[E, N any](b gpucore.Backend, n N) variant[E, N] {
	return variant[E, N]{backend: b, n: n}
}

// Backend returns the backend the object belongs to.
func (v *variant[E, N]) Backend() gpucore.Backend { return v.backend }

// Empty returns the Empty backend object.
func (v *variant[E, N]) Empty() (E, error) { return v.emptyFor("empty") }

// Native returns the native backend object.
func (v *variant[E, N]) Native() (N, error) {
	if v.backend == gpucore.BackendEmpty {
		var zero N
		return zero, gpucore.Mismatch("native", gpucore.BackendVulkan, v.backend)
	}
	return v.n, nil
}

// emptyFor unwraps the Empty object for op. A nil variant yields the zero
// value so that the backend reports the missing object itself.
func (v *variant[E, N]) emptyFor(op string) (E, error) {
	var zero E
	if v == nil {
		return zero, nil
	}
	if v.backend != gpucore.BackendEmpty {
		return zero, gpucore.Mismatch(op, gpucore.BackendEmpty, v.backend)
	}
	return v.e, nil
}

// nativeFor unwraps the native object for op on backend want.
func (v *variant[E, N]) nativeFor(op string, want gpucore.Backend) (N, error) {
	var zero N
	if v == nil {
		return zero, nil
	}
	if v.backend != want {
		return zero, gpucore.Mismatch(op, want, v.backend)
	}
	return v.n, nil
}
