// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render carries per-frame state through the extract, prepare and
// write phases of building a frame.
//
// # Frame scoped borrows
//
// Contexts never hold references that outlive their frame. The frame loop
// owns a [FrameArena]; every [Frame] it begins hands out [Ref] values that
// resolve only while the frame is open. After [Frame.End] every Ref of the
// frame fails with [ErrFrameEnded], and device context clones adopted by
// the frame are released.
//
// # Phases
//
//   - [ExtractContext]: reads simulation state into render resources
//   - [PrepareContext]: creates and uploads GPU resources
//   - [WriteContext]: records commands into a command buffer for one pass
//
// Jobs of one phase run concurrently with [RunJobs].
//
// # Usage
//
//	arena := render.NewFrameArena()
//	frame, _ := arena.Begin()
//	defer frame.End()
//
//	prep, _ := render.NewPrepareContext(frame, dc, renderResources)
//	err := render.RunJobs(ctx, prep, uploadMeshes, uploadTextures)
package render
