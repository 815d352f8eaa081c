// Package tracking records live device context clones for leak diagnosis.
//
// Tracking is compiled in with the rhidebug build tag:
//
//	go test -tags rhidebug ./...
//
// Each clone then captures its creation stack, and Outstanding reports the
// stacks of the clones that were never released. Without the tag every
// method is a no-op and no stacks are captured.
package tracking
