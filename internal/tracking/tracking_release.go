//go:build !rhidebug

package tracking

// Enabled reports whether clone tracking is compiled in.
const Enabled = false

// Tracker is a no-op without the rhidebug build tag.
type Tracker struct{}

// New returns a no-op tracker.
func New() *Tracker { return &Tracker{} }

// Add returns 0.
func (*Tracker) Add(string) uint64 { return 0 }

// Remove does nothing.
func (*Tracker) Remove(uint64) {}

// Len returns 0.
func (*Tracker) Len() int { return 0 }

// Outstanding returns nil.
func (*Tracker) Outstanding() []string { return nil }
