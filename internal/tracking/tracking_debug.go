//go:build rhidebug

package tracking

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Enabled reports whether clone tracking is compiled in.
const Enabled = true

// Tracker maps clone ids to their creation stacks.
type Tracker struct {
	mu   sync.Mutex
	next uint64
	live map[uint64]error
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{live: make(map[uint64]error)}
}

// Add records a new clone and returns its id.
func (t *Tracker) Add(label string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := t.next
	t.live[id] = errors.Errorf("%s: clone %d created", label, id)
	return id
}

// Remove forgets a released clone.
func (t *Tracker) Remove(id uint64) {
	t.mu.Lock()
	delete(t.live, id)
	t.mu.Unlock()
}

// Len returns the number of live clones.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Outstanding returns the creation stacks of every live clone, oldest first.
func (t *Tracker) Outstanding() []string {
	t.mu.Lock()
	ids := make([]uint64, 0, len(t.live))
	for id := range t.live {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]string, 0, len(ids))
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if err, ok := t.live[id]; ok {
			out = append(out, fmt.Sprintf("%+v", err))
		}
	}
	return out
}
