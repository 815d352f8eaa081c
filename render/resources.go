package render

import (
	"reflect"
	"sync"
)

// Resources is a collection holding at most one value per type. The frame
// loop keeps simulation state and render resources in Resources and lends
// them to phase contexts.
type Resources struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

// NewResources creates an empty collection.
func NewResources() *Resources {
	return &Resources{values: make(map[reflect.Type]any)}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Insert stores v as the value of type T, replacing any previous one.
func Insert[T any](r *Resources, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[typeKey[T]()] = v
}

// Fetch returns the value of type T.
func Fetch[T any](r *Resources) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[typeKey[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Remove deletes the value of type T and returns it.
func Remove[T any](r *Resources) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := typeKey[T]()
	v, ok := r.values[k]
	if !ok {
		var zero T
		return zero, false
	}
	delete(r.values, k)
	return v.(T), true
}

// Len returns the number of stored values.
func (r *Resources) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}
