// Package handles maps opaque gpu.Handle values onto backend objects.
package handles

import "github.com/sagitario/engine/gpu"

// Counter hands out handles. Registries that share a Counter never hand
// out the same handle twice, which keeps a handle meaningful across
// object kinds in logs.
type Counter struct {
	last gpu.Handle
}

func (c *Counter) next() gpu.Handle {
	c.last++
	return c.last
}

// Registry is not safe for concurrent use; the renderer drives a device
// from a single goroutine.
type Registry[T any] struct {
	ids     *Counter
	objects map[gpu.Handle]T
}

func NewRegistry[T any](ids *Counter) *Registry[T] {
	return &Registry[T]{ids: ids, objects: make(map[gpu.Handle]T)}
}

func (r *Registry[T]) Add(obj T) gpu.Handle {
	h := r.ids.next()
	r.objects[h] = obj
	return h
}

func (r *Registry[T]) Get(h gpu.Handle) (T, bool) {
	obj, ok := r.objects[h]
	return obj, ok
}

// Remove forgets h and returns the object it referred to.
func (r *Registry[T]) Remove(h gpu.Handle) (T, bool) {
	obj, ok := r.objects[h]
	if ok {
		delete(r.objects, h)
	}
	return obj, ok
}

// Each visits the live objects in no particular order. fn may Remove the
// handle it is given.
func (r *Registry[T]) Each(fn func(gpu.Handle, T)) {
	for h, obj := range r.objects {
		fn(h, obj)
	}
}
