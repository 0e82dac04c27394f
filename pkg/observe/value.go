package observe

import "sync"

// Value is a thread-safe observable holder. Observers run synchronously on the
// goroutine that calls Set, after the lock is released, in subscription order.
type Value[T any] struct {
	mu        sync.RWMutex
	current   T
	nextID    uint64
	observers map[uint64]func(T)
	order     []uint64
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current:   initial,
		observers: make(map[uint64]func(T)),
	}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	v.current = next
	fns := v.snapshot()
	v.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// Update applies fn to the current value under the lock and publishes the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	next := fn(v.current)
	v.current = next
	fns := v.snapshot()
	v.mu.Unlock()

	for _, f := range fns {
		f(next)
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
// fn is not called with the current value; call Get for that.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.observers[id] = fn
	v.order = append(v.order, id)
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.observers, id)
			for i, oid := range v.order {
				if oid == id {
					v.order = append(v.order[:i], v.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (v *Value[T]) snapshot() []func(T) {
	fns := make([]func(T), 0, len(v.order))
	for _, id := range v.order {
		fns = append(fns, v.observers[id])
	}
	return fns
}
