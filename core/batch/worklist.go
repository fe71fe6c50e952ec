package batch

import "sync"

// WorkList is a mutex-guarded FIFO shared by the workers of a batch. Each
// item is handed out exactly once.
type WorkList[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewWorkList creates a list holding items in order.
func NewWorkList[T any](items ...T) *WorkList[T] {
	return &WorkList[T]{items: append(make([]T, 0, len(items)), items...)}
}

// Push appends items to the list.
func (w *WorkList[T]) Push(items ...T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, items...)
}

// Pop removes and returns the first item. ok is false once the list is empty.
func (w *WorkList[T]) Pop() (item T, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.items) == 0 {
		return item, false
	}
	item = w.items[0]
	var zero T
	w.items[0] = zero
	w.items = w.items[1:]
	return item, true
}

// Len returns the number of remaining items.
func (w *WorkList[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Empty reports whether no item remains.
func (w *WorkList[T]) Empty() bool { return w.Len() == 0 }
