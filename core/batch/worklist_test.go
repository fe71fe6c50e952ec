package batch

import (
	"sync"
	"testing"
)

func TestWorkList_PopOrder(t *testing.T) {
	w := NewWorkList(1, 2)
	w.Push(3)
	for want := 1; want <= 3; want++ {
		got, ok := w.Pop()
		if !ok || got != want {
			t.Fatalf("expected %d got %d (ok=%v)", want, got, ok)
		}
	}
	if _, ok := w.Pop(); ok {
		t.Fatal("expected empty list")
	}
	if !w.Empty() {
		t.Fatal("expected Empty")
	}
}

func TestWorkList_ConcurrentPop(t *testing.T) {
	const n = 1000
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	w := NewWorkList(items...)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]int)
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := w.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("expected %d items got %d", n, len(seen))
	}
	for v, c := range seen {
		if c != 1 {
			t.Fatalf("item %d popped %d times", v, c)
		}
	}
}
