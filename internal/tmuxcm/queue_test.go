package tmuxcm

import "testing"

func TestRequestQueueFIFOOrder(t *testing.T) {
	var q RequestQueue
	var order []int

	q.Push(func(Result) { order = append(order, 1) })
	q.Push(func(Result) { order = append(order, 2) })
	q.Push(func(Result) { order = append(order, 3) })

	for i := 0; i < 3; i++ {
		cb, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() ok = false, want true at i=%d", i)
		}
		cb(Result{})
	}

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestRequestQueueNilPushesNoop(t *testing.T) {
	var q RequestQueue
	q.Push(nil)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	cb, ok := q.Pop()
	if !ok {
		t.Fatal("Pop() ok = false, want true")
	}
	cb(Result{Error: true}) // must not panic
}

func TestRequestQueuePopEmptyReturnsFalse(t *testing.T) {
	var q RequestQueue
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop() ok = true on empty queue, want false")
	}
}

func TestRequestQueueLenDecreasesOnPop(t *testing.T) {
	var q RequestQueue
	q.Push(nil)
	q.Push(nil)
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	q.Pop()
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after one Pop", q.Len())
	}
}
