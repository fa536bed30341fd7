package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://www.immoweb.be/en/classified/house/for-sale/gent/9000/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://www.immoweb.be/en/classified/house/for-sale/gent/9000/1") {
		t.Error("second Add of same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetItemsKeepsFirstSeenOrder(t *testing.T) {
	s := NewURLSet()
	for _, u := range []string{"b", "a", "b", "c", "a"} {
		s.Add(u)
	}
	got := s.Items()
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("Items len: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Items[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("https://www.immoweb.be/same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolSingleWorkerIsSequential(t *testing.T) {
	pool := NewWorkerPool(1, 0)

	var mu sync.Mutex
	var order []int
	var inflight, maxInflight int32

	for i := 0; i < 5; i++ {
		i := i
		pool.Submit(func() {
			n := atomic.AddInt32(&inflight, 1)
			if n > atomic.LoadInt32(&maxInflight) {
				atomic.StoreInt32(&maxInflight, n)
			}
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&inflight, -1)
		})
	}
	pool.Wait()

	if maxInflight != 1 {
		t.Errorf("max in-flight jobs: got %d, want 1", maxInflight)
	}
	for i, v := range order {
		if v != i {
			t.Errorf("order[%d] = %d; want %d", i, v, i)
		}
	}
}

func TestWorkerPoolMinInterval(t *testing.T) {
	interval := 50 * time.Millisecond
	pool := NewWorkerPool(1, interval)

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			timestamps = append(timestamps, time.Now())
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < interval {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, interval)
		}
	}
}

func TestNewWorkerPoolClampsSize(t *testing.T) {
	if got := NewWorkerPool(0, 0).Size(); got != 1 {
		t.Errorf("Size() = %d; want 1", got)
	}
}
