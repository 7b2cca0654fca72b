package petri_test

import (
	"sync"
	"testing"

	petri "github.com/jt05610/xschema"
)

func TestFIFO_Concurrency(t *testing.T) {
	var wg sync.WaitGroup
	f := petri.NewFIFO[int]()
	concurrent := 100
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Push(i)
				f.Pop()
			}
		}()
	}
	wg.Wait()
	if f.Len() != 0 {
		t.Errorf("expected empty queue, got %d", f.Len())
	}
}

func TestFIFO_Order(t *testing.T) {
	f := petri.NewFIFO[string]()
	f.Push("a", "b")
	f.Push("c")
	for _, want := range []string{"a", "b", "c"} {
		got, ok := f.Pop()
		if !ok || got != want {
			t.Errorf("expected %s, got %s (%v)", want, got, ok)
		}
	}
	if _, ok := f.Pop(); ok {
		t.Error("expected empty queue")
	}
}
