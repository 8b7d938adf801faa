package keylock

import (
	"sync"
	"testing"
)

func TestLock_SerializesSameKey(t *testing.T) {
	k := New()
	const iterations = 200
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := k.Lock("claim-1")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()
	if counter != 4*iterations {
		t.Errorf("counter = %d, want %d", counter, 4*iterations)
	}
}

func TestLock_DistinctKeysDoNotBlock(t *testing.T) {
	k := New()
	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()
	<-done // would deadlock if "b" waited on "a"
	unlockA()
}

func TestLock_ReleasesEntryWhenUnused(t *testing.T) {
	k := New()
	unlock := k.Lock("x")
	unlock()
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.locks) != 0 {
		t.Errorf("locks map size = %d, want 0 after release", len(k.locks))
	}
}
