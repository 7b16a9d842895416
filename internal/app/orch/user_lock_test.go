package orch

import (
	"sync"
	"testing"
)

func TestUserLocksSerializeSameUser(t *testing.T) {
	var locks userLocks
	var mu sync.Mutex
	inside := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("u1")
			mu.Lock()
			inside++
			if inside != 1 {
				t.Errorf("%d goroutines inside the same user lock", inside)
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if locks.len() != 0 {
		t.Fatalf("locks not released: %d", locks.len())
	}
}

func TestUserLocksIndependentUsers(t *testing.T) {
	var locks userLocks
	unlockA := locks.lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.lock("b")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}
