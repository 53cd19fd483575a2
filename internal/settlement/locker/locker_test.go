package locker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountLocker_MutualExclusion(t *testing.T) {
	l := New()

	const goroutines = 50
	const increments = 100

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				l.Lock("acc-1")
				counter++
				l.Unlock("acc-1")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*increments, counter)
	assert.Equal(t, 0, l.Len(), "registry should be empty once all locks are released")
}

func TestAccountLocker_DistinctAccountsDoNotBlock(t *testing.T) {
	l := New()
	l.Lock("acc-1")

	done := make(chan struct{})
	go func() {
		l.Lock("acc-2")
		l.Unlock("acc-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different account id should not block")
	}

	l.Unlock("acc-1")
	assert.Equal(t, 0, l.Len())
}

func TestAccountLocker_SameAccountBlocks(t *testing.T) {
	l := New()
	l.Lock("acc-1")

	acquired := make(chan struct{})
	go func() {
		l.Lock("acc-1")
		close(acquired)
		l.Unlock("acc-1")
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while the first still holds it")
	case <-time.After(50 * time.Millisecond):
	}

	l.Unlock("acc-1")
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second holder never acquired the lock after release")
	}
}

func TestAccountLocker_UnlockUnheldPanics(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Unlock("never-locked") })
}

func TestAccountLocker_EntryKeptWhileWaiterPresent(t *testing.T) {
	l := New()
	l.Lock("acc-1")

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		l.Lock("acc-1")
		l.Unlock("acc-1")
		close(done)
	}()

	<-started
	// Give the waiter time to register before checking.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, l.Len())

	l.Unlock("acc-1")
	<-done
	assert.Equal(t, 0, l.Len())
}
