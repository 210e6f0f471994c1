// Package xsync implements synchronization primitives used by the asynchronous backends.
package xsync

import (
	"sync"

	"github.com/pkg/errors"
)

// DynamicWaitGroup counts in-flight work, like sync.WaitGroup, but new work can be added while
// another goroutine is waiting: Wait returns whenever the count drops to zero.
type DynamicWaitGroup struct {
	mu    sync.Mutex
	zero  *sync.Cond
	count int64
}

// NewDynamicWaitGroup creates a new DynamicWaitGroup with a zero count.
func NewDynamicWaitGroup() *DynamicWaitGroup {
	wg := &DynamicWaitGroup{}
	wg.zero = sync.NewCond(&wg.mu)
	return wg
}

// Add delta to the count. It panics if the count becomes negative.
func (wg *DynamicWaitGroup) Add(delta int) {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	wg.count += int64(delta)
	switch {
	case wg.count < 0:
		panic(errors.Errorf("DynamicWaitGroup: negative count %d", wg.count))
	case wg.count == 0:
		wg.zero.Broadcast()
	}
}

// Done decrements the count by one.
func (wg *DynamicWaitGroup) Done() {
	wg.Add(-1)
}

// Count returns the current count.
func (wg *DynamicWaitGroup) Count() int {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	return int(wg.count)
}

// Wait blocks until the count is zero.
func (wg *DynamicWaitGroup) Wait() {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	for wg.count > 0 {
		wg.zero.Wait()
	}
}
