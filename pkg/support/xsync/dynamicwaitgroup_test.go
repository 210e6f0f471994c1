package xsync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicWaitGroup(t *testing.T) {
	wg := NewDynamicWaitGroup()
	wg.Wait() // Zero count doesn't block.

	var finished atomic.Int32
	wg.Add(1)
	go func() {
		// Adds more work before finishing its own.
		wg.Add(1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)
			wg.Done()
		}()
		finished.Add(1)
		wg.Done()
	}()
	wg.Wait()
	assert.Equal(t, int32(2), finished.Load())
	assert.Zero(t, wg.Count())

	require.Panics(t, func() { wg.Done() })
}
