// Package timing measures the latency of an invocation with a blocked adaptive autorange: the number of calls
// per block is calibrated so that blocks are long enough to be measured reliably, and blocks are
// repeated until the accumulated time reaches a minimum. The result is the median per-call latency
// of the blocks.
package timing

import (
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/parity"
	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"
)

// Sample is the result of timing an invocation. It is immutable.
type Sample struct {
	// Median per-call latency among the blocks.
	Median time.Duration

	// Min per-call latency among the blocks.
	Min time.Duration

	// Runs is the total number of calls measured, Blocks the number of blocks and PerBlock the number of calls in each block.
	Runs, Blocks, PerBlock int
}

// Seconds returns the median latency in seconds.
func (s Sample) Seconds() float64 {
	return s.Median.Seconds()
}

// String implements fmt.Stringer.
func (s Sample) String() string {
	return fmt.Sprintf("%s median (min %s) over %s calls in %d blocks", s.Median, s.Min, humanize.Comma(int64(s.Runs)), s.Blocks)
}

// Harness times invocations. Create it with New and configure it with the builder methods.
type Harness struct {
	minRunTime   time.Duration
	maxNumber    int
	maxBlocks    int
	blockDivisor int
	synchronize  bool
	now          func() time.Time
}

const (
	// DefaultMinRunTime is the minimum accumulated measured time.
	DefaultMinRunTime = time.Second

	// DefaultMaxNumber is the maximum number of calls per block.
	DefaultMaxNumber = 1_000_000

	// DefaultMaxBlocks bounds the number of blocks, for invocations too fast to be measured.
	DefaultMaxBlocks = 10_000
)

// New returns a Harness with the default configuration.
func New() *Harness {
	return &Harness{
		minRunTime:   DefaultMinRunTime,
		maxNumber:    DefaultMaxNumber,
		maxBlocks:    DefaultMaxBlocks,
		blockDivisor: 40,
		synchronize:  true,
		now:          time.Now,
	}
}

// MinRunTime sets the minimum accumulated time measured. The calibration targets blocks of at least MinRunTime/40.
func (h *Harness) MinRunTime(d time.Duration) *Harness {
	h.minRunTime = d
	return h
}

// MaxNumber sets the maximum number of calls per block.
func (h *Harness) MaxNumber(n int) *Harness {
	h.maxNumber = max(n, 1)
	return h
}

// MaxBlocks sets the maximum number of measured blocks.
func (h *Harness) MaxBlocks(n int) *Harness {
	h.maxBlocks = max(n, 1)
	return h
}

// Synchronize sets whether to synchronize asynchronous backends immediately before and after every timed block.
// Default is true.
func (h *Harness) Synchronize(enabled bool) *Harness {
	h.synchronize = enabled
	return h
}

// WithClock sets the function used to read the time. Default is time.Now.
func (h *Harness) WithClock(now func() time.Time) *Harness {
	h.now = now
	return h
}

// Time measures the invocation. If the invocation fails (panics), the error is returned as a parity.ExecutionError,
// and there is no retry.
func (h *Harness) Time(inv *parity.Invocation) (sample Sample, err error) {
	var perCall []float64
	err = exceptions.TryCatch[error](func() {
		reps := h.calibrate(inv)
		var total time.Duration
		for len(perCall) == 0 || (total < h.minRunTime && len(perCall) < h.maxBlocks) {
			elapsed := h.timeBlock(inv, reps)
			total += elapsed
			perCall = append(perCall, float64(elapsed)/float64(reps))
		}
		sample.PerBlock = reps
	})
	if err != nil {
		return Sample{}, &parity.ExecutionError{Op: inv.Op, Err: err}
	}
	slices.Sort(perCall)
	sample.Blocks = len(perCall)
	sample.Runs = sample.Blocks * sample.PerBlock
	sample.Median = time.Duration(stat.Quantile(0.5, stat.Empirical, perCall, nil))
	sample.Min = time.Duration(perCall[0])
	klog.V(1).Infof("timing: %s: %s", inv, sample)
	return sample, nil
}

// calibrate the number of calls per block, growing it 10x until a block takes at least minRunTime/blockDivisor.
func (h *Harness) calibrate(inv *parity.Invocation) int {
	target := h.minRunTime / time.Duration(h.blockDivisor)
	reps := 1
	for {
		elapsed := h.timeBlock(inv, reps)
		if elapsed >= target || reps >= h.maxNumber {
			return reps
		}
		reps = min(reps*10, h.maxNumber)
	}
}

// timeBlock calls the invocation reps times, bracketed by synchronization.
func (h *Harness) timeBlock(inv *parity.Invocation, reps int) time.Duration {
	if h.synchronize {
		inv.Synchronize()
	}
	start := h.now()
	for range reps {
		inv.Call()
	}
	if h.synchronize {
		inv.Synchronize()
	}
	return h.now().Sub(start)
}
