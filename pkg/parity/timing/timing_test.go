package timing

import (
	"testing"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/backends/accel"
	"github.com/gomlx/opparity/backends/cpu"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// fakeClock advances only when the invocation is called.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) tick()          { c.now = c.now.Add(c.step) }

func TestAutorange(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Millisecond}
	calls := 0
	inv := parity.NewInvocation(ops.MustParse("aten::relu.default"), nil, func() {
		calls++
		clock.tick()
	})
	h := New().MinRunTime(100 * time.Millisecond).WithClock(clock.Now)
	sample, err := h.Time(inv)
	require.NoError(t, err)

	// Calibration: 1 call (1ms) < 2.5ms, then 10 calls (10ms): 10 per block.
	assert.Equal(t, 10, sample.PerBlock)
	assert.Equal(t, 10, sample.Blocks)
	assert.Equal(t, 100, sample.Runs)
	assert.Equal(t, time.Millisecond, sample.Median)
	assert.Equal(t, time.Millisecond, sample.Min)
	assert.Equal(t, 1+10+100, calls)
	assert.InDelta(t, 1e-3, sample.Seconds(), 1e-12)
}

func TestMaxNumberAndBlocks(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	inv := parity.NewInvocation(ops.MustParse("aten::relu.default"), nil, func() {})
	sample, err := New().MaxNumber(100).MaxBlocks(7).WithClock(clock.Now).Time(inv)
	require.NoError(t, err)
	assert.Equal(t, 100, sample.PerBlock)
	assert.Equal(t, 7, sample.Blocks)
	assert.Zero(t, sample.Median)
}

func TestTimeError(t *testing.T) {
	calls := 0
	inv := parity.NewInvocation(ops.MustParse("aten::cumsum.default"), nil, func() {
		calls++
		exceptions.Panicf("kernel failed")
	})
	_, err := New().Time(inv)
	var execErr *parity.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.ErrorContains(t, err, "kernel failed")
	assert.Equal(t, 1, calls, "no retry")
}

func TestSynchronizesAsyncBackend(t *testing.T) {
	b, err := accel.NewBackend("latency=50us")
	require.NoError(t, err)
	defer b.Finalize()
	x := b.FromHost(tensors.Iota(shapes.Make(dtypes.Float32, 64), 0))
	inv := parity.ExecuteInvocation(ops.MustParse("aten::relu.default"), b, []backends.Buffer{x}, nil)
	sample, err := New().MinRunTime(20 * time.Millisecond).Time(inv)
	require.NoError(t, err)
	// With synchronization, the measured time includes the simulated kernel latency.
	assert.GreaterOrEqual(t, sample.Median, 50*time.Microsecond)
}

func TestRoughlyIdempotent(t *testing.T) {
	b := cpu.NewBackend()
	x := b.FromHost(tensors.Iota(shapes.Make(dtypes.Float32, 256, 256), -1))
	inv := parity.ExecuteInvocation(ops.MustParse("aten::cumsum.default"), b, []backends.Buffer{x}, ops.Attrs{"dim": -1})
	h := New().MinRunTime(30 * time.Millisecond)
	first, err := h.Time(inv)
	require.NoError(t, err)
	second, err := h.Time(inv)
	require.NoError(t, err)
	ratio := first.Seconds() / second.Seconds()
	klog.Infof("cumsum timings: %s / %s (ratio %.2f)", first, second, ratio)
	assert.True(t, ratio > 0.1 && ratio < 10, "timings diverge too much: %s vs %s", first, second)
}
