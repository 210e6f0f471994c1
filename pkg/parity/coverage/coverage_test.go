package coverage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gomlx/opparity/backends/accel"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func newTestScanner(t *testing.T) *Scanner {
	backend := must.M1(accel.NewBackend(""))
	t.Cleanup(backend.Finalize)
	return New(backend)
}

func TestCheck(t *testing.T) {
	s := newTestScanner(t)
	var seen []string
	s.OnRow = func(row Row) { seen = append(seen, row.Qualname) }
	rows, summary := s.Check(must.M1(ops.ParseAll([]string{
		"aten::cumsum.default", "aten::add.Tensor", "aten::grid_sampler_2d_backward"})))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"aten::cumsum.default", "aten::add.Tensor", "aten::grid_sampler_2d_backward.default"}, seen)

	cumsum := rows[0]
	assert.Equal(t, capability.Fallback, cumsum.Verdict)
	assert.False(t, cumsum.Implemented)
	require.NotNil(t, cumsum.RanWithoutFallback)
	assert.False(t, *cumsum.RanWithoutFallback)
	require.NotNil(t, cumsum.RanWithFallback)
	assert.True(t, *cumsum.RanWithFallback)
	require.NotNil(t, cumsum.FallbackNotice)
	assert.True(t, *cumsum.FallbackNotice)
	assert.Empty(t, cumsum.Error)

	add := rows[1]
	assert.Equal(t, capability.NativelyImplemented, add.Verdict)
	assert.True(t, add.Implemented)
	require.NotNil(t, add.RanWithoutFallback)
	assert.True(t, *add.RanWithoutFallback)
	assert.Nil(t, add.RanWithFallback)
	assert.Nil(t, add.FallbackNotice)

	unknown := rows[2]
	assert.Equal(t, capability.Unknown, unknown.Verdict)
	assert.False(t, unknown.Implemented)
	assert.Nil(t, unknown.RanWithoutFallback)
	assert.Empty(t, unknown.Error)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Native)
	require.NotNil(t, summary.Utilization)
	assert.Equal(t, int64(1), summary.Utilization.FallbackCalls)
	assert.Equal(t, int64(1), summary.Utilization.FallbackPerOp["aten::cumsum.default"])
}

func TestScanOnlyMissing(t *testing.T) {
	s := newTestScanner(t)
	rows, summary := s.Scan(true)
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 12, summary.Native)
	assert.Equal(t, 8, summary.Missing())
	require.Len(t, rows, 8)
	for _, row := range rows {
		assert.NotEqual(t, capability.NativelyImplemented, row.Verdict, row.Qualname)
		assert.False(t, strings.HasPrefix(row.Qualname, "aten::_"), row.Qualname)
		assert.False(t, row.Implemented, row.Qualname)
		if assert.NotNil(t, row.RanWithFallback, row.Qualname) {
			assert.True(t, *row.RanWithFallback, "%s: %s", row.Qualname, row.Error)
		}
	}
	assert.Contains(t, summary.String(), "8 missing")
}

func TestScannable(t *testing.T) {
	for _, q := range Scannable(ops.Default()) {
		assert.False(t, strings.HasPrefix(q.Base, "_"), q.String())
	}
}

func TestWriteCSV(t *testing.T) {
	s := newTestScanner(t)
	rows, _ := s.Check(must.M1(ops.ParseAll([]string{"aten::cumsum.default", "aten::relu"})))
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "aten::cumsum.default,fallback,false,false,true,true,", lines[1])
	assert.Equal(t, "aten::relu.default,natively_implemented,true,true,,,", lines[2])
}
