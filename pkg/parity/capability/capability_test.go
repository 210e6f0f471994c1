package capability

import (
	"testing"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/backends/accel"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func TestClassifyTable(t *testing.T) {
	testCases := []struct {
		name  string
		table string
		want  Verdict
	}{
		{"no accel line", "CPU: registered at cpu/kernels [kernel]\n", Fallback},
		{"native", "Accel: registered at accel/kernels [kernel]\nCPU: registered at cpu/kernels [kernel]\n", NativelyImplemented},
		{"composite only", "Accel: registered at core/CompositeImplicitAutograd [math kernel]\n", Fallback},
		{"fallthrough", "Accel: fallthrough registered at accel/AccelFallback [backend fallback]\n", Fallback},
		{"administrative only", "AutogradAccel: fallthrough registered [backend fallback]\nBackendSelect: Accel\n", Fallback},
		{"native among skipped", "AutogradAccel: fallthrough\nAccel: registered at accel/kernels [kernel]\n", NativelyImplemented},
		{"empty", "", Fallback},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyTable(tc.table, "Accel", DefaultMarkers))
		})
	}
}

func TestClassifier(t *testing.T) {
	backend, err := accel.NewBackend("sync")
	require.NoError(t, err)
	defer backend.Finalize()
	c := New(backend)
	assert.Equal(t, NativelyImplemented, c.Classify(ops.MustParse("aten::add.Tensor")))
	assert.Equal(t, Fallback, c.Classify(ops.MustParse("aten::cumsum.default")))
	assert.Equal(t, Fallback, c.Classify(ops.MustParse("aten::cummin.default")))
	assert.Equal(t, Fallback, c.Classify(ops.MustParse("aten::linalg_eigh.default")))

	unknown := ops.MustParse("aten::not_an_op.default")
	assert.Equal(t, Unknown, c.Classify(unknown))
	_, err = c.TryClassify(unknown)
	var classificationErr *parity.ClassificationError
	require.True(t, errors.As(err, &classificationErr))
	assert.True(t, errors.Is(err, backends.ErrUnknownOperator))

	verdicts := c.ClassifyAll([]ops.Qualname{ops.MustParse("aten::relu"), unknown})
	assert.Equal(t, NativelyImplemented, verdicts[ops.MustParse("aten::relu.default")])
	assert.Equal(t, Unknown, verdicts[unknown])
}

func TestVerdictNames(t *testing.T) {
	for _, v := range []Verdict{Unknown, NativelyImplemented, Fallback} {
		assert.Equal(t, v, ParseVerdict(v.String()))
	}
	assert.Equal(t, Unknown, ParseVerdict("maybe"))
	assert.Equal(t, "unknown", Verdict(17).String())
}
