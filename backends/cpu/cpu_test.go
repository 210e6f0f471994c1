package cpu

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	backend := backends.NewWithConfig(BackendName)
	defer backend.Finalize()
	assert.False(t, backend.IsAsync())

	x := tensors.FromFlat(shapes.Make(dtypes.Float64, 4), []float64{1, 2, 3, 4})
	outputs := backend.Execute(ops.MustParse("aten::cumsum.default"), backends.FromHost(backend, []*tensors.Tensor{x}), ops.Attrs{"dim": 0})
	require.Len(t, outputs, 1)
	backend.Synchronize()
	assert.Equal(t, []float64{1, 3, 6, 10}, outputs[0].ToHost().Flat())
}

func TestExecuteErrors(t *testing.T) {
	backend := NewBackend()
	err := exceptions.TryCatch[error](func() {
		backend.Execute(ops.MustParse("aten::nonexistent.default"), nil, nil)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, backends.ErrUnknownOperator))

	// Non-square matrix for eigh.
	x := backend.FromHost(tensors.FromShape(shapes.Make(dtypes.Float32, 3, 4)))
	err = exceptions.TryCatch[error](func() {
		backend.Execute(ops.MustParse("aten::_linalg_eigh.default"), []backends.Buffer{x}, nil)
	})
	require.ErrorContains(t, err, "square")
}

func TestDispatchTable(t *testing.T) {
	backend := NewBackend()
	table, err := backend.DispatchTable(ops.MustParse("aten::cumsum.default"))
	require.NoError(t, err)
	assert.Contains(t, table, "CPU: registered at cpu/kernels [kernel]")

	_, err = backend.DispatchTable(ops.MustParse("aten::nonexistent.default"))
	assert.True(t, errors.Is(err, backends.ErrUnknownOperator))
}
