package invocations

import (
	"testing"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/backends/accel"
	"github.com/gomlx/opparity/backends/cpu"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/kernels"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCases(t *testing.T) {
	cases := Cases([][]int{{2, 3}, {4}}, DefaultDTypes)
	require.Len(t, cases, 4)
	assert.Equal(t, "[2, 3] float16", cases[0].String())
	assert.Equal(t, "[4] float32", cases[3].String())
}

func TestDefaultShapes(t *testing.T) {
	assert.Equal(t, [][]int{{64, 1024}, {8192}}, DefaultShapes("cumsum"))
	assert.Equal(t, [][]int{{1024}}, DefaultShapes("some_new_op"))
	// Returned shapes are copies.
	DefaultShapes("cumsum")[0][0] = 1
	assert.Equal(t, 64, DefaultShapes("cumsum")[0][0])
}

func TestApplyPolicy(t *testing.T) {
	c, policy := ApplyPolicy(ops.MustParse("aten::linalg_qr"), Case{Shape: []int{4, 2}, DType: dtypes.BFloat16})
	assert.Equal(t, dtypes.Float32, c.DType)
	assert.Equal(t, "promoted bfloat16 to float32", policy)

	c, policy = ApplyPolicy(ops.MustParse("aten::cumsum"), Case{Shape: []int{4}, DType: dtypes.Float16})
	assert.Equal(t, dtypes.Float16, c.DType)
	assert.Empty(t, policy)
}

// Every factory produces inputs the reference kernels accept, for a small case.
func TestFactoriesRunOnReference(t *testing.T) {
	ref := cpu.NewBackend()
	b := New()
	for _, q := range Supported() {
		shape := []int{4, 6}
		switch q.Base {
		case "conv3d":
			shape = []int{1, 2, 4, 4, 4}
		case "_linalg_eigh", "linalg_eigh":
			shape = []int{2, 5, 5}
		case "linalg_qr":
			shape = []int{6, 4}
		}
		dtype := dtypes.Float32
		if q.Base == "unique_dim" {
			dtype = dtypes.Int64
		}
		inv, err := b.Build(ref, q, Case{Shape: shape, DType: dtype})
		require.NoError(t, err, q.String())
		require.NoError(t, inv.Try(), q.String())
		assert.True(t, kernels.Has(q))
	}
}

func TestDeterministicInputs(t *testing.T) {
	q := ops.MustParse("aten::cumsum.default")
	c := Case{Shape: []int{3, 4}, DType: dtypes.Float32}
	in0, _, _, err := New().Inputs(q, c)
	require.NoError(t, err)
	in1, _, _, err := New().Inputs(q, c)
	require.NoError(t, err)
	assert.Equal(t, in0[0].Flat(), in1[0].Flat())
	in2, _, _, err := New().WithSeed(7).Inputs(q, c)
	require.NoError(t, err)
	assert.NotEqual(t, in0[0].Flat(), in2[0].Flat())
}

func TestConstructionErrors(t *testing.T) {
	ref := cpu.NewBackend()
	b := New()
	var constructionErr *parity.ConstructionError

	// Non-square matrix for eigh.
	_, err := b.Build(ref, ops.MustParse("aten::_linalg_eigh.eigenvalues"), Case{Shape: []int{3, 4}, DType: dtypes.Float32})
	require.True(t, errors.As(err, &constructionErr))
	assert.ErrorContains(t, err, "square")

	// No factory.
	_, err = b.Build(ref, ops.Qualname{Namespace: "aten", Base: "nope", Overload: "default"}, Case{Shape: []int{3}, DType: dtypes.Float32})
	require.True(t, errors.As(err, &constructionErr))

	// Invalid dimension.
	_, err = b.Build(ref, ops.MustParse("aten::cumsum"), Case{Shape: []int{0, 3}, DType: dtypes.Float32})
	require.True(t, errors.As(err, &constructionErr))

	// Accelerator doesn't support float64.
	acc := must.M1(accel.NewBackend("sync"))
	defer acc.Finalize()
	_, err = b.Build(acc, ops.MustParse("aten::cumsum"), Case{Shape: []int{8}, DType: dtypes.Float64})
	require.True(t, errors.As(err, &constructionErr))
	assert.True(t, errors.Is(err, backends.ErrUnsupportedDType))
}

func TestPolicyReportedOnInvocation(t *testing.T) {
	inv, err := New().Build(cpu.NewBackend(), ops.MustParse("aten::linalg_eigh"), Case{Shape: []int{8, 8}, DType: dtypes.Float16})
	require.NoError(t, err)
	assert.Equal(t, "promoted float16 to float32", inv.Policy)
	assert.Equal(t, "[8, 8] float32", inv.Case)
	require.NoError(t, inv.Try())
}

func TestFamilyProbe(t *testing.T) {
	ref := cpu.NewBackend()
	b := New()
	// Operators with a factory are invoked themselves, with the family's probe case.
	inv, err := b.FamilyProbe(ref, ops.MustParse("aten::linalg_eigh.default"))
	require.NoError(t, err)
	assert.Equal(t, "aten::linalg_eigh.default", inv.Op.String())
	assert.Equal(t, "[128, 128] float32", inv.Case)

	// Without a factory, the family's probe operator is used.
	inv, err = b.FamilyProbe(ref, ops.MustParse("aten::_linalg_eigh.unknown_overload"))
	require.NoError(t, err)
	assert.Equal(t, "aten::_linalg_eigh.eigenvalues", inv.Op.String())

	// Falls back to the first overload with a factory.
	inv, err = b.FamilyProbe(ref, ops.MustParse("aten::cumsum.unknown_overload"))
	require.NoError(t, err)
	assert.Equal(t, "aten::cumsum.default", inv.Op.String())
	assert.Equal(t, "[64, 1024] float32", inv.Case)

	_, err = b.FamilyProbe(ref, ops.MustParse("aten::grid_sampler_2d_backward"))
	assert.True(t, errors.Is(err, ErrNoProbe))
}
