package kernels

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(data []float64, dims ...int) *tensors.Tensor {
	return tensors.FromFlat(shapes.Make(dtypes.Float32, dims...), data)
}

func i64(data []float64, dims ...int) *tensors.Tensor {
	return tensors.FromFlat(shapes.Make(dtypes.Int64, dims...), data)
}

func run(t *testing.T, name string, attrs ops.Attrs, inputs ...*tensors.Tensor) []*tensors.Tensor {
	schema, err := ops.Default().Lookup(ops.MustParse(name))
	require.NoError(t, err)
	return Run(schema, inputs, attrs)
}

func TestEveryRegisteredOpHasAKernel(t *testing.T) {
	for _, q := range ops.Default().All() {
		assert.True(t, Has(q), "missing kernel for %s", q)
	}
}

func TestElementwiseAndReduce(t *testing.T) {
	x := f32([]float64{1, -2, 3, -4, 5, -6}, 2, 3)
	assert.Equal(t, []float64{2, -4, 6, -8, 10, -12}, run(t, "aten::add.Tensor", nil, x, x)[0].Flat())
	assert.Equal(t, []float64{2, -4, 6, -8, 10, -12}, run(t, "aten::mul.Tensor", nil, x, f32([]float64{2}))[0].Flat())
	assert.Equal(t, []float64{1, 0, 3, 0, 5, 0}, run(t, "aten::relu.default", nil, x)[0].Flat())
	assert.Equal(t, []float64{-3}, run(t, "aten::sum.default", nil, x)[0].Flat())

	sumRows := run(t, "aten::sum.dim_IntList", ops.Attrs{"dim": []int{1}}, x)[0]
	assert.Equal(t, []int{2}, sumRows.Shape().Dimensions)
	assert.Equal(t, []float64{2, -5}, sumRows.Flat())

	amax := run(t, "aten::amax.default", ops.Attrs{"dim": []int{0}, "keepdim": true}, x)[0]
	assert.Equal(t, []int{1, 3}, amax.Shape().Dimensions)
	assert.Equal(t, []float64{1, 5, 3}, amax.Flat())
	assert.Equal(t, []float64{-6}, run(t, "aten::amin.default", nil, x)[0].Flat())

	require.Error(t, exceptions.TryCatch[error](func() {
		run(t, "aten::add.Tensor", nil, x, f32([]float64{1, 2}, 2))
	}))
}

func TestScans(t *testing.T) {
	x := f32([]float64{3, 1, 2, 0, 5, -1}, 2, 3)
	assert.Equal(t, []float64{3, 4, 6, 0, 5, 4}, run(t, "aten::cumsum.default", ops.Attrs{"dim": -1}, x)[0].Flat())
	assert.Equal(t, []float64{3, 1, 2, 3, 6, 1}, run(t, "aten::cumsum.default", ops.Attrs{"dim": 0}, x)[0].Flat())

	out := tensors.FromShape(x.Shape())
	res := run(t, "aten::cumsum.out", ops.Attrs{"dim": -1}, x, out)
	assert.Same(t, out, res[0])
	assert.Equal(t, []float64{3, 4, 6, 0, 5, 4}, out.Flat())

	cm := run(t, "aten::cummin.default", ops.Attrs{"dim": 1}, x)
	assert.Equal(t, []float64{3, 1, 1, 0, 0, -1}, cm[0].Flat())
	assert.Equal(t, []float64{0, 1, 1, 0, 0, 2}, cm[1].Flat())
	assert.Equal(t, dtypes.Int64, cm[1].DType())

	values := tensors.FromShape(x.Shape())
	indices := tensors.FromShape(x.Shape().WithDType(dtypes.Int64))
	cmOut := run(t, "aten::cummin.out", ops.Attrs{"dim": -1}, x, values, indices)
	assert.Same(t, values, cmOut[0])
	assert.Equal(t, []float64{0, 1, 1, 0, 0, 2}, indices.Flat())
}

func TestIndexing(t *testing.T) {
	x := f32([]float64{0, 1, 2, 3, 4, 5}, 2, 3)
	sel := run(t, "aten::index_select.default", ops.Attrs{"dim": -1}, x, i64([]float64{2, 0}, 2))[0]
	assert.Equal(t, []int{2, 2}, sel.Shape().Dimensions)
	assert.Equal(t, []float64{2, 0, 5, 3}, sel.Flat())

	g := run(t, "aten::gather.default", ops.Attrs{"dim": 1}, x, i64([]float64{1, 1, 0, 2}, 2, 2))[0]
	assert.Equal(t, []float64{1, 1, 3, 5}, g.Flat())

	err := exceptions.TryCatch[error](func() {
		run(t, "aten::index_select.default", ops.Attrs{"dim": 0}, x, i64([]float64{7}, 1))
	})
	require.ErrorContains(t, err, "out of range")

	topk := run(t, "aten::topk.default", ops.Attrs{"k": 2}, f32([]float64{1, 9, 3, 7, 2, 8}, 2, 3))
	assert.Equal(t, []float64{9, 3, 8, 7}, topk[0].Flat())
	assert.Equal(t, []float64{1, 2, 2, 0}, topk[1].Flat())

	u := run(t, "aten::unique_dim.default", ops.Attrs{"dim": 0}, f32([]float64{1, 2, 0, 1, 1, 2}, 3, 2))[0]
	assert.Equal(t, []int{2, 2}, u.Shape().Dimensions)
	assert.Equal(t, []float64{0, 1, 1, 2}, u.Flat())
}

func TestNN(t *testing.T) {
	x := f32([]float64{1, 2, 3, 1, 1, 1}, 2, 3)
	sm := run(t, "aten::_softmax.default", ops.Attrs{"dim": -1, "half_to_float": false}, x)[0]
	flat := sm.Flat()
	assert.InDelta(t, 1.0, flat[0]+flat[1]+flat[2], 1e-6)
	assert.InDelta(t, 1.0/3, flat[3], 1e-6)
	assert.Greater(t, flat[2], flat[1])

	half := tensors.FromFlat(shapes.Make(dtypes.Float16, 3), []float64{1, 2, 3})
	sm = run(t, "aten::_softmax.default", ops.Attrs{"dim": 0, "half_to_float": true}, half)[0]
	assert.Equal(t, dtypes.Float32, sm.DType())

	weight := tensors.Full(shapes.Make(dtypes.Float32, 3), 1)
	bias := tensors.Full(shapes.Make(dtypes.Float32, 3), 0)
	ln := run(t, "aten::layer_norm.default", ops.Attrs{"eps": 1e-5}, x, weight, bias)[0]
	assert.InDelta(t, 0, ln.Flat()[1], 1e-5)
	assert.InDelta(t, -ln.Flat()[0], ln.Flat()[2], 1e-5)
	assert.InDelta(t, 0, ln.Flat()[4], 1e-5)

	require.Error(t, exceptions.TryCatch[error](func() {
		run(t, "aten::softmax.int", nil, i64([]float64{1, 2}, 2))
	}))
}

func TestConv3D(t *testing.T) {
	x := tensors.Full(shapes.Make(dtypes.Float32, 1, 2, 3, 3, 3), 1)
	w := tensors.Full(shapes.Make(dtypes.Float32, 4, 2, 3, 3, 3), 1)
	out := run(t, "aten::conv3d.default", ops.Attrs{"padding": []int{1, 1, 1}}, x, w)[0]
	assert.Equal(t, []int{1, 4, 3, 3, 3}, out.Shape().Dimensions)
	// Center voxel sees the full 3x3x3 kernel over 2 channels, corners only 2x2x2.
	assert.Equal(t, 54.0, out.Flat()[13])
	assert.Equal(t, 16.0, out.Flat()[0])

	err := exceptions.TryCatch[error](func() {
		run(t, "aten::conv3d.default", nil, tensors.Full(shapes.Make(dtypes.Float32, 2, 3), 1), w)
	})
	require.ErrorContains(t, err, "rank-5")
}

func TestLinalg(t *testing.T) {
	a := f32([]float64{2, 1, 1, 2}, 2, 2)
	values := run(t, "aten::_linalg_eigh.eigenvalues", nil, a)[0]
	assert.InDeltaSlice(t, []float64{1, 3}, values.Flat(), 1e-5)

	res := run(t, "aten::linalg_eigh.default", nil, a)
	assert.Equal(t, []int{2, 2}, res[1].Shape().Dimensions)
	v := res[1].Flat()
	// Eigenvector columns are unit norm.
	assert.InDelta(t, 1.0, v[0]*v[0]+v[2]*v[2], 1e-5)

	err := exceptions.TryCatch[error](func() { run(t, "aten::_linalg_eigh.default", nil, f32(make([]float64, 12), 3, 4)) })
	require.ErrorContains(t, err, "square")
	half := tensors.FromShape(shapes.Make(dtypes.Float16, 2, 2))
	err = exceptions.TryCatch[error](func() { run(t, "aten::_linalg_eigh.eigenvalues", nil, half) })
	require.ErrorContains(t, err, "low precision")

	rng := rand.New(rand.NewPCG(3, 4))
	m := tensors.Normal(shapes.Make(dtypes.Float64, 5, 3), rng)
	qr := run(t, "aten::linalg_qr.default", nil, m)
	q, r := qr[0], qr[1]
	assert.Equal(t, []int{5, 3}, q.Shape().Dimensions)
	assert.Equal(t, []int{3, 3}, r.Shape().Dimensions)
	// Q*R reconstructs the input.
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			var acc float64
			for k := 0; k < 3; k++ {
				acc += q.Flat()[i*3+k] * r.Flat()[k*3+j]
			}
			assert.InDelta(t, m.Flat()[i*3+j], acc, 1e-9)
		}
	}
	assert.False(t, math.IsNaN(r.Flat()[0]))
}
