package invocations

import (
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

// Factory generates the host inputs and the attributes of an operator call for the case.
// It panics if the case is not valid for the operator.
type Factory func(c Case, rng *rand.Rand) (inputs []*tensors.Tensor, attrs ops.Attrs)

var factories = map[string]Factory{
	"aten::add.Tensor":   binaryFactory,
	"aten::mul.Tensor":   binaryFactory,
	"aten::relu.default": unaryFactory(nil),

	"aten::sum.default":     unaryFactory(nil),
	"aten::sum.dim_IntList": unaryFactory(ops.Attrs{"dim": []int{-1}, "keepdim": false}),
	"aten::amax.default":    unaryFactory(ops.Attrs{"dim": []int{-1}}),
	"aten::amin.default":    unaryFactory(ops.Attrs{"dim": []int{-1}}),

	"aten::cumsum.default": unaryFactory(ops.Attrs{"dim": -1}),
	"aten::cumsum.out":     makeCumsumOut,
	"aten::cummin.default": unaryFactory(ops.Attrs{"dim": -1}),
	"aten::cummin.out":     makeCumminOut,

	"aten::index_select.default": makeIndexSelect,
	"aten::gather.default":       makeGather,
	"aten::topk.default":         makeTopK,
	"aten::unique_dim.default":   makeUniqueDim,

	"aten::_softmax.default":   unaryFactory(ops.Attrs{"dim": -1, "half_to_float": false}),
	"aten::softmax.int":        unaryFactory(ops.Attrs{"dim": -1}),
	"aten::layer_norm.default": makeLayerNorm,
	"aten::conv3d.default":     makeConv3D,

	"aten::_linalg_eigh.default":     makeEigh,
	"aten::_linalg_eigh.eigenvalues": makeEigh,
	"aten::linalg_eigh.default":      makeEigh,
	"aten::linalg_qr.default":        makeQR,
}

func normal(c Case, rng *rand.Rand) *tensors.Tensor {
	return tensors.Normal(shapes.Make(c.DType, c.Shape...), rng)
}

func unaryFactory(attrs ops.Attrs) Factory {
	return func(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
		return []*tensors.Tensor{normal(c, rng)}, attrs
	}
}

func binaryFactory(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	return []*tensors.Tensor{normal(c, rng), normal(c, rng)}, nil
}

func makeCumsumOut(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	x := normal(c, rng)
	return []*tensors.Tensor{x, tensors.FromShape(x.Shape())}, ops.Attrs{"dim": -1}
}

func makeCumminOut(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	x := normal(c, rng)
	values := tensors.FromShape(x.Shape())
	indices := tensors.FromShape(x.Shape().WithDType(dtypes.Int64))
	return []*tensors.Tensor{x, values, indices}, ops.Attrs{"dim": -1}
}

func lastDim(c Case) int {
	if len(c.Shape) == 0 {
		exceptions.Panicf("operator requires at least one axis, got a scalar")
	}
	return c.Shape[len(c.Shape)-1]
}

// makeIndexSelect selects the first half of the last axis.
func makeIndexSelect(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	x := normal(c, rng)
	n := max(lastDim(c)/2, 1)
	index := tensors.Iota(shapes.Make(dtypes.Int64, n), 0)
	return []*tensors.Tensor{x, index}, ops.Attrs{"dim": -1}
}

// makeGather gathers random positions of the last axis, with an index half the size of the input.
func makeGather(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	x := normal(c, rng)
	n := lastDim(c)
	indexDims := append([]int(nil), c.Shape...)
	indexDims[len(indexDims)-1] = max(n/2, 1)
	index := tensors.RandInt(shapes.Make(dtypes.Int64, indexDims...), rng, n)
	return []*tensors.Tensor{x, index}, ops.Attrs{"dim": -1}
}

func makeTopK(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	x := normal(c, rng)
	return []*tensors.Tensor{x}, ops.Attrs{"k": min(16, lastDim(c)), "dim": -1, "largest": true}
}

// makeUniqueDim generates small random integers, so there are repeated slices along the last axis.
func makeUniqueDim(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	lastDim(c)
	x := tensors.RandInt(shapes.Make(c.DType, c.Shape...), rng, 4)
	return []*tensors.Tensor{x}, ops.Attrs{"dim": -1}
}

func makeLayerNorm(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	x := normal(c, rng)
	n := lastDim(c)
	weight := tensors.Full(shapes.Make(c.DType, n), 1)
	bias := tensors.Full(shapes.Make(c.DType, n), 0)
	return []*tensors.Tensor{x, weight, bias}, ops.Attrs{"normalized_shape": []int{n}, "eps": 1e-5}
}

// makeConv3D takes shape [N, C, D, H, W] and uses a 3x3x3 kernel with C output channels and padding 1.
func makeConv3D(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	if len(c.Shape) != 5 {
		exceptions.Panicf("conv3d expects shape [N, C, D, H, W], got %s", shapes.FormatDims(c.Shape))
	}
	channels := c.Shape[1]
	x := normal(c, rng)
	weight := tensors.Normal(shapes.Make(c.DType, channels, channels, 3, 3, 3), rng)
	return []*tensors.Tensor{x, weight}, ops.Attrs{"stride": []int{1, 1, 1}, "padding": []int{1, 1, 1}}
}

// makeEigh generates symmetric (optionally batched) square matrices: (x + xᵀ) / 2.
func makeEigh(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	rank := len(c.Shape)
	if rank < 2 || c.Shape[rank-1] != c.Shape[rank-2] {
		exceptions.Panicf("linalg_eigh expects square (optionally batched) matrices, got shape %s",
			shapes.FormatDims(c.Shape))
	}
	x := normal(c, rng)
	n := c.Shape[rank-1]
	flat := x.Flat()
	sym := tensors.FromShape(x.Shape())
	for offset := 0; offset < len(flat); offset += n * n {
		for i := range n {
			for j := range n {
				sym.Set(offset+i*n+j, (flat[offset+i*n+j]+flat[offset+j*n+i])/2)
			}
		}
	}
	return []*tensors.Tensor{sym}, ops.Attrs{"UPLO": "L"}
}

func makeQR(c Case, rng *rand.Rand) ([]*tensors.Tensor, ops.Attrs) {
	if len(c.Shape) < 2 {
		exceptions.Panicf("linalg_qr expects (optionally batched) matrices, got shape %s", shapes.FormatDims(c.Shape))
	}
	return []*tensors.Tensor{normal(c, rng)}, ops.Attrs{"mode": "reduced"}
}
