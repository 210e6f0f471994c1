package kernels

import (
	"math"
	"slices"

	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

// reduceAxes reduces x over the given axes (all axes if empty) with fn, starting from init.
func reduceAxes(x *tensors.Tensor, axes []int, keepDims bool, init float64, fn func(acc, v float64) float64) *tensors.Tensor {
	xShape := x.Shape()
	reduced := make([]bool, xShape.Rank())
	if len(axes) == 0 {
		for ii := range reduced {
			reduced[ii] = true
		}
	}
	for _, axis := range axes {
		reduced[xShape.AdjustAxis(axis)] = true
	}

	var outDims []int
	for axis, dim := range xShape.Dimensions {
		switch {
		case !reduced[axis]:
			outDims = append(outDims, dim)
		case keepDims:
			outDims = append(outDims, 1)
		}
	}
	outShape := shapes.Make(xShape.DType, outDims...)

	// Strides of x axes into the output, 0 for reduced axes.
	outStrides := make([]int, xShape.Rank())
	stride := 1
	for axis := xShape.Rank() - 1; axis >= 0; axis-- {
		if reduced[axis] {
			continue
		}
		outStrides[axis] = stride
		stride *= xShape.Dimensions[axis]
	}

	acc := make([]float64, outShape.Size())
	for ii := range acc {
		acc[ii] = init
	}
	xFlat := x.Flat()
	for flat, indices := range xShape.Iter() {
		outIdx := 0
		for axis, idx := range indices {
			outIdx += idx * outStrides[axis]
		}
		acc[outIdx] = fn(acc[outIdx], xFlat[flat])
	}
	return tensors.FromFlat(outShape, acc)
}

func execSum(inputs []*tensors.Tensor, _ ops.Attrs) []*tensors.Tensor {
	return []*tensors.Tensor{reduceAxes(inputs[0], nil, false, 0, func(acc, v float64) float64 { return acc + v })}
}

func execSumDims(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	axes := slices.Clone(attrs.Ints("dim", nil))
	return []*tensors.Tensor{reduceAxes(inputs[0], axes, attrs.Bool("keepdim", false), 0,
		func(acc, v float64) float64 { return acc + v })}
}

func execAmax(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	return []*tensors.Tensor{reduceAxes(inputs[0], attrs.Ints("dim", nil), attrs.Bool("keepdim", false),
		math.Inf(-1), math.Max)}
}

func execAmin(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	return []*tensors.Tensor{reduceAxes(inputs[0], attrs.Ints("dim", nil), attrs.Bool("keepdim", false),
		math.Inf(1), math.Min)}
}
