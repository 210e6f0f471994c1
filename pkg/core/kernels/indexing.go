package kernels

import (
	"slices"
	"sort"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

func checkIndex(name string, idx float64, limit int) int {
	i := int(idx)
	if i < 0 {
		i += limit
	}
	if i < 0 || i >= limit {
		exceptions.Panicf("%s: index %d out of range for dimension of size %d", name, int(idx), limit)
	}
	return i
}

func requireIndexDType(name string, index *tensors.Tensor) {
	if dtype := index.DType(); dtype != dtypes.Int64 && dtype != dtypes.Int32 {
		exceptions.Panicf("%s: index must be Int64 or Int32, got %s", name, dtype)
	}
}

func execIndexSelect(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x, index := inputs[0], inputs[1]
	requireIndexDType("index_select", index)
	if index.Shape().Rank() > 1 {
		exceptions.Panicf("index_select: index must be a vector, got shape %s", index.Shape())
	}
	axis := x.Shape().AdjustAxis(attrs.Int("dim", 0))
	outer, n, inner := axisSplit(x.Shape().Dimensions, axis)
	numIndices := index.Shape().Size()
	outDims := slices.Clone(x.Shape().Dimensions)
	outDims[axis] = numIndices
	out := tensors.FromShape(shapes.Make(x.DType(), outDims...))
	xFlat, outFlat := x.Flat(), out.Flat()
	for k, idx := range index.Flat() {
		i := checkIndex("index_select", idx, n)
		for o := 0; o < outer; o++ {
			copy(outFlat[(o*numIndices+k)*inner:(o*numIndices+k+1)*inner], xFlat[(o*n+i)*inner:(o*n+i+1)*inner])
		}
	}
	return []*tensors.Tensor{out}
}

func execGather(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x, index := inputs[0], inputs[1]
	requireIndexDType("gather", index)
	xShape, idxShape := x.Shape(), index.Shape()
	if xShape.Rank() != idxShape.Rank() {
		exceptions.Panicf("gather: index rank %d must match input rank %d", idxShape.Rank(), xShape.Rank())
	}
	axis := xShape.AdjustAxis(attrs.Int("dim", 0))
	for ii, dim := range idxShape.Dimensions {
		if ii != axis && dim > xShape.Dimensions[ii] {
			exceptions.Panicf("gather: index shape %s larger than input shape %s on axis %d", idxShape, xShape, ii)
		}
	}
	out := tensors.FromShape(idxShape.WithDType(x.DType()))
	xStrides := xShape.Strides()
	xFlat, idxFlat, outFlat := x.Flat(), index.Flat(), out.Flat()
	for flat, indices := range idxShape.Iter() {
		src := 0
		for ii, idx := range indices {
			if ii == axis {
				idx = checkIndex("gather", idxFlat[flat], xShape.Dimensions[axis])
			}
			src += idx * xStrides[ii]
		}
		outFlat[flat] = xFlat[src]
	}
	return []*tensors.Tensor{out}
}

func execTopK(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x := inputs[0]
	axis := x.Shape().AdjustAxis(attrs.Int("dim", -1))
	k := attrs.Int("k", 1)
	largest := attrs.Bool("largest", true)
	outer, n, inner := axisSplit(x.Shape().Dimensions, axis)
	if k < 0 || k > n {
		exceptions.Panicf("topk: k=%d out of range for dimension of size %d", k, n)
	}
	outDims := slices.Clone(x.Shape().Dimensions)
	outDims[axis] = k
	values := tensors.FromShape(shapes.Make(x.DType(), outDims...))
	indices := tensors.FromShape(shapes.Make(dtypes.Int64, outDims...))
	xFlat, vFlat, iFlat := x.Flat(), values.Flat(), indices.Flat()
	order := make([]int, n)
	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			for i := range order {
				order[i] = i
			}
			at := func(i int) float64 { return xFlat[(o*n+i)*inner+j] }
			sort.SliceStable(order, func(a, b int) bool {
				if largest {
					return at(order[a]) > at(order[b])
				}
				return at(order[a]) < at(order[b])
			})
			for r := 0; r < k; r++ {
				dst := (o*k+r)*inner + j
				vFlat[dst] = at(order[r])
				iFlat[dst] = float64(order[r])
			}
		}
	}
	return []*tensors.Tensor{values, indices}
}

func execUniqueDim(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x := inputs[0]
	if x.Shape().Rank() == 0 {
		exceptions.Panicf("unique_dim: input must have at least one axis")
	}
	axis := x.Shape().AdjustAxis(attrs.Int("dim", 0))
	outer, n, inner := axisSplit(x.Shape().Dimensions, axis)

	// Each "row" is the slice of x at position i of axis, flattened.
	rows := make([][]float64, n)
	xFlat := x.Flat()
	for i := 0; i < n; i++ {
		row := make([]float64, 0, outer*inner)
		for o := 0; o < outer; o++ {
			row = append(row, xFlat[(o*n+i)*inner:(o*n+i+1)*inner]...)
		}
		rows[i] = row
	}
	slices.SortStableFunc(rows, func(a, b []float64) int { return slices.Compare(a, b) })
	rows = slices.CompactFunc(rows, func(a, b []float64) bool { return slices.Equal(a, b) })

	outDims := slices.Clone(x.Shape().Dimensions)
	outDims[axis] = len(rows)
	out := tensors.FromShape(shapes.Make(x.DType(), outDims...))
	outFlat := out.Flat()
	numUnique := len(rows)
	for i, row := range rows {
		for o := 0; o < outer; o++ {
			copy(outFlat[(o*numUnique+i)*inner:(o*numUnique+i+1)*inner], row[o*inner:(o+1)*inner])
		}
	}
	return []*tensors.Tensor{out}
}
