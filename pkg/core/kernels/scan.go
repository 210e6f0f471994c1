package kernels

import (
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

func cumsum(x *tensors.Tensor, dim int) *tensors.Tensor {
	axis := x.Shape().AdjustAxis(dim)
	outer, n, inner := axisSplit(x.Shape().Dimensions, axis)
	out := tensors.FromShape(x.Shape())
	xFlat, outFlat := x.Flat(), out.Flat()
	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			var acc float64
			for i := 0; i < n; i++ {
				idx := (o*n+i)*inner + j
				acc += xFlat[idx]
				outFlat[idx] = acc
			}
		}
	}
	return out.RoundAll()
}

func execCumsum(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	return []*tensors.Tensor{cumsum(inputs[0], attrs.Int("dim", -1))}
}

func execCumsumOut(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	out := inputs[1]
	out.CopyFrom(cumsum(inputs[0], attrs.Int("dim", -1)))
	return []*tensors.Tensor{out}
}

func cummin(x *tensors.Tensor, dim int) (values, indices *tensors.Tensor) {
	axis := x.Shape().AdjustAxis(dim)
	outer, n, inner := axisSplit(x.Shape().Dimensions, axis)
	values = tensors.FromShape(x.Shape())
	indices = tensors.FromShape(x.Shape().WithDType(dtypes.Int64))
	xFlat, vFlat, iFlat := x.Flat(), values.Flat(), indices.Flat()
	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			var best float64
			bestIdx := 0
			for i := 0; i < n; i++ {
				idx := (o*n+i)*inner + j
				// Ties take the latest index, NaN propagates.
				if i == 0 || xFlat[idx] <= best || xFlat[idx] != xFlat[idx] {
					best, bestIdx = xFlat[idx], i
				}
				vFlat[idx] = best
				iFlat[idx] = float64(bestIdx)
			}
		}
	}
	return values, indices
}

func execCummin(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	values, indices := cummin(inputs[0], attrs.Int("dim", -1))
	return []*tensors.Tensor{values, indices}
}

func execCumminOut(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	values, indices := cummin(inputs[0], attrs.Int("dim", -1))
	inputs[1].CopyFrom(values)
	inputs[2].CopyFrom(indices)
	return []*tensors.Tensor{inputs[1], inputs[2]}
}
