package kernels

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

func binaryOp(name string, inputs []*tensors.Tensor, fn func(a, b float64) float64) []*tensors.Tensor {
	lhs, rhs := inputs[0], inputs[1]
	scalarRHS := rhs.Shape().Size() == 1
	if !scalarRHS && !lhs.Shape().EqualDimensions(rhs.Shape()) {
		exceptions.Panicf("%s: shapes %s and %s are not compatible", name, lhs.Shape(), rhs.Shape())
	}
	out := tensors.FromShape(lhs.Shape())
	outFlat, lhsFlat, rhsFlat := out.Flat(), lhs.Flat(), rhs.Flat()
	for ii, a := range lhsFlat {
		if scalarRHS {
			outFlat[ii] = fn(a, rhsFlat[0])
		} else {
			outFlat[ii] = fn(a, rhsFlat[ii])
		}
	}
	return []*tensors.Tensor{out.RoundAll()}
}

func execAdd(inputs []*tensors.Tensor, _ ops.Attrs) []*tensors.Tensor {
	return binaryOp("add", inputs, func(a, b float64) float64 { return a + b })
}

func execMul(inputs []*tensors.Tensor, _ ops.Attrs) []*tensors.Tensor {
	return binaryOp("mul", inputs, func(a, b float64) float64 { return a * b })
}

func execRelu(inputs []*tensors.Tensor, _ ops.Attrs) []*tensors.Tensor {
	x := inputs[0]
	out := x.Clone()
	flat := out.Flat()
	for ii, v := range flat {
		if v < 0 {
			flat[ii] = 0
		}
	}
	return []*tensors.Tensor{out}
}
