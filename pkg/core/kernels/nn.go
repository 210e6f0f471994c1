package kernels

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

func execSoftmax(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x := inputs[0]
	requireFloat("softmax", x.DType())
	axis := x.Shape().AdjustAxis(attrs.Int("dim", -1))
	outShape := x.Shape()
	if attrs.Bool("half_to_float", false) && x.DType().IsHalf() {
		outShape = outShape.WithDType(dtypes.Float32)
	}
	outer, n, inner := axisSplit(x.Shape().Dimensions, axis)
	out := tensors.FromShape(outShape)
	xFlat, outFlat := x.Flat(), out.Flat()
	for o := 0; o < outer; o++ {
		for j := 0; j < inner; j++ {
			maxV := math.Inf(-1)
			for i := 0; i < n; i++ {
				maxV = math.Max(maxV, xFlat[(o*n+i)*inner+j])
			}
			var sum float64
			for i := 0; i < n; i++ {
				idx := (o*n+i)*inner + j
				e := math.Exp(xFlat[idx] - maxV)
				outFlat[idx] = e
				sum += e
			}
			for i := 0; i < n; i++ {
				outFlat[(o*n+i)*inner+j] /= sum
			}
		}
	}
	return []*tensors.Tensor{out.RoundAll()}
}

func execLayerNorm(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x, weight, bias := inputs[0], inputs[1], inputs[2]
	requireFloat("layer_norm", x.DType())
	dims := x.Shape().Dimensions
	normalized := attrs.Ints("normalized_shape", dims[len(dims)-1:])
	if len(normalized) == 0 || len(normalized) > len(dims) {
		exceptions.Panicf("layer_norm: invalid normalized_shape %v for input %s", normalized, x.Shape())
	}
	groupSize := 1
	for ii, dim := range normalized {
		if dims[len(dims)-len(normalized)+ii] != dim {
			exceptions.Panicf("layer_norm: normalized_shape %v doesn't match the trailing dimensions of %s", normalized, x.Shape())
		}
		groupSize *= dim
	}
	for _, param := range []*tensors.Tensor{weight, bias} {
		if param != nil && param.Shape().Size() != groupSize {
			exceptions.Panicf("layer_norm: weight/bias shape %s doesn't match normalized_shape %v", param.Shape(), normalized)
		}
	}
	eps := attrs.Float("eps", 1e-5)
	out := tensors.FromShape(x.Shape())
	xFlat, outFlat := x.Flat(), out.Flat()
	for start := 0; start < len(xFlat); start += groupSize {
		group := xFlat[start : start+groupSize]
		var mean, variance float64
		for _, v := range group {
			mean += v
		}
		mean /= float64(groupSize)
		for _, v := range group {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(groupSize)
		invStd := 1 / math.Sqrt(variance+eps)
		for ii, v := range group {
			y := (v - mean) * invStd
			if weight != nil {
				y *= weight.Flat()[ii]
			}
			if bias != nil {
				y += bias.Flat()[ii]
			}
			outFlat[start+ii] = y
		}
	}
	return []*tensors.Tensor{out.RoundAll()}
}

// execConv3D implements a direct 3D convolution over [N, C, D, H, W] inputs with [Cout, C, kD, kH, kW]
// weights. Attributes "stride" and "padding" take 3 values each.
func execConv3D(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x, w := inputs[0], inputs[1]
	requireRank("conv3d", x, 5)
	requireRank("conv3d", w, 5)
	requireFloat("conv3d", x.DType())
	stride := attrs.Ints("stride", []int{1, 1, 1})
	padding := attrs.Ints("padding", []int{0, 0, 0})
	if len(stride) != 3 || len(padding) != 3 {
		exceptions.Panicf("conv3d: stride %v and padding %v must have 3 values each", stride, padding)
	}
	xd, wd := x.Shape().Dimensions, w.Shape().Dimensions
	batch, inChannels := xd[0], xd[1]
	outChannels := wd[0]
	if wd[1] != inChannels {
		exceptions.Panicf("conv3d: weight %s expects %d input channels, input %s has %d", w.Shape(), wd[1], x.Shape(), inChannels)
	}
	var outSpatial [3]int
	for ii := range 3 {
		outSpatial[ii] = (xd[2+ii]+2*padding[ii]-wd[2+ii])/stride[ii] + 1
		if outSpatial[ii] <= 0 {
			exceptions.Panicf("conv3d: kernel %s larger than padded input %s", w.Shape(), x.Shape())
		}
	}
	out := tensors.FromShape(shapes.Make(x.DType(), batch, outChannels, outSpatial[0], outSpatial[1], outSpatial[2]))
	xStrides, wStrides, outStrides := x.Shape().Strides(), w.Shape().Strides(), out.Shape().Strides()
	xFlat, wFlat, outFlat := x.Flat(), w.Flat(), out.Flat()
	for n := 0; n < batch; n++ {
		for co := 0; co < outChannels; co++ {
			for od := 0; od < outSpatial[0]; od++ {
				for oh := 0; oh < outSpatial[1]; oh++ {
					for ow := 0; ow < outSpatial[2]; ow++ {
						var acc float64
						for ci := 0; ci < inChannels; ci++ {
							for kd := 0; kd < wd[2]; kd++ {
								id := od*stride[0] - padding[0] + kd
								if id < 0 || id >= xd[2] {
									continue
								}
								for kh := 0; kh < wd[3]; kh++ {
									ih := oh*stride[1] - padding[1] + kh
									if ih < 0 || ih >= xd[3] {
										continue
									}
									xBase := n*xStrides[0] + ci*xStrides[1] + id*xStrides[2] + ih*xStrides[3]
									wBase := co*wStrides[0] + ci*wStrides[1] + kd*wStrides[2] + kh*wStrides[3]
									for kw := 0; kw < wd[4]; kw++ {
										iw := ow*stride[2] - padding[2] + kw
										if iw < 0 || iw >= xd[4] {
											continue
										}
										acc += xFlat[xBase+iw] * wFlat[wBase+kw]
									}
								}
							}
						}
						outFlat[n*outStrides[0]+co*outStrides[1]+od*outStrides[2]+oh*outStrides[3]+ow] = acc
					}
				}
			}
		}
	}
	return []*tensors.Tensor{out.RoundAll()}
}
