/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package tensors implement a host `Tensor`, a dense multidimensional array stored row-major.
//
// Values of every dtype are held as float64 and rounded with dtypes.DType.Round whenever they are
// written, so a Float16 tensor only ever holds values representable in float16.
//
// Ways to construct a Tensor:
//
//   - FromShape(shape): zero values.
//   - FromFlat(shape, data): copies and rounds the given flat data.
//   - Normal(shape, rng): standard normal values, used to materialize operator inputs.
//   - Iota(shape, axis): increasing values along an axis, used for index inputs.
package tensors

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/shapes"
)

// Tensor is a dense host tensor.
type Tensor struct {
	shape shapes.Shape
	flat  []float64
}

// FromShape returns a zero-initialized tensor.
func FromShape(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape(%s): invalid dtype", shape)
	}
	return &Tensor{shape: shape.Clone(), flat: make([]float64, shape.Size())}
}

// FromFlat returns a tensor with a copy of data, rounded to the shape's dtype.
func FromFlat(shape shapes.Shape, data []float64) *Tensor {
	if len(data) != shape.Size() {
		exceptions.Panicf("tensors.FromFlat(%s): got %d values, wanted %d", shape, len(data), shape.Size())
	}
	t := FromShape(shape)
	for ii, v := range data {
		t.flat[ii] = shape.DType.Round(v)
	}
	return t
}

// Scalar returns a rank-0 tensor.
func Scalar(dtype dtypes.DType, value float64) *Tensor {
	return FromFlat(shapes.Scalar(dtype), []float64{value})
}

// Normal returns a tensor with standard normal values drawn from rng.
func Normal(shape shapes.Shape, rng *rand.Rand) *Tensor {
	t := FromShape(shape)
	for ii := range t.flat {
		t.flat[ii] = shape.DType.Round(rng.NormFloat64())
	}
	return t
}

// Uniform returns a tensor with values uniformly drawn from [low, high).
func Uniform(shape shapes.Shape, rng *rand.Rand, low, high float64) *Tensor {
	t := FromShape(shape)
	for ii := range t.flat {
		t.flat[ii] = shape.DType.Round(low + (high-low)*rng.Float64())
	}
	return t
}

// RandInt returns a tensor with integer values uniformly drawn from [0, n).
func RandInt(shape shapes.Shape, rng *rand.Rand, n int) *Tensor {
	t := FromShape(shape)
	for ii := range t.flat {
		t.flat[ii] = shape.DType.Round(float64(rng.IntN(n)))
	}
	return t
}

// Iota returns a tensor whose values are the index along the given axis.
func Iota(shape shapes.Shape, axis int) *Tensor {
	t := FromShape(shape)
	axis = shape.AdjustAxis(axis)
	for flat, indices := range shape.Iter() {
		t.flat[flat] = shape.DType.Round(float64(indices[axis]))
	}
	return t
}

// Full returns a tensor filled with value.
func Full(shape shapes.Shape, value float64) *Tensor {
	t := FromShape(shape)
	v := shape.DType.Round(value)
	for ii := range t.flat {
		t.flat[ii] = v
	}
	return t
}

// Shape returns the tensor shape. The caller must not modify it.
func (t *Tensor) Shape() shapes.Shape {
	return t.shape
}

// DType of the tensor elements.
func (t *Tensor) DType() dtypes.DType {
	return t.shape.DType
}

// Flat returns the underlying flat storage. Writes through it must be rounded by the caller, see Set.
func (t *Tensor) Flat() []float64 {
	return t.flat
}

// Set the flat element at idx, rounding to the tensor dtype.
func (t *Tensor) Set(idx int, v float64) {
	t.flat[idx] = t.shape.DType.Round(v)
}

// RoundAll rounds every element to the tensor dtype, after kernels wrote into Flat directly.
func (t *Tensor) RoundAll() *Tensor {
	if t.shape.DType == dtypes.Float64 {
		return t
	}
	for ii, v := range t.flat {
		t.flat[ii] = t.shape.DType.Round(v)
	}
	return t
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{shape: t.shape.Clone(), flat: slices.Clone(t.flat)}
}

// CopyFrom copies values of src into t. Shapes dimensions must match, dtype is converted.
func (t *Tensor) CopyFrom(src *Tensor) {
	if !t.shape.EqualDimensions(src.shape) {
		exceptions.Panicf("tensors.CopyFrom: destination %s and source %s dimensions differ", t.shape, src.shape)
	}
	for ii, v := range src.flat {
		t.flat[ii] = t.shape.DType.Round(v)
	}
}

// Reshape returns a tensor sharing the storage, with new dimensions of the same size.
func (t *Tensor) Reshape(dimensions ...int) *Tensor {
	shape := shapes.Make(t.shape.DType, dimensions...)
	if shape.Size() != t.shape.Size() {
		exceptions.Panicf("tensors.Reshape(%v): incompatible with %s", dimensions, t.shape)
	}
	return &Tensor{shape: shape, flat: t.flat}
}

// String implements fmt.Stringer, printing the shape and up to 8 values.
func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString(t.shape.String())
	sb.WriteString("{")
	for ii, v := range t.flat {
		if ii == 8 {
			sb.WriteString(", ...")
			break
		}
		if ii > 0 {
			sb.WriteString(", ")
		}
		_, _ = fmt.Fprintf(&sb, "%.4g", v)
	}
	sb.WriteString("}")
	return sb.String()
}
