// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape: the dtype and dimensions of a tensor.
//
// Example: the multi-dimensional array `[][]float32{{0, 1, 2}, {3, 4, 5}}` has shape `(Float32)[2 3]`,
// created with `shapes.Make(dtypes.Float32, 2, 3)`. It has rank 2, axis 0 has dimension 2 and axis 1 has
// dimension 3.
package shapes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/pkg/errors"
)

// Shape of a tensor: its DType and dimensions. A scalar has no dimensions.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions. It panics if any dimension is negative.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	for _, dim := range dimensions {
		if dim < 0 {
			exceptions.Panicf("shapes.Make(%s, %v): dimensions cannot be negative", dtype, dimensions)
		}
	}
	return Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
}

// Scalar returns a scalar shape of the given dtype.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// Ok returns whether the shape has a valid dtype.
func (s Shape) Ok() bool {
	return s.DType != dtypes.InvalidDType
}

// Rank is the number of axes.
func (s Shape) Rank() int {
	return len(s.Dimensions)
}

// Size is the number of elements. A scalar has size 1.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		size *= dim
	}
	return size
}

// Memory is the number of bytes needed to store the elements.
func (s Shape) Memory() uintptr {
	return uintptr(s.Size() * s.DType.Size())
}

// Dim returns the dimension of the given axis. Negative axes are counted from the end.
func (s Shape) Dim(axis int) int {
	return s.Dimensions[s.AdjustAxis(axis)]
}

// AdjustAxis converts a negative axis to its positive equivalent. It panics if the axis is out of range.
func (s Shape) AdjustAxis(axis int) int {
	rank := s.Rank()
	adjusted := axis
	if adjusted < 0 {
		adjusted += rank
	}
	if adjusted < 0 || adjusted >= rank {
		exceptions.Panicf("axis %d out of range for shape %s", axis, s)
	}
	return adjusted
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// Equal compares dtype and dimensions.
func (s Shape) Equal(s2 Shape) bool {
	return s.DType == s2.DType && slices.Equal(s.Dimensions, s2.Dimensions)
}

// EqualDimensions compares only the dimensions.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// WithDType returns a copy of the shape with a different dtype.
func (s Shape) WithDType(dtype dtypes.DType) Shape {
	s2 := s.Clone()
	s2.DType = dtype
	return s2
}

// Strides returns the strides for each axis, assuming a row-major layout.
// Strides are in elements, not bytes.
func (s Shape) Strides() []int {
	strides := make([]int, s.Rank())
	stride := 1
	for axis := s.Rank() - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= s.Dimensions[axis]
	}
	return strides
}

// String implements fmt.Stringer, e.g. "(Float32)[64 1024]".
func (s Shape) String() string {
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// FormatDims formats dimensions the way result files store them: "[64, 1024]".
func FormatDims(dims []int) string {
	parts := make([]string, len(dims))
	for ii, dim := range dims {
		parts[ii] = strconv.Itoa(dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParseDims parses dimensions formatted as "[64, 1024]", "[64 1024]" or "64x1024".
func ParseDims(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == 'x' || r == '\t'
	})
	dims := make([]int, 0, len(fields))
	for _, field := range fields {
		dim, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid dimensions %q", text)
		}
		if dim < 0 {
			return nil, errors.Errorf("invalid dimensions %q: negative dimension %d", text, dim)
		}
		dims = append(dims, dim)
	}
	return dims, nil
}
