// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dtypes includes the DType enum for the element types the parity engine benchmarks with.
//
// Values are always carried as float64 on the host, and DType.Round is used to store them with the
// precision the dtype would have on a device.
package dtypes

import (
	"math"
	"strings"

	"github.com/gomlx/opparity/pkg/core/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DType is the element type of a tensor.
type DType int

const (
	InvalidDType DType = iota
	Bool
	Int32
	Int64
	Float16
	BFloat16
	Float32
	Float64
)

var dtypeNames = []string{
	InvalidDType: "InvalidDType",
	Bool:         "Bool",
	Int32:        "Int32",
	Int64:        "Int64",
	Float16:      "Float16",
	BFloat16:     "BFloat16",
	Float32:      "Float32",
	Float64:      "Float64",
}

// MapOfNames maps names (and lower-case aliases) to DTypes.
// The lower-case names match the ones used in target documents ("float16", "float32", ...).
var MapOfNames = map[string]DType{
	"half":   Float16,
	"float":  Float32,
	"double": Float64,
	"long":   Int64,
	"int":    Int32,
}

func init() {
	for dtype, name := range dtypeNames {
		if DType(dtype) == InvalidDType {
			continue
		}
		MapOfNames[name] = DType(dtype)
		MapOfNames[strings.ToLower(name)] = DType(dtype)
	}
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	if dtype < 0 || int(dtype) >= len(dtypeNames) {
		return "InvalidDType"
	}
	return dtypeNames[dtype]
}

// Name returns the lower-case name used in target documents and result files, e.g. "float16".
func (dtype DType) Name() string {
	return strings.ToLower(dtype.String())
}

// FromName parses a dtype name, case-insensitive.
func FromName(name string) (DType, error) {
	if dtype, found := MapOfNames[strings.TrimSpace(name)]; found {
		return dtype, nil
	}
	if dtype, found := MapOfNames[strings.ToLower(strings.TrimSpace(name))]; found {
		return dtype, nil
	}
	return InvalidDType, errors.Errorf("unknown dtype %q", name)
}

// FromNames parses a list of dtype names.
func FromNames(names []string) ([]DType, error) {
	dts := make([]DType, 0, len(names))
	for _, name := range names {
		dtype, err := FromName(name)
		if err != nil {
			return nil, err
		}
		dts = append(dts, dtype)
	}
	return dts, nil
}

// IsFloat returns whether dtype is a floating point type.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == BFloat16 || dtype == Float32 || dtype == Float64
}

// IsHalf returns whether dtype is one of the 16 bits floating point types.
func (dtype DType) IsHalf() bool {
	return dtype == Float16 || dtype == BFloat16
}

// Size returns the number of bytes used by one element.
func (dtype DType) Size() int {
	switch dtype {
	case Bool:
		return 1
	case Float16, BFloat16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Round returns v as it would be stored in the given dtype.
func (dtype DType) Round(v float64) float64 {
	switch dtype {
	case Bool:
		if v != 0 {
			return 1
		}
		return 0
	case Int32:
		return float64(int32(v))
	case Int64:
		return float64(int64(v))
	case Float16:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	case BFloat16:
		return float64(bfloat16.FromFloat64(v).Float32())
	case Float32:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return v
		}
		return float64(float32(v))
	default:
		return v
	}
}
