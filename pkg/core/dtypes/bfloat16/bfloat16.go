// Package bfloat16 is a small implementation of the bfloat16 type, used to round values
// computed in float64 to what a bfloat16 kernel would store.
//
// It follows github.com/x448/float16 in spirit, but only implements what the kernels need.
package bfloat16

import (
	"math"
	"strconv"
)

// BFloat16 (brain floating point) is the upper 16 bits of an IEEE 754 float32:
// same exponent range as float32, only 7 bits of mantissa.
type BFloat16 uint16

// Float32 converts the BFloat16 back to a float32, exactly.
func (f BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(f) << 16)
}

// FromFloat32 converts a float32 to a BFloat16, rounding to the nearest even value.
// NaN values are kept as (quiet) NaN.
func FromFloat32(x float32) BFloat16 {
	bits := math.Float32bits(x)
	if x != x {
		return BFloat16(bits>>16 | 0x0040)
	}
	lsb := (bits >> 16) & 1
	bits += 0x7FFF + lsb
	return BFloat16(bits >> 16)
}

// FromFloat64 converts a float64 to a BFloat16.
func FromFloat64(x float64) BFloat16 {
	return FromFloat32(float32(x))
}

// Bits returns the raw representation.
func (f BFloat16) Bits() uint16 {
	return uint16(f)
}

// String implements fmt.Stringer.
func (f BFloat16) String() string {
	return strconv.FormatFloat(float64(f.Float32()), 'f', -1, 32)
}
