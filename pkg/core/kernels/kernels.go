// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kernels implements every built-in operator (see ops.Default) on host tensors.
//
// These are the reference implementations: the CPU backend executes them directly, and the
// accelerator backend reuses them for its native kernels (on its own work queue) and for the
// fallback path.
//
// Like the backends, kernels throw (panic) with an error on invalid input, see
// package github.com/gomlx/exceptions.
package kernels

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

// Kernel computes the outputs of an operator given its tensor inputs and attributes.
type Kernel func(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor

var table = map[string]Kernel{
	"aten::add.Tensor":               execAdd,
	"aten::mul.Tensor":               execMul,
	"aten::relu.default":             execRelu,
	"aten::sum.default":              execSum,
	"aten::sum.dim_IntList":          execSumDims,
	"aten::amax.default":             execAmax,
	"aten::amin.default":             execAmin,
	"aten::cumsum.default":           execCumsum,
	"aten::cumsum.out":               execCumsumOut,
	"aten::cummin.default":           execCummin,
	"aten::cummin.out":               execCumminOut,
	"aten::index_select.default":     execIndexSelect,
	"aten::gather.default":           execGather,
	"aten::_softmax.default":         execSoftmax,
	"aten::softmax.int":              execSoftmax,
	"aten::layer_norm.default":       execLayerNorm,
	"aten::topk.default":             execTopK,
	"aten::conv3d.default":           execConv3D,
	"aten::_linalg_eigh.default":     execEigh,
	"aten::_linalg_eigh.eigenvalues": execEigvalsh,
	"aten::linalg_eigh.default":      execEigh,
	"aten::linalg_qr.default":        execQR,
	"aten::unique_dim.default":       execUniqueDim,
}

// Lookup returns the kernel for q.
func Lookup(q ops.Qualname) (Kernel, bool) {
	k, found := table[q.String()]
	return k, found
}

// Has returns whether there is a kernel for q.
func Has(q ops.Qualname) bool {
	_, found := table[q.String()]
	return found
}

// Run looks up and executes the kernel for q, checking the number of inputs against the schema.
// It panics if there is no kernel or the inputs don't match.
func Run(schema *ops.Schema, inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	k, found := Lookup(schema.Name)
	if !found {
		exceptions.Panicf("no kernel for %s", schema.Name)
	}
	if len(inputs) != schema.NumInputs {
		exceptions.Panicf("%s: got %d inputs, wanted %d", schema.Name, len(inputs), schema.NumInputs)
	}
	return k(inputs, attrs)
}

// axisSplit splits dims around axis into (outer, n, inner) sizes, such that the flat index
// of (o, i, j) is (o*n+i)*inner+j.
func axisSplit(dims []int, axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for ii, dim := range dims {
		switch {
		case ii < axis:
			outer *= dim
		case ii > axis:
			inner *= dim
		}
	}
	return outer, dims[axis], inner
}

func requireFloat(name string, dtype dtypes.DType) {
	if !dtype.IsFloat() {
		exceptions.Panicf("%s: requires a floating point dtype, got %s", name, dtype)
	}
}

func requireRank(name string, x *tensors.Tensor, rank int) {
	if x.Shape().Rank() != rank {
		exceptions.Panicf("%s: expected a rank-%d tensor, got shape %s", name, rank, x.Shape())
	}
}
