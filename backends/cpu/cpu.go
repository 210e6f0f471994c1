// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package cpu implements the reference backend: synchronous, with a kernel for every registered operator.
//
// It is registered as "cpu" and is the default reference backend (see backends.NewReference).
package cpu

import (
	"fmt"
	"strings"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/kernels"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/pkg/errors"
)

// BackendName to be used in PARITY_REFERENCE to specify this backend.
const BackendName = "cpu"

// DispatchKey under which the kernels of this backend are registered.
const DispatchKey = "CPU"

// Registers New() as the constructor for the "cpu" backend.
func init() {
	backends.Register(BackendName, New)
}

// New constructs a new reference Backend.
// There are no configurations, the string is simply ignored.
func New(_ string) backends.Backend {
	return NewBackend()
}

// NewBackend returns a new reference Backend, with the default operator registry.
func NewBackend() *Backend {
	return &Backend{registry: ops.Default()}
}

// Backend implements the backends.Backend interface.
type Backend struct {
	registry *ops.Registry
}

// Compile-time check that cpu.Backend implements backends.Backend.
var _ backends.Backend = &Backend{}

// Name returns the short name of the backend.
func (b *Backend) Name() string { return BackendName }

// String implements fmt.Stringer.
func (b *Backend) String() string { return BackendName }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	return "Reference CPU backend (synchronous, all operators)"
}

// DispatchKey implements backends.Backend.
func (b *Backend) DispatchKey() string { return DispatchKey }

// Registry implements backends.Backend.
func (b *Backend) Registry() *ops.Registry { return b.registry }

// IsAsync returns false: Execute only returns after the work is done.
func (b *Backend) IsAsync() bool { return false }

// Synchronize is a no-op.
func (b *Backend) Synchronize() {}

// Finalize implements backends.Backend.
func (b *Backend) Finalize() {}

// DispatchTable implements backends.Backend.
func (b *Backend) DispatchTable(q ops.Qualname) (string, error) {
	schema, err := b.registry.Lookup(q)
	if err != nil {
		return "", errors.Wrapf(backends.ErrUnknownOperator, "%s: %v", q, err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %s\nschema: %s\n\n", schema.Name, schema.Doc)
	if kernels.Has(q) {
		fmt.Fprintf(&sb, "%s: registered at cpu/kernels [kernel]\n", DispatchKey)
	}
	fmt.Fprintf(&sb, "BackendSelect: fallthrough registered at core/BackendSelectFallback [backend fallback]\n")
	fmt.Fprintf(&sb, "Autograd%s: fallthrough registered at core/VariableFallbackKernel [backend fallback]\n", DispatchKey)
	return sb.String(), nil
}

// Buffer of the reference backend: a host tensor.
type Buffer struct {
	tensor *tensors.Tensor
}

// Shape implements backends.Buffer.
func (buf *Buffer) Shape() shapes.Shape { return buf.tensor.Shape() }

// ToHost returns a copy of the buffer contents.
func (buf *Buffer) ToHost() *tensors.Tensor { return buf.tensor.Clone() }

// FromHost implements backends.Backend. The tensor is copied.
func (b *Backend) FromHost(t *tensors.Tensor) backends.Buffer {
	return &Buffer{tensor: t.Clone()}
}

// Execute the reference kernel of q synchronously.
func (b *Backend) Execute(q ops.Qualname, inputs []backends.Buffer, attrs ops.Attrs) []backends.Buffer {
	schema, err := b.registry.Lookup(q)
	if err != nil {
		panic(errors.Wrapf(backends.ErrUnknownOperator, "cpu: %v", err))
	}
	hostInputs := make([]*tensors.Tensor, len(inputs))
	for ii, input := range inputs {
		if buf, ok := input.(*Buffer); ok {
			// Kernels may write into "out" arguments, so no copy here.
			hostInputs[ii] = buf.tensor
		} else {
			hostInputs[ii] = input.ToHost()
		}
	}
	outputs := kernels.Run(schema, hostInputs, attrs)
	results := make([]backends.Buffer, len(outputs))
	for ii, output := range outputs {
		results[ii] = &Buffer{tensor: output}
	}
	return results
}
