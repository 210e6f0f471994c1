package accel

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/kernels"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/gomlx/opparity/pkg/support/advisory"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FallbackPhrase is contained in every advisory notice emitted when an operator falls back to the CPU.
const FallbackPhrase = "will fall back to run on the CPU"

// FallbackNotice returns the advisory message emitted when operator q falls back to the CPU.
func FallbackNotice(q ops.Qualname) string {
	return fmt.Sprintf("The operator '%s' is not currently supported on the accel device; it %s. "+
		"This may have performance implications.", q, FallbackPhrase)
}

// HasNativeKernel returns whether the operator q runs natively on the accelerator: either it has a native
// kernel, or it is a composite of an operator that has one.
func (b *Backend) HasNativeKernel(q ops.Qualname) bool {
	name := q.String()
	if native, found := b.capabilities.Operations[name]; found {
		return native
	}
	if target, found := Composites[name]; found {
		return b.capabilities.Operations[target]
	}
	return false
}

// Execute dispatches the operator q: to the native kernel on the command queue if there is one,
// otherwise to the CPU fallback, if enabled.
func (b *Backend) Execute(q ops.Qualname, inputs []backends.Buffer, attrs ops.Attrs) []backends.Buffer {
	b.checkOk()
	schema, err := b.registry.Lookup(q)
	if err != nil {
		panic(errors.Wrapf(backends.ErrUnknownOperator, "accel: %v", err))
	}
	if len(inputs) != schema.NumInputs {
		exceptions.Panicf("accel: %s got %d inputs, wanted %d", q, len(inputs), schema.NumInputs)
	}
	if b.HasNativeKernel(q) {
		b.count(q, false)
		return b.executeNative(schema, inputs, attrs)
	}
	if !backends.FallbackEnabled() {
		panic(errors.Wrapf(backends.ErrNotImplemented,
			"the operator '%s' is not currently implemented for the accel device; as a temporary fix, "+
				"you can set the environment variable `%s=1` to use the CPU as a fallback for this op",
			q, backends.PARITY_ENABLE_ACCEL_FALLBACK))
	}
	b.count(q, true)
	return b.executeFallback(schema, inputs, attrs)
}

// executeNative enqueues the kernel and returns pending buffers.
func (b *Backend) executeNative(schema *ops.Schema, inputs []backends.Buffer, attrs ops.Attrs) []backends.Buffer {
	outputs := make([]*Buffer, schema.NumOutputs)
	for ii := range outputs {
		outputs[ii] = newPendingBuffer()
	}
	task := func() error {
		var results []*tensors.Tensor
		err := exceptions.TryCatch[error](func() {
			deviceInputs := make([]*tensors.Tensor, len(inputs))
			for ii, input := range inputs {
				deviceInputs[ii] = deviceTensor(input)
			}
			spin(b.latency)
			results = kernels.Run(schema, deviceInputs, attrs)
		})
		if err != nil {
			err = errors.WithMessagef(err, "accel: kernel %s failed", schema.Name)
		}
		for ii, output := range outputs {
			if err != nil {
				output.resolve(nil, err)
			} else {
				output.resolve(results[ii], nil)
			}
		}
		return err
	}
	if b.queue == nil {
		if err := task(); err != nil {
			panic(err)
		}
	} else {
		b.queue.submit(task)
	}
	results := make([]backends.Buffer, len(outputs))
	for ii, output := range outputs {
		results[ii] = output
	}
	return results
}

// executeFallback runs the reference kernel on the host, synchronously.
func (b *Backend) executeFallback(schema *ops.Schema, inputs []backends.Buffer, attrs ops.Attrs) []backends.Buffer {
	advisory.Emit(advisory.CategoryFallback, FallbackNotice(schema.Name))
	klog.V(2).Infof("accel: %s falling back to the CPU", schema.Name)

	// Inputs may still be being computed.
	b.Synchronize()
	hostInputs := make([]*tensors.Tensor, len(inputs))
	for ii, input := range inputs {
		hostInputs[ii] = input.ToHost()
		spin(b.transfer)
	}
	outputs := kernels.Run(schema, hostInputs, attrs)
	results := make([]backends.Buffer, len(outputs))
	for ii, output := range outputs {
		spin(b.transfer)
		// "out" arguments are copied back to their device buffers.
		if idx := slices.Index(hostInputs, output); idx >= 0 {
			if buf, ok := inputs[idx].(*Buffer); ok {
				buf.wait().CopyFrom(output)
				results[ii] = buf
				continue
			}
		}
		results[ii] = newReadyBuffer(output)
	}
	return results
}
