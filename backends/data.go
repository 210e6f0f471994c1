package backends

import (
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
)

// Buffer represents actual data (a tensor) stored in the backend. It's used as input/output of Execute.
//
// For asynchronous backends the contents of a Buffer may not be ready when Execute returns.
type Buffer interface {
	// Shape of the buffer. For asynchronous backends it may wait for the buffer to be ready.
	Shape() shapes.Shape

	// ToHost waits for the buffer to be ready and returns a copy of its contents.
	// It panics if the computation that produces the buffer failed.
	ToHost() *tensors.Tensor
}

// ToHost transfers all buffers to host.
func ToHost(buffers []Buffer) []*tensors.Tensor {
	results := make([]*tensors.Tensor, len(buffers))
	for ii, buf := range buffers {
		results[ii] = buf.ToHost()
	}
	return results
}

// FromHost transfers all tensors to the backend.
func FromHost(backend Backend, inputs []*tensors.Tensor) []Buffer {
	buffers := make([]Buffer, len(inputs))
	for ii, t := range inputs {
		buffers[ii] = backend.FromHost(t)
	}
	return buffers
}
