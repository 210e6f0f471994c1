package accel

import (
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Buffer is the device memory of the accelerator: its contents are set by the worker when the
// kernel producing it finishes, and ready is closed.
type Buffer struct {
	ready  chan struct{}
	tensor *tensors.Tensor
	err    error
}

func newPendingBuffer() *Buffer {
	return &Buffer{ready: make(chan struct{})}
}

func newReadyBuffer(t *tensors.Tensor) *Buffer {
	buf := &Buffer{ready: make(chan struct{}), tensor: t}
	close(buf.ready)
	return buf
}

// resolve sets the buffer contents, or the error of the kernel that should have produced it.
func (buf *Buffer) resolve(t *tensors.Tensor, err error) {
	buf.tensor, buf.err = t, err
	close(buf.ready)
}

// wait for the buffer to be ready, and panics if the kernel that produced it failed.
func (buf *Buffer) wait() *tensors.Tensor {
	<-buf.ready
	if buf.err != nil {
		panic(buf.err)
	}
	return buf.tensor
}

// Shape implements backends.Buffer. It waits for the buffer to be ready.
func (buf *Buffer) Shape() shapes.Shape {
	return buf.wait().Shape()
}

// ToHost implements backends.Buffer: it waits for the buffer and returns a copy of its contents.
func (buf *Buffer) ToHost() *tensors.Tensor {
	return buf.wait().Clone()
}

// FromHost uploads the tensor to the device. It throws an error wrapping backends.ErrUnsupportedDType
// if the dtype is not supported by the device.
func (b *Backend) FromHost(t *tensors.Tensor) backends.Buffer {
	b.checkOk()
	if !b.capabilities.SupportsDType(t.DType()) {
		panic(errors.Wrapf(backends.ErrUnsupportedDType,
			"cannot convert a tensor to the %s dtype, the accel device doesn't support it", t.DType()))
	}
	return newReadyBuffer(t.Clone())
}

// deviceTensor returns the tensor behind an input buffer, without copying if it is an accel Buffer.
func deviceTensor(input backends.Buffer) *tensors.Tensor {
	if buf, ok := input.(*Buffer); ok {
		return buf.wait()
	}
	return input.ToHost()
}
