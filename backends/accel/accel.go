// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package accel implements a simulated accelerator backend with partial operator coverage.
//
// Kernels run asynchronously on the accelerator's command queue (one worker goroutine), and
// Backend.Synchronize blocks until the queue is drained. Only the operators and dtypes in Capabilities
// have native kernels. For the other operators, if the environment variable
// backends.PARITY_ENABLE_ACCEL_FALLBACK is set to "1" (read at every dispatch), the backend synchronizes,
// copies the inputs to the host, runs the reference kernel, uploads the outputs and emits an advisory
// notice (see package advisory) saying the operator "will fall back to run on the CPU". If fallback
// is not enabled, Execute throws an error wrapping backends.ErrNotImplemented.
//
// Configuration is a comma separated list of options (e.g.: "accel:latency=20us,transfer=100us"):
//
//   - latency=<duration>: simulated launch latency of each native kernel.
//   - transfer=<duration>: simulated cost of each host<->device transfer on the fallback path.
//   - sync: run kernels inline, making the backend synchronous.
//   - native=<qualname>: add a native kernel for the operator. Can be repeated.
//   - missing=<qualname>: remove the native kernel of the operator. Can be repeated.
package accel

import (
	"strings"
	"sync"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BackendName to be used in PARITY_ACCELERATOR to specify this backend.
const BackendName = "accel"

// DispatchKey under which the native kernels of this backend are registered.
const DispatchKey = "Accel"

// Registers New() as the constructor for the "accel" backend.
func init() {
	backends.Register(BackendName, New)
}

// New constructs a new accelerator Backend with the given configuration. See package documentation for options.
func New(config string) backends.Backend {
	b, err := NewBackend(config)
	if err != nil {
		panic(err)
	}
	return b
}

// Backend implements the backends.Backend interface.
type Backend struct {
	registry     *ops.Registry
	capabilities backends.Capabilities
	latency      time.Duration
	transfer     time.Duration
	async        bool

	queue *queue

	muStats sync.Mutex
	stats   backends.Stats

	muFinalized sync.Mutex
	finalized   bool
}

// Compile-time checks.
var (
	_ backends.Backend       = &Backend{}
	_ backends.StatsReporter = &Backend{}
)

// NewBackend parses the configuration and returns a new accelerator Backend.
func NewBackend(config string) (*Backend, error) {
	b := &Backend{
		registry:     ops.Default(),
		capabilities: Capabilities.Clone(),
		async:        true,
	}
	for _, option := range strings.Split(config, ",") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		key, value, _ := strings.Cut(option, "=")
		var err error
		switch key {
		case "latency":
			b.latency, err = time.ParseDuration(value)
		case "transfer":
			b.transfer, err = time.ParseDuration(value)
		case "sync":
			b.async = false
		case "native", "missing":
			var q ops.Qualname
			q, err = ops.Parse(value)
			if err == nil && !b.registry.Has(q) {
				err = errors.Wrapf(backends.ErrUnknownOperator, "%s", q)
			}
			if err == nil {
				b.capabilities.Operations[q.String()] = key == "native"
			}
		default:
			err = errors.New("unknown option")
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "accel: invalid configuration option %q in %q", option, config)
		}
	}
	if b.async {
		b.queue = newQueue()
	}
	resetStats(&b.stats)
	klog.V(1).Infof("accel backend created: async=%v, latency=%s, transfer=%s", b.async, b.latency, b.transfer)
	return b, nil
}

// Name returns the short name of the backend.
func (b *Backend) Name() string { return BackendName }

// String implements fmt.Stringer.
func (b *Backend) String() string { return BackendName }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	mode := "asynchronous"
	if !b.async {
		mode = "synchronous"
	}
	return "Simulated accelerator (" + mode + ", partial operator coverage, CPU fallback)"
}

// DispatchKey implements backends.Backend.
func (b *Backend) DispatchKey() string { return DispatchKey }

// Registry implements backends.Backend.
func (b *Backend) Registry() *ops.Registry { return b.registry }

// Capabilities returns information about what is natively supported by this backend.
func (b *Backend) Capabilities() backends.Capabilities { return b.capabilities }

// IsAsync returns whether kernels are executed asynchronously.
func (b *Backend) IsAsync() bool { return b.async }

// Pending returns the number of kernels submitted to the command queue that haven't finished yet.
func (b *Backend) Pending() int {
	if b.queue == nil {
		return 0
	}
	return b.queue.pending.Count()
}

// Synchronize blocks until all submitted kernels finished. It throws the first error of
// an asynchronous kernel since the last call.
func (b *Backend) Synchronize() {
	b.checkOk()
	if b.queue == nil {
		return
	}
	if err := b.queue.synchronize(); err != nil {
		panic(err)
	}
}

// Finalize stops the command queue, after draining it. The backend can't be used afterwards.
func (b *Backend) Finalize() {
	b.muFinalized.Lock()
	defer b.muFinalized.Unlock()
	if b.finalized {
		return
	}
	b.finalized = true
	if b.queue != nil {
		b.queue.close()
	}
}

func (b *Backend) checkOk() {
	b.muFinalized.Lock()
	defer b.muFinalized.Unlock()
	if b.finalized {
		exceptions.Panicf("accel: backend used after Finalize()")
	}
}

// spin busy-waits for d, sleeping would be too coarse for the microsecond latencies simulated.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
