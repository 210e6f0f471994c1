// Package backends defines the interface a computation backend needs to implement to be evaluated
// for operator coverage and performance parity.
//
// There are two roles for a backend: the "reference" backend (usually "cpu"), which is expected to
// implement every registered operator, and the "accelerator" backend under evaluation, which may
// implement only part of the operators natively and fall back to the reference kernels for the rest.
//
// To simplify error handling, Execute and FromHost are expected to throw (panic) with an error
// in case of errors. See package github.com/gomlx/exceptions.
package backends

import (
	"os"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/gomlx/opparity/pkg/support/xslices"
	"github.com/pkg/errors"
)

// Backend is the API that needs to be implemented by a backend.
type Backend interface {
	// Name returns the short name of the backend. E.g.: "cpu" or "accel".
	Name() string

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// DispatchKey is the routing key the backend registers its kernels under (e.g.: "CPU", "Accel").
	// Lines of DispatchTable mentioning it refer to this backend.
	DispatchKey() string

	// Registry returns the operator registry known to the backend.
	Registry() *ops.Registry

	// DispatchTable returns a human-readable dump of the routing entries registered for the operator q,
	// one "<Key>: <description>" entry per line.
	//
	// It returns an error wrapping ErrUnknownOperator if q is not registered.
	DispatchTable(q ops.Qualname) (string, error)

	// FromHost transfers a host tensor to the backend.
	FromHost(t *tensors.Tensor) Buffer

	// Execute the operator q on the given inputs. The outputs may not be ready when it returns,
	// if the backend is asynchronous (see IsAsync and Synchronize).
	Execute(q ops.Qualname, inputs []Buffer, attrs ops.Attrs) []Buffer

	// Synchronize blocks until all work previously submitted to the backend is finished.
	// Errors of asynchronous work are thrown here.
	Synchronize()

	// IsAsync returns whether Execute may return before the work is done.
	IsAsync() bool

	// Finalize releases all the associated resources immediately, and makes the backend invalid.
	Finalize()
}

// Constructor takes a config string (optionally empty) and returns a Backend.
type Constructor func(config string) Backend

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register backend with the given name, and a default constructor that takes as input a configuration string that is
// passed along to the backend constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// Available returns whether a backend with the given name was registered.
func Available(name string) bool {
	_, found := registeredConstructors[name]
	return found
}

// List returns the names of the registered backends, sorted.
func List() []string {
	return xslices.SortedKeys(registeredConstructors)
}

const (
	// PARITY_ACCELERATOR is the environment variable with the configuration of the accelerator backend to evaluate.
	//
	// The format of config is "<backend_name>:<backend_configuration>", see NewWithConfig.
	PARITY_ACCELERATOR = "PARITY_ACCELERATOR"

	// PARITY_REFERENCE is the environment variable with the configuration of the reference backend.
	PARITY_REFERENCE = "PARITY_REFERENCE"

	// PARITY_ENABLE_ACCEL_FALLBACK enables the accelerator to fall back to the reference kernels
	// for operators it doesn't implement natively, if set to "1".
	//
	// It is read at every dispatch, so it can be toggled at any time (see internal/scoped).
	PARITY_ENABLE_ACCEL_FALLBACK = "PARITY_ENABLE_ACCEL_FALLBACK"
)

var (
	// DefaultAccelerator is the configuration used by NewAccelerator if PARITY_ACCELERATOR is not set.
	DefaultAccelerator = "accel"

	// DefaultReference is the configuration used by NewReference if PARITY_REFERENCE is not set.
	DefaultReference = "cpu"
)

// FallbackEnabled returns whether the PARITY_ENABLE_ACCEL_FALLBACK environment variable is currently set to "1".
func FallbackEnabled() bool {
	return os.Getenv(PARITY_ENABLE_ACCEL_FALLBACK) == "1"
}

// New returns the first registered backend with an empty configuration.
//
// It panics if no backend was registered.
func New() Backend {
	return NewWithConfig("")
}

// NewAccelerator returns the accelerator backend: configured by PARITY_ACCELERATOR if set, or DefaultAccelerator.
func NewAccelerator() Backend {
	if config, found := os.LookupEnv(PARITY_ACCELERATOR); found {
		return NewWithConfig(config)
	}
	return NewWithConfig(DefaultAccelerator)
}

// NewReference returns the reference backend: configured by PARITY_REFERENCE if set, or DefaultReference.
func NewReference() Backend {
	if config, found := os.LookupEnv(PARITY_REFERENCE); found {
		return NewWithConfig(config)
	}
	return NewWithConfig(DefaultReference)
}

// NewWithConfig takes a configuration string formatted as "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "accel") and
// "<backend_configuration>" is backend specific.
//
// It panics with an error wrapping ErrUnavailable if the backend is not registered.
func NewWithConfig(config string) Backend {
	if len(registeredConstructors) == 0 {
		panic(errors.Wrapf(ErrUnavailable,
			`no registered backends -- maybe import the default ones with import _ "github.com/gomlx/opparity/backends/default"?`))
	}
	backendName := firstRegistered
	backendConfig := ""
	if config != "" {
		backendName = config
		if idx := strings.Index(config, ":"); idx != -1 {
			backendName = config[:idx]
			backendConfig = config[idx+1:]
		}
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		panic(errors.Wrapf(ErrUnavailable, "can't find backend %q for configuration %q given, registered backends: %v",
			backendName, config, List()))
	}
	return constructor(backendConfig)
}

// TryNewWithConfig is like NewWithConfig, but returns an error instead of panicking.
func TryNewWithConfig(config string) (backend Backend, err error) {
	err = exceptions.TryCatch[error](func() { backend = NewWithConfig(config) })
	return
}

// HasDispatchKey returns whether any line of the dispatch table mentions key.
func HasDispatchKey(table, key string) bool {
	return slices.ContainsFunc(strings.Split(table, "\n"), func(line string) bool {
		return strings.Contains(line, key)
	})
}
