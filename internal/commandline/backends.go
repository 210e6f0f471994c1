package commandline

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"k8s.io/klog/v2"
)

// MustBackends creates the reference and accelerator backends from their configurations. Empty
// configurations use the PARITY_REFERENCE and PARITY_ACCELERATOR environment variables, or the defaults.
//
// It exits the program with klog.Fatalf if either backend is not available: there is nothing to measure.
func MustBackends(referenceConfig, acceleratorConfig string) (reference, accelerator backends.Backend) {
	return MustReference(referenceConfig), MustAccelerator(acceleratorConfig)
}

// MustAccelerator creates the accelerator backend, see MustBackends.
func MustAccelerator(config string) backends.Backend {
	accelerator, err := newBackend(config, backends.NewAccelerator)
	if err != nil {
		klog.Fatalf("Accelerator backend not available: %+v", err)
	}
	klog.V(1).Infof("Accelerator: %s", accelerator.Description())
	return accelerator
}

// MustReference creates the reference backend, see MustBackends.
func MustReference(config string) backends.Backend {
	reference, err := newBackend(config, backends.NewReference)
	if err != nil {
		klog.Fatalf("Reference backend not available: %+v", err)
	}
	return reference
}

func newBackend(config string, fromEnv func() backends.Backend) (backend backends.Backend, err error) {
	if config != "" {
		return backends.TryNewWithConfig(config)
	}
	err = exceptions.TryCatch[error](func() { backend = fromEnv() })
	return
}
