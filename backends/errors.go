package backends

import "github.com/pkg/errors"

// Sentinel errors thrown by backends. They don't contain a stack, backends wrap them with
// errors.Wrapf(ErrNotImplemented, "...") when using them, and callers check with errors.Is.
var (
	// ErrNotImplemented indicates the operator has no kernel on the backend, and falling back is not enabled.
	ErrNotImplemented = errors.New("operator not implemented")

	// ErrUnsupportedDType indicates the backend doesn't support the dtype of one of the inputs.
	ErrUnsupportedDType = errors.New("dtype not supported")

	// ErrUnknownOperator indicates the operator is not in the registry.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnavailable indicates the requested backend is not registered or not usable.
	ErrUnavailable = errors.New("backend not available")
)
