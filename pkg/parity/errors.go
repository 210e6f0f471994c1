package parity

import (
	"fmt"

	"github.com/gomlx/opparity/pkg/core/ops"
)

// ConstructionError means the inputs of an invocation could not be built for the requested case
// (e.g. a non-square matrix for a decomposition, or a dtype the backend doesn't support).
type ConstructionError struct {
	Op   ops.Qualname
	Case string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("building %s for %s: %v", e.Op, e.Case, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ConstructionError) Unwrap() error { return e.Err }

// Cause implements github.com/pkg/errors causer.
func (e *ConstructionError) Cause() error { return e.Err }

// ExecutionError means the invocation failed when run.
type ExecutionError struct {
	Op  ops.Qualname
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Cause implements github.com/pkg/errors causer.
func (e *ExecutionError) Cause() error { return e.Err }

// ClassificationError means the dispatch table of an operator could not be read.
type ClassificationError struct {
	Op  ops.Qualname
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ClassificationError) Unwrap() error { return e.Err }

// Cause implements github.com/pkg/errors causer.
func (e *ClassificationError) Cause() error { return e.Err }

// RetrievalError means the candidate mentions could not be retrieved.
type RetrievalError struct {
	Source string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving mentions from %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *RetrievalError) Unwrap() error { return e.Err }

// Cause implements github.com/pkg/errors causer.
func (e *RetrievalError) Cause() error { return e.Err }
