// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package parity holds the types shared by the operator capability and performance parity engine:
// the Invocation of an operator on a backend, and the error taxonomy.
//
// The engine itself is split in sub-packages:
//
//   - capability: static classification of operators from the backend dispatch table.
//   - fallback: dynamic confirmation of fallbacks, by running an Invocation and observing advisory notices.
//   - timing: robust latency measurement of an Invocation.
//   - invocations: factories that build Invocations for an operator, a shape and a dtype.
//   - matrix: runs the (operator, shape, dtype) matrix on the accelerator and the reference backends.
//   - priority: aggregates community demand into a priority score per operator.
//
// And collaborators: targets (operator lists), results (CSV export), report (summaries) and coverage (scans).
package parity

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/ops"
)

// Invocation is a self-contained, repeatable call of an operator on a backend, with inputs already
// transferred to the backend. It can be run any number of times.
type Invocation struct {
	// Op being invoked.
	Op ops.Qualname

	// Backend where the invocation runs.
	Backend backends.Backend

	// Case describes the shape and dtype of the invocation, e.g. "[64, 1024] float16".
	Case string

	// Policy describes a substitution applied when building the invocation (e.g. a dtype promotion),
	// or is empty if the requested case was used as is.
	Policy string

	fn func()
}

// NewInvocation creates an Invocation that calls fn. fn may panic with an error.
func NewInvocation(op ops.Qualname, backend backends.Backend, fn func()) *Invocation {
	return &Invocation{Op: op, Backend: backend, fn: fn}
}

// ExecuteInvocation creates an Invocation that executes op on the given buffers of backend.
// The outputs are discarded.
func ExecuteInvocation(op ops.Qualname, backend backends.Backend, inputs []backends.Buffer, attrs ops.Attrs) *Invocation {
	return NewInvocation(op, backend, func() {
		backend.Execute(op, inputs, attrs)
	})
}

// Call runs the invocation once. It panics if the invocation fails. For asynchronous backends
// the work may not be finished when it returns, see Synchronize.
func (inv *Invocation) Call() {
	inv.fn()
}

// Synchronize waits for the work submitted by the invocation, if the backend is asynchronous.
// Errors of the asynchronous work are thrown here.
func (inv *Invocation) Synchronize() {
	if inv.Backend != nil && inv.Backend.IsAsync() {
		inv.Backend.Synchronize()
	}
}

// Try calls the invocation and synchronizes, and returns an ExecutionError if anything failed.
func (inv *Invocation) Try() error {
	err := exceptions.TryCatch[error](func() {
		inv.Call()
		inv.Synchronize()
	})
	if err != nil {
		return &ExecutionError{Op: inv.Op, Err: err}
	}
	return nil
}

// String implements fmt.Stringer.
func (inv *Invocation) String() string {
	backendName := "?"
	if inv.Backend != nil {
		backendName = inv.Backend.Name()
	}
	if inv.Case == "" {
		return fmt.Sprintf("%s@%s", inv.Op, backendName)
	}
	return fmt.Sprintf("%s(%s)@%s", inv.Op, inv.Case, backendName)
}

// MaxErrorLength is the number of characters of errors kept in results.
const MaxErrorLength = 200

// Truncate s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TruncateError returns the error text truncated to MaxErrorLength, or "" if err is nil.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error(), MaxErrorLength)
}

// Bool returns a pointer to v, for the optional (tri-state) booleans of results.
func Bool(v bool) *bool {
	return &v
}

// Float returns a pointer to v, for optional values of results.
func Float(v float64) *float64 {
	return &v
}
