// Package capability classifies operators as natively implemented on a backend or not, from the routing
// metadata (the dispatch table) of the backend, without running anything.
package capability

import (
	"strings"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"k8s.io/klog/v2"
)

// Verdict of the static classification of an operator.
type Verdict int

const (
	// Unknown means the dispatch table could not be read.
	Unknown Verdict = iota

	// NativelyImplemented means there is a concrete kernel registered for the accelerator.
	NativelyImplemented

	// Fallback means the accelerator has no concrete kernel: only pass-through entries, or none at all.
	Fallback
)

var verdictNames = []string{"unknown", "natively_implemented", "fallback"}

// String implements fmt.Stringer.
func (v Verdict) String() string {
	if v < 0 || int(v) >= len(verdictNames) {
		return verdictNames[Unknown]
	}
	return verdictNames[v]
}

// ParseVerdict is the inverse of Verdict.String. Unrecognized names return Unknown.
func ParseVerdict(name string) Verdict {
	for ii, verdictName := range verdictNames {
		if name == verdictName {
			return Verdict(ii)
		}
	}
	return Unknown
}

// DefaultMarkers mark dispatch table lines that don't constitute a concrete kernel, when found in
// the lowercased line.
var DefaultMarkers = []string{"fallback", "fallthrough", "composite", "backendselect", "autograd"}

// Classifier reads the dispatch table of the accelerator backend.
type Classifier struct {
	backend backends.Backend

	// Key is the dispatch key of the accelerator. Defaults to the backend's DispatchKey.
	Key string

	// Markers of lines to skip. Defaults to DefaultMarkers.
	Markers []string
}

// New creates a Classifier for the accelerator backend.
func New(backend backends.Backend) *Classifier {
	return &Classifier{
		backend: backend,
		Key:     backend.DispatchKey(),
		Markers: DefaultMarkers,
	}
}

// Classify returns the verdict for operator q. It never panics: failures to read the dispatch table
// are logged and return Unknown.
func (c *Classifier) Classify(q ops.Qualname) Verdict {
	verdict, err := c.TryClassify(q)
	if err != nil {
		klog.V(1).Infof("capability: %v", err)
	}
	return verdict
}

// TryClassify is like Classify, but also returns the ClassificationError if the verdict is Unknown.
func (c *Classifier) TryClassify(q ops.Qualname) (Verdict, error) {
	table, err := c.backend.DispatchTable(q)
	if err != nil {
		return Unknown, &parity.ClassificationError{Op: q, Err: err}
	}
	return ClassifyTable(table, c.Key, c.Markers), nil
}

// ClassifyAll classifies each of the operators.
func (c *Classifier) ClassifyAll(qs []ops.Qualname) map[ops.Qualname]Verdict {
	verdicts := make(map[ops.Qualname]Verdict, len(qs))
	for _, q := range qs {
		verdicts[q] = c.Classify(q)
	}
	return verdicts
}

// ClassifyTable applies the classification rules to a dispatch table dump:
//
//   - No line mentions key: Fallback.
//   - Lines mentioning key that contain any of the markers (case-insensitive) are skipped.
//   - Any line not skipped: NativelyImplemented. If all were skipped: Fallback.
func ClassifyTable(table, key string, markers []string) Verdict {
	if !backends.HasDispatchKey(table, key) {
		return Fallback
	}
	for _, line := range strings.Split(table, "\n") {
		if !strings.Contains(line, key) {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, marker := range markers {
			if strings.Contains(lower, marker) {
				skip = true
				break
			}
		}
		if !skip {
			return NativelyImplemented
		}
	}
	return Fallback
}
