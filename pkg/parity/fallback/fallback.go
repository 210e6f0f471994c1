// Package fallback confirms dynamically whether an operator falls back to the CPU: it runs an invocation
// with the fallback flag set or unset, and observes the advisory notices emitted meanwhile.
package fallback

import (
	"strings"

	"github.com/gomlx/opparity/internal/scoped"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/gomlx/opparity/pkg/support/advisory"
	"k8s.io/klog/v2"
)

// DefaultPhrase identifies the fallback notice among the advisory messages.
const DefaultPhrase = "will fall back to run on the CPU"

// Detection is the result of running an invocation once.
type Detection struct {
	// Executed is true if the invocation ran to completion.
	Executed bool

	// Observed is true if a fallback notice was emitted, false if it is known there was no fallback
	// (the invocation succeeded with fallback disabled), and nil if it can't be told.
	Observed *bool

	// Err is the error of the invocation, if it failed.
	Err error
}

// Detector runs invocations intercepting advisory notices.
type Detector struct {
	// Phrase identifies the fallback notice. Defaults to DefaultPhrase.
	Phrase string
}

// New returns a Detector with the default phrase.
func New() *Detector {
	return &Detector{Phrase: DefaultPhrase}
}

// Detect runs inv exactly once, with the fallback flag set to fallbackEnabled, and reports whether it
// executed and whether a fallback notice was observed.
//
// The fallback flag and the advisory handler are restored on every exit path. Failures of the
// invocation (including asynchronous ones, surfaced by synchronizing) are reported in Detection.Err.
func (d *Detector) Detect(inv *parity.Invocation, fallbackEnabled bool) (detection Detection) {
	recorder := &advisory.Recorder{}
	func() {
		defer scoped.Fallback(fallbackEnabled)()
		defer scoped.Intercept(recorder.Handle)()
		detection.Err = inv.Try()
	}()
	detection.Executed = detection.Err == nil

	matched := false
	for _, message := range recorder.Messages() {
		if strings.Contains(message, d.Phrase) {
			matched = true
			break
		}
	}
	switch {
	case matched:
		detection.Observed = parity.Bool(true)
	case detection.Executed && !fallbackEnabled:
		detection.Observed = parity.Bool(false)
	}
	klog.V(2).Infof("fallback: %s (fallback enabled=%v): executed=%v, observed=%s, err=%v",
		inv, fallbackEnabled, detection.Executed, FormatBool(detection.Observed), detection.Err)
	return
}

// Probe is the outcome of the two-phase protocol, see Detector.Probe.
type Probe struct {
	// RanWithoutFallback is whether the invocation executed with fallback disabled.
	RanWithoutFallback *bool

	// RanWithFallback is whether the invocation executed with fallback enabled, nil if not attempted.
	RanWithFallback *bool

	// FallbackObserved: see Detection.Observed.
	FallbackObserved *bool

	// Err is the last error, if the invocation failed on both paths.
	Err error
}

// Executable returns whether the invocation ran in any of the phases.
func (p Probe) Executable() bool {
	return isTrue(p.RanWithoutFallback) || isTrue(p.RanWithFallback)
}

// BothFailed returns whether the invocation failed with and without fallback.
func (p Probe) BothFailed() bool {
	return p.RanWithoutFallback != nil && !*p.RanWithoutFallback &&
		p.RanWithFallback != nil && !*p.RanWithFallback
}

// Status is a human-readable summary of the probe.
func (p Probe) Status() string {
	switch {
	case isTrue(p.RanWithoutFallback):
		return "native"
	case isTrue(p.RanWithFallback) && isTrue(p.FallbackObserved):
		return "fallback"
	case isTrue(p.RanWithFallback):
		return "ran with fallback enabled, no notice"
	case p.BothFailed():
		return "execution error on both paths"
	}
	return "not probed"
}

// Probe runs the two-phase protocol: first with fallback disabled; if that fails, once more with fallback enabled.
func (d *Detector) Probe(inv *parity.Invocation) (probe Probe) {
	first := d.Detect(inv, false)
	probe.RanWithoutFallback = parity.Bool(first.Executed)
	probe.FallbackObserved = first.Observed
	if first.Executed {
		return
	}
	second := d.Detect(inv, true)
	probe.RanWithFallback = parity.Bool(second.Executed)
	probe.FallbackObserved = second.Observed
	if !second.Executed {
		probe.Err = second.Err
	}
	return
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// FormatBool formats an optional boolean as "true", "false" or "" (unknown).
func FormatBool(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "true"
	}
	return "false"
}

// ParseBool is the inverse of FormatBool.
func ParseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return parity.Bool(true)
	case "false", "0":
		return parity.Bool(false)
	}
	return nil
}
