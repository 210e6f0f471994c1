package backends

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/opparity/pkg/support/xslices"
)

// Stats are utilization counters of a backend: how many operator calls ran on its native kernels, and
// how many fell back to the reference kernels.
type Stats struct {
	NativeCalls, FallbackCalls int64

	// PerOp counts calls per operator qualified name, native and fallback together.
	PerOp map[string]int64

	// FallbackPerOp counts fallback calls per operator qualified name.
	FallbackPerOp map[string]int64
}

// Total number of operator calls.
func (s Stats) Total() int64 {
	return s.NativeCalls + s.FallbackCalls
}

// FallbackRatio is the fraction of calls that fell back. It is 0 if there were no calls.
func (s Stats) FallbackRatio() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.FallbackCalls) / float64(s.Total())
}

// Sub returns the counters accumulated since the snapshot prev was taken.
func (s Stats) Sub(prev Stats) Stats {
	delta := Stats{
		NativeCalls:   s.NativeCalls - prev.NativeCalls,
		FallbackCalls: s.FallbackCalls - prev.FallbackCalls,
		PerOp:         make(map[string]int64),
		FallbackPerOp: make(map[string]int64),
	}
	for name, count := range s.PerOp {
		if d := count - prev.PerOp[name]; d != 0 {
			delta.PerOp[name] = d
		}
	}
	for name, count := range s.FallbackPerOp {
		if d := count - prev.FallbackPerOp[name]; d != 0 {
			delta.FallbackPerOp[name] = d
		}
	}
	return delta
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s native calls, %s fallback calls (%.1f%% fallback)",
		humanize.Comma(s.NativeCalls), humanize.Comma(s.FallbackCalls), 100*s.FallbackRatio())
	for _, name := range xslices.SortedKeys(s.FallbackPerOp) {
		fmt.Fprintf(&sb, "\n  %s: %s fallback calls", name, humanize.Comma(s.FallbackPerOp[name]))
	}
	return sb.String()
}

// StatsReporter is implemented by backends that keep utilization counters.
type StatsReporter interface {
	// Stats returns a snapshot of the counters.
	Stats() Stats

	// ResetStats zeroes the counters.
	ResetStats()
}
