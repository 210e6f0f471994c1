package accel

import (
	"maps"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/ops"
)

func resetStats(s *backends.Stats) {
	*s = backends.Stats{
		PerOp:         make(map[string]int64),
		FallbackPerOp: make(map[string]int64),
	}
}

func (b *Backend) count(q ops.Qualname, fallback bool) {
	b.muStats.Lock()
	defer b.muStats.Unlock()
	name := q.String()
	b.stats.PerOp[name]++
	if fallback {
		b.stats.FallbackCalls++
		b.stats.FallbackPerOp[name]++
	} else {
		b.stats.NativeCalls++
	}
}

// Stats returns a snapshot of the utilization counters.
func (b *Backend) Stats() backends.Stats {
	b.muStats.Lock()
	defer b.muStats.Unlock()
	s := b.stats
	s.PerOp = maps.Clone(b.stats.PerOp)
	s.FallbackPerOp = maps.Clone(b.stats.FallbackPerOp)
	return s
}

// ResetStats zeroes the utilization counters.
func (b *Backend) ResetStats() {
	b.muStats.Lock()
	defer b.muStats.Unlock()
	resetStats(&b.stats)
}
