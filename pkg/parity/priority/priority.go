// Package priority aggregates community mentions of operators into a priority score, to decide which missing
// accelerator kernels are worth implementing first.
//
// Mentions go through two stages: an Extractor finds candidate operator references in the text, and a
// Validator keeps only those naming a known operator overload. Votes are then deduplicated, so that each
// (operator, reporter, mention) triple contributes once, and scored as:
//
//	score = supporters*1.0 + thumbs*0.5 + recency(age of the most recent mention)
//
// Targets below Scorer.MinScore are dropped.
package priority

import (
	"cmp"
	"slices"
	"time"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/parity/invocations"
	"github.com/gomlx/opparity/pkg/support/sets"
	"k8s.io/klog/v2"
)

const (
	// DefaultMinScore is the default threshold for a target to be kept.
	DefaultMinScore = 3.0

	// SupporterWeight and ThumbsWeight are the weights of the unique supporters and of the positive signals.
	SupporterWeight = 1.0
	ThumbsWeight    = 0.5
)

// RecencyWeight returns the recency bonus for a mention that is age years old: 1.0 for the current year,
// 0.6 for the previous one and 0.3 for anything older. Negative ages count as 0.
func RecencyWeight(age int) float64 {
	switch {
	case age <= 0:
		return 1.0
	case age == 1:
		return 0.6
	default:
		return 0.3
	}
}

// Target is a prioritized operator.
type Target struct {
	Op    ops.Qualname
	Score float64

	// Supporters is the number of distinct reporters, Thumbs the sum of positive signals of the distinct
	// mentions, and LastYear the year of the most recent mention.
	Supporters int
	Thumbs     int
	LastYear   int

	// Link to the first mention (issue comment) that referenced the operator.
	Link string

	// Verdict is the static capability verdict on the accelerator. Implemented is whether the operator runs
	// natively: the dynamic confirmation, when there is one, overrides the static verdict.
	Verdict     capability.Verdict
	Implemented bool

	// ConfirmedFallback is whether a fallback notice was observed when running the family probe, for targets
	// not statically native. It is false if the probe ran with fallback disabled, and nil if not probed or if
	// it couldn't be told.
	ConfirmedFallback *bool
}

// Confirmer confirms dynamically whether an operator runs natively or falls back.
type Confirmer interface {
	Confirm(q ops.Qualname) (fallback.Probe, error)
}

// Prober is a Confirmer that runs the two-phase fallback protocol on the family probe of an operator.
type Prober struct {
	Backend  backends.Backend
	Builder  *invocations.Builder
	Detector *fallback.Detector
}

// NewProber returns a Prober for the given accelerator backend, with default builder and detector.
func NewProber(backend backends.Backend) *Prober {
	return &Prober{Backend: backend, Builder: invocations.New(), Detector: fallback.New()}
}

// Confirm implements Confirmer. It returns an error if the probe can't be built or if it failed both with
// and without fallback.
func (p *Prober) Confirm(q ops.Qualname) (fallback.Probe, error) {
	inv, err := p.Builder.FamilyProbe(p.Backend, q)
	if err != nil {
		return fallback.Probe{}, err
	}
	probe := p.Detector.Probe(inv)
	if probe.BothFailed() {
		return probe, probe.Err
	}
	return probe, nil
}

// Scorer aggregates mentions into prioritized targets.
type Scorer struct {
	Extractor Extractor
	Validator Validator
	MinScore  float64

	// Now is the clock used to compute the age of the mentions.
	Now func() time.Time

	// Classifier and Confirmer annotate the retained targets. Either can be nil, in which case the
	// corresponding annotation is skipped.
	Classifier *capability.Classifier
	Confirmer  Confirmer
}

// New returns a Scorer validating operators against registry, with the default extractor and threshold.
func New(registry *ops.Registry) *Scorer {
	return &Scorer{
		Extractor: NewExtractor(),
		Validator: NewValidator(registry),
		MinScore:  DefaultMinScore,
		Now:       time.Now,
	}
}

// ForBackend returns a Scorer for the operators of the accelerator backend, which also annotates targets
// with the static verdict and the fallback confirmation on that backend.
func ForBackend(backend backends.Backend) *Scorer {
	s := New(backend.Registry())
	s.Classifier = capability.New(backend)
	s.Confirmer = NewProber(backend)
	return s
}

// votes accumulated for one operator.
type votes struct {
	op        ops.Qualname
	order     int
	reporters sets.Set[string]
	mentions  sets.Set[string]
	thumbs    int
	lastYear  int
	link      string
}

// Score aggregates the mentions and returns the targets with score >= MinScore, sorted by descending score.
// Ties keep the order in which the operators first appeared.
func (s *Scorer) Score(mentions []Mention) []Target {
	byOp := make(map[ops.Qualname]*votes)
	for _, mention := range mentions {
		mentionKey := mention.key()
		for _, candidate := range s.Extractor.Extract(mention.Body) {
			q, ok := s.Validator.Validate(candidate)
			if !ok {
				klog.V(2).Infof("discarding %+v: not a known operator", candidate)
				continue
			}
			v, found := byOp[q]
			if !found {
				v = &votes{op: q, order: len(byOp), reporters: sets.Make[string](), mentions: sets.Make[string]()}
				byOp[q] = v
			}
			if v.mentions.Has(mentionKey) {
				// Same (operator, mention) pair, hence same reporter.
				continue
			}
			v.mentions.Insert(mentionKey)
			v.reporters.Insert(mention.Reporter)
			v.thumbs += mention.Thumbs
			v.lastYear = max(v.lastYear, mention.CreatedAt.UTC().Year())
			if v.link == "" {
				v.link = mention.Link
			}
		}
	}

	allVotes := make([]*votes, 0, len(byOp))
	for _, v := range byOp {
		allVotes = append(allVotes, v)
	}
	slices.SortFunc(allVotes, func(a, b *votes) int { return cmp.Compare(a.order, b.order) })

	now := s.now().UTC()
	var targets []Target
	for _, v := range allVotes {
		klog.V(2).Infof("%s: supporters %v", v.op, sets.Sorted(v.reporters))
		t := Target{
			Op:         v.op,
			Supporters: v.reporters.Len(),
			Thumbs:     v.thumbs,
			LastYear:   v.lastYear,
			Link:       v.link,
		}
		t.Score = SupporterWeight*float64(t.Supporters) + ThumbsWeight*float64(t.Thumbs) +
			RecencyWeight(now.Year()-t.LastYear)
		if t.Score < s.MinScore {
			continue
		}
		targets = append(targets, t)
	}
	slices.SortStableFunc(targets, func(a, b Target) int { return cmp.Compare(b.Score, a.Score) })

	for i := range targets {
		s.annotate(&targets[i])
	}
	return targets
}

func (s *Scorer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// annotate fills in the capability information of the target.
func (s *Scorer) annotate(t *Target) {
	if s.Classifier != nil {
		t.Verdict = s.Classifier.Classify(t.Op)
		t.Implemented = t.Verdict == capability.NativelyImplemented
	}
	if t.Implemented || s.Confirmer == nil {
		return
	}
	probe, err := s.Confirmer.Confirm(t.Op)
	if err != nil {
		klog.V(1).Infof("fallback confirmation of %s failed: %v", t.Op, err)
		return
	}
	t.ConfirmedFallback = probe.FallbackObserved
	if probe.RanWithoutFallback != nil && *probe.RanWithoutFallback {
		klog.V(1).Infof("%s: static verdict %s, but it runs without fallback", t.Op, t.Verdict)
		t.Implemented = true
	}
}
