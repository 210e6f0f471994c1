package priority

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gomlx/opparity/backends/accel"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func date(year int) time.Time {
	return time.Date(year, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func newTestScorer() *Scorer {
	s := New(ops.Default())
	s.Now = func() time.Time { return date(2024) }
	return s
}

func scoresByOp(targets []Target) map[string]float64 {
	scores := make(map[string]float64, len(targets))
	for _, t := range targets {
		scores[t.Op.String()] = t.Score
	}
	return scores
}

func TestRecencyWeight(t *testing.T) {
	assert.Equal(t, 1.0, RecencyWeight(0))
	assert.Equal(t, 1.0, RecencyWeight(-3))
	assert.Equal(t, 0.6, RecencyWeight(1))
	assert.Equal(t, 0.3, RecencyWeight(2))
	assert.Equal(t, 0.3, RecencyWeight(10))
}

func TestExtract(t *testing.T) {
	e := NewExtractor()
	got := e.Extract("Please add aten::cumsum and torch.ops.aten.cummin.out, also torch.linalg.eigh. request: topk")
	assert.Equal(t, []Candidate{
		{Base: "cumsum"},
		{Base: "cummin", Suffix: "out"},
		{Base: "linalg", Suffix: "eigh"},
		{Base: "topk"},
	}, got)
	assert.Empty(t, e.Extract("nothing to see here"))
}

func TestValidate(t *testing.T) {
	v := NewValidator(ops.Default())
	q, ok := v.Validate(Candidate{Base: "cumsum"})
	require.True(t, ok)
	assert.Equal(t, "aten::cumsum.default", q.String())
	q, ok = v.Validate(Candidate{Base: "cummin", Suffix: "out"})
	require.True(t, ok)
	assert.Equal(t, "aten::cummin.out", q.String())
	_, ok = v.Validate(Candidate{Base: "cumsum", Suffix: "dimname"})
	assert.False(t, ok)
	_, ok = v.Validate(Candidate{Base: "linalg", Suffix: "eigh"})
	assert.False(t, ok)
}

func TestScoreScenario(t *testing.T) {
	s := newTestScorer()
	mentions := []Mention{
		{ID: "1", Reporter: "userA", Body: "need aten::cumsum", Thumbs: 2, CreatedAt: date(2024), Link: "https://example.com/issues/1#1"},
		{ID: "2", Reporter: "userA", Body: "again torch.cumsum", Thumbs: 0, CreatedAt: date(2024), Link: "https://example.com/issues/1#2"},
		{ID: "3", Reporter: "userB", Body: "+1 for aten::cumsum", Thumbs: 1, CreatedAt: date(2023)},
	}
	targets := s.Score(mentions)
	require.Len(t, targets, 1)
	target := targets[0]
	assert.Equal(t, "aten::cumsum.default", target.Op.String())
	assert.Equal(t, 2, target.Supporters)
	assert.Equal(t, 3, target.Thumbs)
	assert.Equal(t, 2024, target.LastYear)
	assert.InDelta(t, 4.5, target.Score, 1e-9)
	assert.Equal(t, "https://example.com/issues/1#1", target.Link)
	assert.Nil(t, target.ConfirmedFallback)
}

func TestScoreSameMentionCountsOnce(t *testing.T) {
	s := newTestScorer()
	s.MinScore = 0
	mention := Mention{ID: "1", Reporter: "userA", Body: "aten::cumsum, i.e. torch.cumsum", Thumbs: 4, CreatedAt: date(2024)}
	targets := s.Score([]Mention{mention, mention})
	require.Len(t, targets, 1)
	assert.Equal(t, 1, targets[0].Supporters)
	assert.Equal(t, 4, targets[0].Thumbs)
	assert.InDelta(t, 1+2+1.0, targets[0].Score, 1e-9)
}

func TestScoreInvariance(t *testing.T) {
	s := newTestScorer()
	s.MinScore = 0
	var mentions []Mention
	for i, reporter := range []string{"a", "b", "c", "a", "d", "e"} {
		mentions = append(mentions,
			Mention{Reporter: reporter, Body: "aten::cumsum and aten::topk", Thumbs: i, CreatedAt: date(2020 + i)},
			Mention{Reporter: reporter, Body: "request: unique_dim", Thumbs: 1, CreatedAt: date(2022)})
	}
	want := scoresByOp(s.Score(mentions))
	require.Len(t, want, 3)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := append([]Mention(nil), mentions...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, scoresByOp(s.Score(shuffled)))

		// Duplicating mentions doesn't change anything either.
		duplicated := append(shuffled, shuffled[:len(shuffled)/2]...)
		assert.Equal(t, want, scoresByOp(s.Score(duplicated)))
	}
}

func TestScoreThresholdAndOrder(t *testing.T) {
	s := newTestScorer()
	mentions := []Mention{
		// topk and gather tie: topk appears first.
		{ID: "1", Reporter: "a", Body: "aten::topk", CreatedAt: date(2024)},
		{ID: "2", Reporter: "b", Body: "aten::gather aten::topk", CreatedAt: date(2024)},
		{ID: "3", Reporter: "c", Body: "aten::gather", CreatedAt: date(2024)},
		// conv3d has the highest score.
		{ID: "4", Reporter: "a", Body: "aten::conv3d", Thumbs: 10, CreatedAt: date(2021)},
		// relu is below threshold: 1 + 0.5 + 0.6.
		{ID: "5", Reporter: "a", Body: "aten::relu", Thumbs: 1, CreatedAt: date(2023)},
		// Unknown overload is discarded.
		{ID: "6", Reporter: "z", Body: "aten::gather.bogus", Thumbs: 100, CreatedAt: date(2024)},
	}
	targets := s.Score(mentions)
	var names []string
	for _, target := range targets {
		names = append(names, target.Op.String())
	}
	assert.Equal(t, []string{"aten::conv3d.default", "aten::topk.default", "aten::gather.default"}, names)
	assert.InDelta(t, 1+5+0.3, targets[0].Score, 1e-9)
	assert.InDelta(t, 3.0, targets[1].Score, 1e-9)
}

func TestScoreAnnotations(t *testing.T) {
	backend := must.M1(accel.NewBackend(""))
	defer backend.Finalize()
	s := ForBackend(backend)
	s.Now = func() time.Time { return date(2024) }
	mentions := []Mention{
		{ID: "1", Reporter: "a", Body: "aten::cumsum aten::add.Tensor", Thumbs: 4, CreatedAt: date(2024)},
		{ID: "2", Reporter: "b", Body: "aten::cumsum aten::add.Tensor", CreatedAt: date(2024)},
	}
	targets := s.Score(mentions)
	require.Len(t, targets, 2)

	cumsum, add := targets[0], targets[1]
	assert.Equal(t, "aten::cumsum.default", cumsum.Op.String())
	assert.Equal(t, capability.Fallback, cumsum.Verdict)
	assert.False(t, cumsum.Implemented)
	require.NotNil(t, cumsum.ConfirmedFallback)
	assert.True(t, *cumsum.ConfirmedFallback)

	assert.Equal(t, "aten::add.Tensor", add.Op.String())
	assert.Equal(t, capability.NativelyImplemented, add.Verdict)
	assert.True(t, add.Implemented)
	assert.Nil(t, add.ConfirmedFallback)
}

func TestScoreRuntimeOverridesVerdict(t *testing.T) {
	// linalg_eigh is a composite: statically it's a fallback, but it runs natively when _linalg_eigh does.
	backend := must.M1(accel.NewBackend("native=aten::_linalg_eigh.default"))
	defer backend.Finalize()
	s := ForBackend(backend)
	s.Now = func() time.Time { return date(2024) }
	mentions := []Mention{
		{ID: "1", Reporter: "a", Body: "please add aten::linalg_eigh", Thumbs: 2, CreatedAt: date(2024)},
		{ID: "2", Reporter: "b", Body: "torch.linalg_eigh is slow", CreatedAt: date(2024)},
	}
	targets := s.Score(mentions)
	require.Len(t, targets, 1)
	eigh := targets[0]
	assert.Equal(t, "aten::linalg_eigh.default", eigh.Op.String())
	assert.Equal(t, capability.Fallback, eigh.Verdict)
	assert.True(t, eigh.Implemented)
	require.NotNil(t, eigh.ConfirmedFallback)
	assert.False(t, *eigh.ConfirmedFallback)

	// On the default accelerator it does fall back.
	defaultBackend := must.M1(accel.NewBackend(""))
	defer defaultBackend.Finalize()
	s = ForBackend(defaultBackend)
	s.Now = func() time.Time { return date(2024) }
	targets = s.Score(mentions)
	require.Len(t, targets, 1)
	assert.False(t, targets[0].Implemented)
	require.NotNil(t, targets[0].ConfirmedFallback)
	assert.True(t, *targets[0].ConfirmedFallback)
}

func TestScoreRecencyInUTC(t *testing.T) {
	s := newTestScorer()
	s.MinScore = 0
	// 2025-01-01 01:00 at UTC+2 is still 2024 in UTC.
	s.Now = func() time.Time { return time.Date(2025, time.January, 1, 1, 0, 0, 0, time.FixedZone("UTC+2", 2*3600)) }
	mentions := []Mention{{ID: "1", Reporter: "a", Body: "aten::cumsum", CreatedAt: date(2024)}}
	targets := s.Score(mentions)
	require.Len(t, targets, 1)
	assert.InDelta(t, 1.0+1.0, targets[0].Score, 1e-9)
}

func TestLoadMentions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mentions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"id": 1234, "user": {"login": "octocat"}, "body": "aten::cumsum please",
   "reactions": {"+1": 3, "heart": 1}, "created_at": "2024-05-01T10:00:00Z",
   "html_url": "https://example.com/issues/1#issuecomment-1234"},
  {"reporter": "someone", "body": "request: topk", "thumbs": 1}
]`), 0o644))
	mentions, err := LoadMentions(path)
	require.NoError(t, err)
	require.Len(t, mentions, 2)
	assert.Equal(t, Mention{
		ID: "1234", Reporter: "octocat", Body: "aten::cumsum please", Thumbs: 3,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Link:      "https://example.com/issues/1#issuecomment-1234",
	}, mentions[0])
	assert.Equal(t, "", mentions[1].ID)
	assert.Equal(t, "someone", mentions[1].Reporter)
	assert.Equal(t, 1, mentions[1].Thumbs)
	assert.Equal(t, 1970, mentions[1].CreatedAt.Year())

	_, err = LoadMentions(filepath.Join(dir, "missing.json"))
	var retrievalErr *parity.RetrievalError
	require.True(t, errors.As(err, &retrievalErr))

	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))
	_, err = LoadMentions(path)
	require.True(t, errors.As(err, &retrievalErr))
}
