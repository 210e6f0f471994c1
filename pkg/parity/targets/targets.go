// Package targets holds the operator source list: a YAML document with the prioritized operators to
// benchmark, and their shapes and dtypes.
//
// A document looks like:
//
//	version:
//	  backend: accel
//	  accelerator: accel (simulated accelerator, ...)
//	  run_id: 0b5e9a7c-...
//	  generated_at: 2024-05-01T10:00:00Z
//	ops:
//	  - qualname: aten::cumsum.default
//	    score: 4.5
//	    voters: 2
//	    ...
package targets

import (
	"cmp"
	"os"
	"slices"
	"time"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity/invocations"
	"github.com/gomlx/opparity/pkg/parity/matrix"
	"github.com/gomlx/opparity/pkg/parity/priority"
	"github.com/gomlx/opparity/pkg/support/xslices"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Version is the environment stamp of a document.
type Version struct {
	Backend     string    `yaml:"backend"`
	Accelerator string    `yaml:"accelerator"`
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

// Op is one operator entry.
type Op struct {
	Qualname          string   `yaml:"qualname"`
	Score             float64  `yaml:"score"`
	Voters            int      `yaml:"voters"`
	Thumbs            int      `yaml:"thumbs"`
	LastYear          int      `yaml:"last_year"`
	Implemented       bool     `yaml:"implemented"`
	ConfirmedFallback *bool    `yaml:"confirmed_fallback"`
	Shapes            [][]int  `yaml:"shapes,flow"`
	DTypes            []string `yaml:"dtypes,flow"`
	Issues            []string `yaml:"issues,omitempty"`
}

// Document is the operator source list.
type Document struct {
	Version Version `yaml:"version"`
	Ops     []Op    `yaml:"ops"`
}

// Stamp returns the environment stamp for a run against the accelerator backend, with a fresh run id.
func Stamp(accelerator backends.Backend) Version {
	return Version{
		Backend:     accelerator.Name(),
		Accelerator: accelerator.Description(),
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// FromTargets builds a document from the output of the priority.Scorer. Each operator gets the default
// shapes of its family and the default dtypes.
func FromTargets(version Version, prioritized []priority.Target) *Document {
	doc := &Document{Version: version, Ops: make([]Op, 0, len(prioritized))}
	dtypeNames := xslices.Map(invocations.DefaultDTypes, dtypes.DType.Name)
	for _, target := range prioritized {
		op := Op{
			Qualname:          target.Op.String(),
			Score:             roundScore(target.Score),
			Voters:            target.Supporters,
			Thumbs:            target.Thumbs,
			LastYear:          target.LastYear,
			Implemented:       target.Implemented,
			ConfirmedFallback: target.ConfirmedFallback,
			Shapes:            invocations.DefaultShapes(target.Op.Base),
			DTypes:            slices.Clone(dtypeNames),
		}
		if target.Link != "" {
			op.Issues = []string{target.Link}
		}
		doc.Ops = append(doc.Ops, op)
	}
	return doc
}

func roundScore(score float64) float64 {
	return float64(int64(score*100+0.5)) / 100
}

// Parse a YAML document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse targets document")
	}
	return doc, nil
}

// Marshal the document to YAML.
func (doc *Document) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal targets document")
	}
	return data, nil
}

// Load reads the document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read targets from %q", path)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %q", path)
	}
	return doc, nil
}

// Save writes the document to path.
func (doc *Document) Save(path string) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write targets to %q", path)
	}
	return nil
}

// Pick returns up to top operators that are not implemented yet, by decreasing score.
// If top <= 0, all of them are returned.
func (doc *Document) Pick(top int) []Op {
	var picked []Op
	for _, op := range doc.Ops {
		if !op.Implemented {
			picked = append(picked, op)
		}
	}
	slices.SortStableFunc(picked, func(a, b Op) int { return cmp.Compare(b.Score, a.Score) })
	if top > 0 && len(picked) > top {
		picked = picked[:top]
	}
	return picked
}

// Entry converts the operator to a matrix.Entry.
func (op Op) Entry() (matrix.Entry, error) {
	q, err := ops.Parse(op.Qualname)
	if err != nil {
		return matrix.Entry{}, err
	}
	dts, err := dtypes.FromNames(op.DTypes)
	if err != nil {
		return matrix.Entry{}, errors.WithMessagef(err, "operator %s", op.Qualname)
	}
	return matrix.Entry{Op: q, Shapes: op.Shapes, DTypes: dts}, nil
}

// MatrixEntries converts all operators of the document to matrix entries.
func (doc *Document) MatrixEntries() ([]matrix.Entry, error) {
	entries := make([]matrix.Entry, 0, len(doc.Ops))
	for _, op := range doc.Ops {
		entry, err := op.Entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
