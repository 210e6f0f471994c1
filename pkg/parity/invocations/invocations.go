// Package invocations builds parity.Invocation for an operator, a shape and a dtype, on a given backend.
//
// Each operator with a factory (see Has) gets its inputs generated on the host with a deterministic random
// generator, seeded from the operator and the case, so the reference and the accelerator invocations see
// the same data. Inputs are transferred to the backend once, when the invocation is built.
package invocations

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/pkg/errors"
)

// Case is a (shape, dtype) pair an operator is invoked with.
type Case struct {
	Shape []int
	DType dtypes.DType
}

// String formats the case as "[64, 1024] float16".
func (c Case) String() string {
	return fmt.Sprintf("%s %s", shapes.FormatDims(c.Shape), c.DType.Name())
}

// Cases returns the cross product of the shapes and dtypes, shapes in the outer loop.
func Cases(shapeList [][]int, dtypeList []dtypes.DType) []Case {
	cases := make([]Case, 0, len(shapeList)*len(dtypeList))
	for _, shape := range shapeList {
		for _, dtype := range dtypeList {
			cases = append(cases, Case{Shape: slices.Clone(shape), DType: dtype})
		}
	}
	return cases
}

// Builder builds invocations.
type Builder struct {
	seed uint64
}

// New returns a Builder with the default seed.
func New() *Builder {
	return &Builder{seed: 42}
}

// WithSeed sets the seed used to generate the inputs.
func (b *Builder) WithSeed(seed uint64) *Builder {
	b.seed = seed
	return b
}

// Has returns whether there is a factory for operator q.
func Has(q ops.Qualname) bool {
	_, found := factories[q.String()]
	return found
}

// Supported returns the qualified names of the operators with a factory, sorted.
func Supported() []ops.Qualname {
	var qs []ops.Qualname
	for name := range factories {
		qs = append(qs, ops.MustParse(name))
	}
	slices.SortFunc(qs, func(a, b ops.Qualname) int {
		return cmp.Compare(a.String(), b.String())
	})
	return qs
}

// rng returns the random generator for the operator and case.
func (b *Builder) rng(q ops.Qualname, c Case) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(q.String()))
	_, _ = h.Write([]byte(c.String()))
	return rand.New(rand.NewPCG(b.seed, h.Sum64()))
}

// Inputs generates the host inputs and attributes of operator q for the case, after applying the dtype policy.
// It returns a parity.ConstructionError if the case is not valid for the operator.
func (b *Builder) Inputs(q ops.Qualname, c Case) (inputs []*tensors.Tensor, attrs ops.Attrs, policy string, err error) {
	factory, found := factories[q.String()]
	if !found {
		err = &parity.ConstructionError{Op: q, Case: c.String(), Err: errors.Errorf("no invocation factory for %s", q)}
		return
	}
	c, policy = ApplyPolicy(q, c)
	err = exceptions.TryCatch[error](func() {
		for _, dim := range c.Shape {
			if dim <= 0 {
				exceptions.Panicf("invalid shape %s: dimensions must be positive", shapes.FormatDims(c.Shape))
			}
		}
		inputs, attrs = factory(c, b.rng(q, c))
	})
	if err != nil {
		err = &parity.ConstructionError{Op: q, Case: c.String(), Err: err}
	}
	return
}

// Build the invocation of operator q for the case on backend: the inputs are generated and transferred
// to the backend. It returns a parity.ConstructionError if the case is not valid for the operator, or if the
// backend can't hold the inputs (e.g. an unsupported dtype).
func (b *Builder) Build(backend backends.Backend, q ops.Qualname, c Case) (*parity.Invocation, error) {
	inputs, attrs, policy, err := b.Inputs(q, c)
	if err != nil {
		return nil, err
	}
	var buffers []backends.Buffer
	err = exceptions.TryCatch[error](func() {
		buffers = backends.FromHost(backend, inputs)
	})
	if err != nil {
		return nil, &parity.ConstructionError{Op: q, Case: c.String(), Err: err}
	}
	inv := parity.ExecuteInvocation(q, backend, buffers, attrs)
	inv.Case = c.String()
	inv.Policy = policy
	return inv, nil
}
