package invocations

import (
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/pkg/errors"
)

// familyProbes are the explicit probe invocations of some families: the operator (overload) to call and its case.
var familyProbes = map[string]struct {
	op string
	c  Case
}{
	"linalg_qr":    {"aten::linalg_qr.default", Case{Shape: []int{64, 32}, DType: dtypes.Float32}},
	"_linalg_eigh": {"aten::_linalg_eigh.eigenvalues", Case{Shape: []int{128, 128}, DType: dtypes.Float32}},
	"linalg_eigh":  {"aten::_linalg_eigh.eigenvalues", Case{Shape: []int{128, 128}, DType: dtypes.Float32}},
	"unique_dim":   {"aten::unique_dim.default", Case{Shape: []int{32, 32}, DType: dtypes.Int64}},
	"conv3d":       {"aten::conv3d.default", Case{Shape: []int{1, 4, 4, 16, 16}, DType: dtypes.Float32}},
}

// ErrNoProbe is returned by FamilyProbe when there is no way to build a probe for a family.
var ErrNoProbe = errors.New("no probe for operator family")

// FamilyProbe builds a small representative invocation for the operator family of q, used to confirm
// dynamically whether it runs natively.
//
// If q has a factory, q itself is invoked, with the family's probe case if there is one, or else with the first
// default shape and Float32. Otherwise it uses the family's explicit probe operator, or the first overload of
// the family that has a factory.
//
// It returns an error wrapping ErrNoProbe if no invocation can be built.
func (b *Builder) FamilyProbe(backend backends.Backend, q ops.Qualname) (*parity.Invocation, error) {
	probe, hasProbe := familyProbes[q.Base]
	if Has(q) {
		return b.Build(backend, q, probeCase(q, probe.c, hasProbe))
	}
	if hasProbe {
		return b.Build(backend, ops.MustParse(probe.op), probe.c)
	}
	for _, overload := range backend.Registry().Overloads(q.Namespace, q.Base) {
		candidate := ops.Qualname{Namespace: q.Namespace, Base: q.Base, Overload: overload}
		if Has(candidate) {
			return b.Build(backend, candidate, probeCase(candidate, Case{}, false))
		}
	}
	return nil, errors.Wrapf(ErrNoProbe, "%s", q)
}

func probeCase(q ops.Qualname, familyCase Case, hasProbe bool) Case {
	if hasProbe {
		return familyCase
	}
	return Case{Shape: DefaultShapes(q.Base)[0], DType: dtypes.Float32}
}
