package accel

import (
	"fmt"
	"strings"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/kernels"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/pkg/errors"
)

// referenceKey is the dispatch key of the reference kernels, which are also registered for every operator.
const referenceKey = "CPU"

// DispatchTable returns the routing entries of operator q, in the format "<Key>: <description>", one per line.
//
// Natively implemented operators have an "Accel: registered at accel/kernels [kernel]" entry. Composite
// operators and operators with an explicit fall-through have pass-through "Accel" entries, and the
// other operators have no "Accel" entry at all.
func (b *Backend) DispatchTable(q ops.Qualname) (string, error) {
	schema, err := b.registry.Lookup(q)
	if err != nil {
		return "", errors.Wrapf(backends.ErrUnknownOperator, "%s: %v", q, err)
	}
	name := q.String()
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %s\nschema: %s\n\n", schema.Name, schema.Doc)
	_, isComposite := Composites[name]
	switch {
	case b.capabilities.Operations[name]:
		fmt.Fprintf(&sb, "%s: registered at accel/kernels [kernel]\n", DispatchKey)
	case isComposite:
		fmt.Fprintf(&sb, "%s: registered at core/CompositeImplicitAutograd [math kernel]\n", DispatchKey)
	case Fallthroughs[name]:
		fmt.Fprintf(&sb, "%s: fallthrough registered at accel/AccelFallback [backend fallback]\n", DispatchKey)
	}
	if kernels.Has(q) {
		fmt.Fprintf(&sb, "%s: registered at cpu/kernels [kernel]\n", referenceKey)
	}
	fmt.Fprintf(&sb, "BackendSelect: fallthrough registered at core/BackendSelectFallback [backend fallback]\n")
	for _, key := range []string{DispatchKey, referenceKey} {
		fmt.Fprintf(&sb, "Autograd%s: fallthrough registered at core/VariableFallbackKernel [backend fallback]\n", key)
	}
	return sb.String(), nil
}
