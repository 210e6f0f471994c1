package backends

import (
	"maps"

	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
)

// Capabilities holds mappings of what is supported natively by a backend.
type Capabilities struct {
	// Operations supported by a backend, indexed by their qualified name (see ops.Qualname.String).
	// If not listed, it's assumed to be false, hence not supported.
	Operations map[string]bool

	// DTypes list the data types supported by a backend.
	// If not listed, it's assumed to be false, hence not supported.
	DTypes map[dtypes.DType]bool
}

// Clone makes a deep copy of the Capabilities.
func (c Capabilities) Clone() Capabilities {
	var c2 Capabilities
	c2.Operations = make(map[string]bool, len(c.Operations))
	maps.Copy(c2.Operations, c.Operations)
	c2.DTypes = make(map[dtypes.DType]bool, len(c.DTypes))
	maps.Copy(c2.DTypes, c.DTypes)
	return c2
}

// SupportsOp returns whether the operator q is supported.
func (c Capabilities) SupportsOp(q ops.Qualname) bool {
	return c.Operations[q.String()]
}

// SupportsDType returns whether dtype is supported.
func (c Capabilities) SupportsDType(dtype dtypes.DType) bool {
	return c.DTypes[dtype]
}
