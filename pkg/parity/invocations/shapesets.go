package invocations

import (
	"slices"

	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
)

// DefaultDTypes used when an operator entry doesn't list dtypes.
var DefaultDTypes = []dtypes.DType{dtypes.Float16, dtypes.Float32}

// familyShapes are the canonical shapes per operator family (base name), used when an operator entry
// doesn't list shapes.
var familyShapes = map[string][][]int{
	"cumsum": {{64, 1024}, {8192}},
	"cummin": {{64, 1024}, {8192}},
	"sum":    {{64, 1024}, {8192}},
	"amax":   {{64, 1024}, {8192}},
	"amin":   {{64, 1024}, {8192}},

	"index_select": {{32, 1024}, {16, 2048}},
	"gather":       {{32, 1024}, {16, 2048}},

	"_softmax":   {{8, 8, 128, 128}, {4, 16, 256, 256}},
	"softmax":    {{8, 8, 128, 128}, {4, 16, 256, 256}},
	"layer_norm": {{64, 512}, {8, 2048}},
	"topk":       {{64, 1024}},

	// N, C, D, H, W
	"conv3d": {{1, 16, 16, 64, 64}, {1, 32, 8, 32, 32}},

	// Square (optionally batched) symmetric matrices.
	"_linalg_eigh": {{512, 512}, {4, 128, 128}},
	"linalg_eigh":  {{512, 512}, {4, 128, 128}},
	"linalg_qr":    {{64, 32}, {256, 128}},
}

// DefaultShapes returns the canonical shapes for the operator family base (e.g. "cumsum").
// Unknown families get a single vector of 1024 elements.
func DefaultShapes(base string) [][]int {
	if shapeList, found := familyShapes[base]; found {
		result := make([][]int, len(shapeList))
		for ii, shape := range shapeList {
			result[ii] = slices.Clone(shape)
		}
		return result
	}
	return [][]int{{1024}}
}

// decompositions are the families of matrix decompositions that don't support half precision: their
// Float16 and BFloat16 cases are promoted to Float32.
var decompositions = map[string]bool{
	"_linalg_eigh": true,
	"linalg_eigh":  true,
	"linalg_qr":    true,
}

// ApplyPolicy returns the case actually used for operator q, and a description of the substitution
// applied, or "" if none.
func ApplyPolicy(q ops.Qualname, c Case) (Case, string) {
	if decompositions[q.Base] && c.DType.IsHalf() {
		policy := "promoted " + c.DType.Name() + " to float32"
		c.DType = dtypes.Float32
		return c, policy
	}
	return c, ""
}
