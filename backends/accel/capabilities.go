package accel

import (
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/dtypes"
)

// Capabilities of the accelerator: the operators with native kernels and the supported data types.
//
// Float64 is not supported by the device at all: FromHost throws backends.ErrUnsupportedDType for it.
var Capabilities = backends.Capabilities{
	Operations: map[string]bool{
		// Elementwise.
		"aten::add.Tensor":   true,
		"aten::mul.Tensor":   true,
		"aten::relu.default": true,

		// Reductions.
		"aten::sum.default":     true,
		"aten::sum.dim_IntList": true,
		"aten::amax.default":    true,
		"aten::amin.default":    true,

		// Indexing.
		"aten::index_select.default": true,
		"aten::gather.default":       true,
		"aten::topk.default":         true,

		// Neural network.
		"aten::_softmax.default":   true,
		"aten::softmax.int":        true,
		"aten::layer_norm.default": true,
	},

	DTypes: map[dtypes.DType]bool{
		dtypes.Bool:     true,
		dtypes.Int32:    true,
		dtypes.Int64:    true,
		dtypes.Float16:  true,
		dtypes.BFloat16: true,
		dtypes.Float32:  true,
	},
}

// Composites are operators implemented as a composition of other operators (CompositeImplicitAutograd),
// mapped to the operator they decompose to. They run natively if the operator they decompose to does.
var Composites = map[string]string{
	"aten::linalg_eigh.default": "aten::_linalg_eigh.default",
}

// Fallthroughs are operators with an explicit fall-through entry for the accelerator in the dispatch table,
// as opposed to no entry at all.
var Fallthroughs = map[string]bool{
	"aten::cummin.default":     true,
	"aten::cummin.out":         true,
	"aten::unique_dim.default": true,
}
