package ops

// Aten is the namespace of the built-in tensor operator library.
const Aten = "aten"

// atenSchemas lists the built-in operators: name, number of tensor inputs, number of outputs and signature.
var atenSchemas = []Schema{
	{Name: Qualname{Aten, "add", "Tensor"}, NumInputs: 2, NumOutputs: 1, Doc: "add.Tensor(Tensor self, Tensor other) -> Tensor"},
	{Name: Qualname{Aten, "mul", "Tensor"}, NumInputs: 2, NumOutputs: 1, Doc: "mul.Tensor(Tensor self, Tensor other) -> Tensor"},
	{Name: Qualname{Aten, "relu", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "relu(Tensor self) -> Tensor"},
	{Name: Qualname{Aten, "sum", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "sum(Tensor self) -> Tensor"},
	{Name: Qualname{Aten, "sum", "dim_IntList"}, NumInputs: 1, NumOutputs: 1, Doc: "sum.dim_IntList(Tensor self, int[] dim, bool keepdim=False) -> Tensor"},
	{Name: Qualname{Aten, "amax", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "amax(Tensor self, int[] dim=[], bool keepdim=False) -> Tensor"},
	{Name: Qualname{Aten, "amin", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "amin(Tensor self, int[] dim=[], bool keepdim=False) -> Tensor"},
	{Name: Qualname{Aten, "cumsum", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "cumsum(Tensor self, int dim) -> Tensor"},
	{Name: Qualname{Aten, "cumsum", "out"}, NumInputs: 2, NumOutputs: 1, Doc: "cumsum.out(Tensor self, int dim, *, Tensor(a!) out) -> Tensor(a!)"},
	{Name: Qualname{Aten, "cummin", "default"}, NumInputs: 1, NumOutputs: 2, Doc: "cummin(Tensor self, int dim) -> (Tensor values, Tensor indices)"},
	{Name: Qualname{Aten, "cummin", "out"}, NumInputs: 3, NumOutputs: 2, Doc: "cummin.out(Tensor self, int dim, *, Tensor(a!) values, Tensor(b!) indices) -> (Tensor(a!), Tensor(b!))"},
	{Name: Qualname{Aten, "index_select", "default"}, NumInputs: 2, NumOutputs: 1, Doc: "index_select(Tensor self, int dim, Tensor index) -> Tensor"},
	{Name: Qualname{Aten, "gather", "default"}, NumInputs: 2, NumOutputs: 1, Doc: "gather(Tensor self, int dim, Tensor index) -> Tensor"},
	{Name: Qualname{Aten, "_softmax", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "_softmax(Tensor self, int dim, bool half_to_float) -> Tensor"},
	{Name: Qualname{Aten, "softmax", "int"}, NumInputs: 1, NumOutputs: 1, Doc: "softmax.int(Tensor self, int dim) -> Tensor"},
	{Name: Qualname{Aten, "layer_norm", "default"}, NumInputs: 3, NumOutputs: 1, Doc: "layer_norm(Tensor input, int[] normalized_shape, Tensor weight, Tensor bias, float eps) -> Tensor"},
	{Name: Qualname{Aten, "topk", "default"}, NumInputs: 1, NumOutputs: 2, Doc: "topk(Tensor self, int k, int dim=-1, bool largest=True, bool sorted=True) -> (Tensor values, Tensor indices)"},
	{Name: Qualname{Aten, "conv3d", "default"}, NumInputs: 2, NumOutputs: 1, Doc: "conv3d(Tensor input, Tensor weight, int[3] stride=1, int[3] padding=0) -> Tensor"},
	{Name: Qualname{Aten, "_linalg_eigh", "default"}, NumInputs: 1, NumOutputs: 2, Doc: "_linalg_eigh(Tensor A, str UPLO='L') -> (Tensor eigenvalues, Tensor eigenvectors)"},
	{Name: Qualname{Aten, "_linalg_eigh", "eigenvalues"}, NumInputs: 1, NumOutputs: 1, Doc: "_linalg_eigh.eigenvalues(Tensor A, str UPLO='L') -> Tensor eigenvalues"},
	{Name: Qualname{Aten, "linalg_eigh", "default"}, NumInputs: 1, NumOutputs: 2, Doc: "linalg_eigh(Tensor self, str UPLO='L') -> (Tensor eigenvalues, Tensor eigenvectors)"},
	{Name: Qualname{Aten, "linalg_qr", "default"}, NumInputs: 1, NumOutputs: 2, Doc: "linalg_qr(Tensor A, str mode='reduced') -> (Tensor Q, Tensor R)"},
	{Name: Qualname{Aten, "unique_dim", "default"}, NumInputs: 1, NumOutputs: 1, Doc: "unique_dim(Tensor self, int dim, bool sorted=True) -> Tensor"},
}

// Default returns a new Registry with all the built-in operators.
func Default() *Registry {
	r := NewRegistry()
	for _, schema := range atenSchemas {
		r.Register(schema)
	}
	return r
}
