package kernels

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/core/tensors"
	"gonum.org/v1/gonum/mat"
)

// batchedMatrices validates x as a (batched) matrix, returning the batch size and the matrix
// dimensions. Low precision dtypes are rejected: decompositions are only implemented for Float32 and
// Float64.
func batchedMatrices(name string, x *tensors.Tensor) (batch, rows, cols int) {
	if x.Shape().Rank() < 2 {
		exceptions.Panicf("%s: expected a (batched) matrix, got shape %s", name, x.Shape())
	}
	if dtype := x.DType(); dtype != dtypes.Float32 && dtype != dtypes.Float64 {
		exceptions.Panicf("%s: low precision dtypes not supported, got %s", name, dtype)
	}
	dims := x.Shape().Dimensions
	rows, cols = dims[len(dims)-2], dims[len(dims)-1]
	batch = x.Shape().Size() / max(rows*cols, 1)
	return
}

func eigh(x *tensors.Tensor, uplo string, vectors bool) (values, vecs *tensors.Tensor) {
	batch, n, cols := batchedMatrices("linalg_eigh", x)
	if n != cols {
		exceptions.Panicf("linalg_eigh: expected square matrices, got shape %s", x.Shape())
	}
	dims := x.Shape().Dimensions
	values = tensors.FromShape(shapes.Make(x.DType(), dims[:len(dims)-1]...))
	if vectors {
		vecs = tensors.FromShape(x.Shape())
	}
	xFlat := x.Flat()
	sym := mat.NewSymDense(n, nil)
	var es mat.EigenSym
	var ev mat.Dense
	for b := 0; b < batch; b++ {
		m := xFlat[b*n*n : (b+1)*n*n]
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				if uplo == "U" {
					sym.SetSym(i, j, m[j*n+i])
				} else {
					sym.SetSym(i, j, m[i*n+j])
				}
			}
		}
		if !es.Factorize(sym, vectors) {
			exceptions.Panicf("linalg_eigh: the algorithm failed to converge for batch element %d", b)
		}
		copy(values.Flat()[b*n:(b+1)*n], es.Values(nil))
		if vectors {
			es.VectorsTo(&ev)
			vFlat := vecs.Flat()[b*n*n : (b+1)*n*n]
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					vFlat[i*n+j] = ev.At(i, j)
				}
			}
			ev.Reset()
		}
	}
	values.RoundAll()
	if vecs != nil {
		vecs.RoundAll()
	}
	return
}

func execEigh(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	values, vecs := eigh(inputs[0], attrs.Str("UPLO", "L"), true)
	return []*tensors.Tensor{values, vecs}
}

func execEigvalsh(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	values, _ := eigh(inputs[0], attrs.Str("UPLO", "L"), false)
	return []*tensors.Tensor{values}
}

// execQR computes the QR decomposition of (batched) matrices with rows >= columns.
// Attribute "mode" is "reduced" (default) or "complete".
func execQR(inputs []*tensors.Tensor, attrs ops.Attrs) []*tensors.Tensor {
	x := inputs[0]
	batch, m, n := batchedMatrices("linalg_qr", x)
	if m < n {
		exceptions.Panicf("linalg_qr: expected rows >= columns, got shape %s", x.Shape())
	}
	mode := attrs.Str("mode", "reduced")
	k := n
	switch mode {
	case "reduced":
	case "complete":
		k = m
	default:
		exceptions.Panicf("linalg_qr: unknown mode %q", mode)
	}
	batchDims := slices.Clone(x.Shape().Dimensions[:x.Shape().Rank()-2])
	q := tensors.FromShape(shapes.Make(x.DType(), append(slices.Clone(batchDims), m, k)...))
	r := tensors.FromShape(shapes.Make(x.DType(), append(slices.Clone(batchDims), k, n)...))
	xFlat, qFlat, rFlat := x.Flat(), q.Flat(), r.Flat()
	var decomposition mat.QR
	var qFull, rFull mat.Dense
	for b := 0; b < batch; b++ {
		a := mat.NewDense(m, n, slices.Clone(xFlat[b*m*n:(b+1)*m*n]))
		decomposition.Factorize(a)
		decomposition.QTo(&qFull)
		decomposition.RTo(&rFull)
		for i := 0; i < m; i++ {
			for j := 0; j < k; j++ {
				qFlat[b*m*k+i*k+j] = qFull.At(i, j)
			}
		}
		for i := 0; i < k; i++ {
			for j := 0; j < n; j++ {
				rFlat[b*k*n+i*n+j] = rFull.At(i, j)
			}
		}
		qFull.Reset()
		rFull.Reset()
	}
	return []*tensors.Tensor{q.RoundAll(), r.RoundAll()}
}
