// Package matrix runs the operator matrix: for every (operator, shape, dtype) it times the reference
// backend and the accelerator (with fallback permitted), confirms whether the accelerator falls back,
// and computes the penalty. Each cell yields one Row, and failures of a cell never stop the matrix.
package matrix

import (
	"fmt"
	"slices"

	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/internal/scoped"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/parity/invocations"
	"github.com/gomlx/opparity/pkg/parity/timing"
	"k8s.io/klog/v2"
)

// Status of a Row.
type Status string

const (
	StatusOK         Status = "ok"
	StatusCPUError   Status = "cpu_error"
	StatusAccelError Status = "accel_error"
)

// Row is the result of one (operator, shape, dtype) cell. It is not modified after it is emitted.
type Row struct {
	Qualname string
	Shape    string
	DType    string

	// TimeCPU and TimeAccel are the median latencies in seconds, nil if not measured.
	TimeCPU, TimeAccel *float64

	// Penalty is TimeAccel/TimeCPU and OverMS is (TimeAccel-TimeCPU) in milliseconds, nil if either timing is nil.
	Penalty, OverMS *float64

	StaticVerdict    capability.Verdict
	FallbackObserved *bool

	Status Status

	// Error text, truncated to parity.MaxErrorLength. If both backends failed, it's the reference's error.
	Error string

	// Policy is the substitution applied to the case, if any (e.g. a dtype promotion).
	Policy string
}

// String implements fmt.Stringer.
func (r Row) String() string {
	penalty := "-"
	if r.Penalty != nil {
		penalty = fmt.Sprintf("%.2fx", *r.Penalty)
	}
	return fmt.Sprintf("%s %s %s: %s penalty=%s verdict=%s fallback=%s",
		r.Qualname, r.Shape, r.DType, r.Status, penalty, r.StaticVerdict, fallback.FormatBool(r.FallbackObserved))
}

// Runner runs the matrix of an operator on a reference and an accelerator backend.
type Runner struct {
	Reference, Accelerator backends.Backend

	Builder    *invocations.Builder
	Harness    *timing.Harness
	Detector   *fallback.Detector
	Classifier *capability.Classifier

	// OnRow, if set, is called after each cell, e.g. to report progress.
	OnRow func(row Row)
}

// New returns a Runner with the default components.
func New(reference, accelerator backends.Backend) *Runner {
	return &Runner{
		Reference:   reference,
		Accelerator: accelerator,
		Builder:     invocations.New(),
		Harness:     timing.New(),
		Detector:    fallback.New(),
		Classifier:  capability.New(accelerator),
	}
}

// Run every (shape, dtype) combination of operator q, shapes in the outer loop. The static verdict is
// computed once and attached to every row.
func (r *Runner) Run(q ops.Qualname, shapeList [][]int, dtypeList []dtypes.DType) []Row {
	verdict := r.Classifier.Classify(q)
	rows := make([]Row, 0, len(shapeList)*len(dtypeList))
	for _, c := range invocations.Cases(shapeList, dtypeList) {
		row := r.runCell(q, c, verdict)
		klog.V(1).Infof("matrix: %s", row)
		if r.OnRow != nil {
			r.OnRow(row)
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *Runner) runCell(q ops.Qualname, c invocations.Case, verdict capability.Verdict) Row {
	row := Row{
		Qualname:      q.String(),
		Shape:         shapes.FormatDims(c.Shape),
		DType:         c.DType.Name(),
		StaticVerdict: verdict,
		Status:        StatusOK,
	}
	fail := func(status Status, err error) {
		if row.Status != StatusOK {
			// The first failure keeps its status and error text.
			return
		}
		row.Status = status
		row.Error = parity.TruncateError(err)
	}

	// Reference.
	refInv, err := r.Builder.Build(r.Reference, q, c)
	if err != nil {
		fail(StatusCPUError, err)
	} else {
		row.Policy = refInv.Policy
		if sample, err := r.Harness.Time(refInv); err != nil {
			fail(StatusCPUError, err)
		} else {
			row.TimeCPU = parity.Float(sample.Seconds())
		}
	}

	// Accelerator, with fallback permitted.
	func() {
		defer scoped.Fallback(true)()
		accelInv, err := r.Builder.Build(r.Accelerator, q, c)
		if err != nil {
			fail(StatusAccelError, err)
			return
		}
		row.Policy = accelInv.Policy
		probe := r.Detector.Probe(accelInv)
		row.FallbackObserved = probe.FallbackObserved
		if !probe.Executable() {
			fail(StatusAccelError, probe.Err)
			return
		}
		accelInv.Synchronize()
		sample, err := r.Harness.Time(accelInv)
		accelInv.Synchronize()
		if err != nil {
			fail(StatusAccelError, err)
			return
		}
		row.TimeAccel = parity.Float(sample.Seconds())
	}()

	if row.TimeCPU != nil && row.TimeAccel != nil {
		row.Penalty = parity.Float(*row.TimeAccel / *row.TimeCPU)
		row.OverMS = parity.Float((*row.TimeAccel - *row.TimeCPU) * 1e3)
	}
	return row
}

// Entry of an operator to run: empty Shapes or DTypes are replaced by the family defaults
// (see invocations.DefaultShapes and invocations.DefaultDTypes).
type Entry struct {
	Op     ops.Qualname
	Shapes [][]int
	DTypes []dtypes.DType
}

// Result holds the rows of one operator entry.
type Result struct {
	Op   ops.Qualname
	Rows []Row
}

// RunEntries runs each entry in order.
func (r *Runner) RunEntries(entries []Entry) []Result {
	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		shapeList := entry.Shapes
		if len(shapeList) == 0 {
			shapeList = invocations.DefaultShapes(entry.Op.Base)
		}
		dtypeList := entry.DTypes
		if len(dtypeList) == 0 {
			dtypeList = slices.Clone(invocations.DefaultDTypes)
		}
		results = append(results, Result{Op: entry.Op, Rows: r.Run(entry.Op, shapeList, dtypeList)})
	}
	return results
}

// NumCells returns the number of rows RunEntries will produce, e.g. to size a progress bar.
func NumCells(entries []Entry) int {
	total := 0
	for _, entry := range entries {
		numShapes, numDTypes := len(entry.Shapes), len(entry.DTypes)
		if numShapes == 0 {
			numShapes = len(invocations.DefaultShapes(entry.Op.Base))
		}
		if numDTypes == 0 {
			numDTypes = len(invocations.DefaultDTypes)
		}
		total += numShapes * numDTypes
	}
	return total
}
