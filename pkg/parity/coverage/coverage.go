// Package coverage scans which operators of a backend are implemented natively: statically, from the
// dispatch table, and dynamically, running the operator family probe with and without fallback.
package coverage

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/opparity/backends"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/parity/invocations"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Row is the coverage of one operator.
type Row struct {
	Qualname string
	Verdict  capability.Verdict

	// Implemented is whether the probe ran without fallback, or the static verdict if it was not probed.
	Implemented bool

	// Probe outcome, nil where not attempted. FallbackNotice is only set if the probe had to be retried
	// with fallback enabled.
	RanWithoutFallback, RanWithFallback, FallbackNotice *bool

	Error string
}

// Summary of a scan.
type Summary struct {
	// Total operators scanned, and how many of them have a native kernel according to the dispatch table.
	Total, Native int

	// Utilization is the delta of the backend counters during the scan, if the backend keeps them.
	Utilization *backends.Stats
}

// Missing is the number of operators without a native kernel according to the dispatch table.
func (s Summary) Missing() int {
	return s.Total - s.Native
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	str := fmt.Sprintf("%d operators: %d natively implemented, %d missing", s.Total, s.Native, s.Missing())
	if s.Utilization != nil {
		str += "\nprobes: " + s.Utilization.String()
	}
	return str
}

// Scanner probes the operators of an accelerator backend.
type Scanner struct {
	Backend    backends.Backend
	Classifier *capability.Classifier
	Builder    *invocations.Builder
	Detector   *fallback.Detector

	// OnRow, if set, is called after each operator, e.g. to report progress.
	OnRow func(row Row)
}

// New returns a Scanner for backend with the default components.
func New(backend backends.Backend) *Scanner {
	return &Scanner{
		Backend:    backend,
		Classifier: capability.New(backend),
		Builder:    invocations.New(),
		Detector:   fallback.New(),
	}
}

// Scannable returns the operators of the registry that Scan visits: those whose base name is not
// "_"-prefixed (private operators are reached through their public family), sorted.
func Scannable(registry *ops.Registry) []ops.Qualname {
	var qs []ops.Qualname
	for _, q := range registry.All() {
		if !strings.HasPrefix(q.Base, "_") {
			qs = append(qs, q)
		}
	}
	return qs
}

// Scan every scannable operator of the backend. If onlyMissing is set, rows are only returned (and probes
// only run) for operators without a native kernel.
func (s *Scanner) Scan(onlyMissing bool) (rows []Row, summary Summary) {
	defer s.measure(&summary)()
	qs := Scannable(s.Backend.Registry())
	verdicts := s.Classifier.ClassifyAll(qs)
	for _, q := range qs {
		summary.Total++
		verdict := verdicts[q]
		if verdict == capability.NativelyImplemented {
			summary.Native++
			if onlyMissing {
				continue
			}
		}
		rows = append(rows, s.emit(s.check(q, verdict)))
	}
	return rows, summary
}

// Check the given operators, which need not be registered: unknown operators get an Unknown verdict and
// are not probed.
func (s *Scanner) Check(qs []ops.Qualname) (rows []Row, summary Summary) {
	rows = make([]Row, 0, len(qs))
	defer s.measure(&summary)()
	verdicts := s.Classifier.ClassifyAll(qs)
	for _, q := range qs {
		verdict := verdicts[q]
		summary.Total++
		if verdict == capability.NativelyImplemented {
			summary.Native++
		}
		rows = append(rows, s.emit(s.check(q, verdict)))
	}
	return rows, summary
}

// measure the utilization counters of the backend: the returned function stores the delta in summary.
func (s *Scanner) measure(summary *Summary) func() {
	reporter, ok := s.Backend.(backends.StatsReporter)
	if !ok {
		return func() {}
	}
	before := reporter.Stats()
	return func() {
		delta := reporter.Stats().Sub(before)
		summary.Utilization = &delta
	}
}

func (s *Scanner) emit(row Row) Row {
	if s.OnRow != nil {
		s.OnRow(row)
	}
	return row
}

func (s *Scanner) check(q ops.Qualname, verdict capability.Verdict) Row {
	row := Row{Qualname: q.String(), Verdict: verdict, Implemented: verdict == capability.NativelyImplemented}
	inv, err := s.Builder.FamilyProbe(s.Backend, q)
	if err != nil {
		if !errors.Is(err, invocations.ErrNoProbe) {
			row.Error = parity.TruncateError(err)
		}
		klog.V(1).Infof("coverage: %s not probed: %v", q, err)
		return row
	}
	probe := s.Detector.Probe(inv)
	row.RanWithoutFallback = probe.RanWithoutFallback
	row.RanWithFallback = probe.RanWithFallback
	if probe.RanWithFallback != nil {
		row.FallbackNotice = probe.FallbackObserved
	}
	if probe.Err != nil {
		row.Error = parity.TruncateError(probe.Err)
	}
	if row.RanWithoutFallback != nil {
		row.Implemented = *row.RanWithoutFallback
	}
	klog.V(1).Infof("coverage: %s: verdict=%s probe=%q", q, verdict, probe.Status())
	return row
}

// Columns of the coverage CSV.
var Columns = []string{"qualname", "static_verdict", "implemented", "ran_no_fallback", "ran_with_fallback", "fallback_warn", "error"}

// WriteCSV writes the rows with a header.
func WriteCSV(w io.Writer, rows []Row) error {
	columns := make([][]string, len(Columns))
	for ii := range columns {
		columns[ii] = make([]string, 0, len(rows))
	}
	for _, row := range rows {
		for ii, value := range []string{
			row.Qualname, row.Verdict.String(), fallback.FormatBool(&row.Implemented),
			fallback.FormatBool(row.RanWithoutFallback), fallback.FormatBool(row.RanWithFallback),
			fallback.FormatBool(row.FallbackNotice), row.Error,
		} {
			columns[ii] = append(columns[ii], value)
		}
	}
	allSeries := make([]series.Series, len(Columns))
	for ii, name := range Columns {
		allSeries[ii] = series.New(columns[ii], series.String, name)
	}
	df := dataframe.New(allSeries...)
	if df.Err != nil {
		return errors.Wrap(df.Err, "failed to build coverage dataframe")
	}
	return errors.Wrap(df.WriteCSV(w), "failed to write coverage")
}
