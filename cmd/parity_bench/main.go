// parity_bench runs the operator matrix: for each operator of the targets document (or given with -ops),
// and each shape and dtype, it times the reference backend and the accelerator with fallback permitted,
// and writes one CSV file of results per operator.
//
// Example:
//
//	parity_bench -targets=ops/targets.yaml -top=5 -out=results
//	parity_bench -ops=aten::cumsum.default -shapes="[64, 1024];[8192]" -dtypes=float32
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/opparity/backends"
	_ "github.com/gomlx/opparity/backends/default"
	"github.com/gomlx/opparity/internal/commandline"
	"github.com/gomlx/opparity/pkg/core/dtypes"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/core/shapes"
	"github.com/gomlx/opparity/pkg/parity/matrix"
	"github.com/gomlx/opparity/pkg/parity/results"
	"github.com/gomlx/opparity/pkg/parity/targets"
	"github.com/gomlx/opparity/pkg/parity/timing"
	"github.com/gomlx/opparity/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagTargets = flag.String("targets", "ops/targets.yaml", "Targets document with the operators to run. Ignored if -ops is given.")
	flagTop     = flag.Int("top", 0, "If > 0, only run the top operators of the targets document not yet implemented.")
	flagOps     = xslices.StringsFlag("ops", nil, "Comma-separated operators to run, e.g. \"aten::cumsum.default,aten::topk\".")
	flagShapes  = xslices.Flag("shapes", nil,
		"Shapes to run the -ops with, separated by \";\", e.g. \"[64, 1024];[8192]\". Defaults to the family shapes.",
		shapes.ParseDims)
	flagDTypes = xslices.Flag("dtypes", nil,
		"DTypes to run the -ops with, e.g. \"float16,float32\". Defaults to float16 and float32.", dtypes.FromName)
	flagOut         = flag.String("out", "results", "Directory where to write the per-operator CSV files.")
	flagMinRunTime  = flag.Duration("min_run_time", timing.DefaultMinRunTime, "Minimum measured time per timing.")
	flagReference   = flag.String("reference", "", "Reference backend configuration. Defaults to $PARITY_REFERENCE or \"cpu\".")
	flagAccelerator = flag.String("accelerator", "", "Accelerator backend configuration. Defaults to $PARITY_ACCELERATOR or \"accel\".")
	flagPlain       = flag.Bool("plain", false, "Plain output, without colors.")
	flagQuiet       = flag.Bool("quiet", false, "Don't display the progress bar.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagPlain {
		commandline.SetPlain()
	}

	entries := must.M1(loadEntries())
	if len(entries) == 0 {
		klog.Errorf("No operators to run: see 'parity_bench -help'.")
		os.Exit(1)
	}
	reference, accelerator := commandline.MustBackends(*flagReference, *flagAccelerator)
	defer accelerator.Finalize()
	defer reference.Finalize()

	runner := matrix.New(reference, accelerator)
	runner.Harness = timing.New().MinRunTime(*flagMinRunTime)
	progress := commandline.NewProgress(matrix.NumCells(entries), "cells", *flagQuiet)
	runner.OnRow = func(row matrix.Row) {
		progress.Done("%s %s %s", row.Qualname, row.Shape, row.DType)
	}
	start := time.Now()
	allResults := runner.RunEntries(entries)
	progress.Finish()

	table := commandline.NewTable([]string{"op", "shape", "dtype", "cpu", "accel", "penalty", "fallback", "status"},
		lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	for _, result := range allResults {
		path := must.M1(results.Save(*flagOut, result.Op, result.Rows))
		klog.V(1).Infof("Wrote %s", path)
		for _, row := range result.Rows {
			fallbackObserved := "?"
			if row.FallbackObserved != nil {
				fallbackObserved = fmt.Sprint(*row.FallbackObserved)
			}
			table.Row(row.Status != matrix.StatusOK, row.Qualname, row.Shape, row.DType,
				commandline.FormatSeconds(row.TimeCPU), commandline.FormatSeconds(row.TimeAccel),
				commandline.FormatFactor(row.Penalty), fallbackObserved, string(row.Status))
		}
	}
	fmt.Println(table.String())
	if reporter, ok := accelerator.(backends.StatsReporter); ok {
		fmt.Printf("Accelerator utilization: %s\n", reporter.Stats())
	}
	fmt.Printf("%s cells of %d operators in %s, results in %q\n",
		commandline.FormatCount(table.Count), len(allResults), commandline.FormatDuration(time.Since(start)), *flagOut)
}

// loadEntries from -ops, or from the targets document.
func loadEntries() ([]matrix.Entry, error) {
	if len(*flagOps) > 0 {
		qs, err := ops.ParseAll(*flagOps)
		if err != nil {
			return nil, err
		}
		entries := make([]matrix.Entry, len(qs))
		for ii, q := range qs {
			entries[ii] = matrix.Entry{Op: q, Shapes: *flagShapes, DTypes: *flagDTypes}
		}
		return entries, nil
	}
	doc, err := targets.Load(*flagTargets)
	if err != nil {
		return nil, err
	}
	if *flagTop > 0 {
		doc.Ops = doc.Pick(*flagTop)
	}
	return doc.MatrixEntries()
}
