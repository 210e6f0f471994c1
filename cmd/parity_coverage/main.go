// parity_coverage reports which operators the accelerator implements natively. By default it scans every
// registered operator; operators given as arguments are checked instead, even if not registered.
//
// Example:
//
//	parity_coverage -only_missing -out=results/coverage.csv
//	parity_coverage aten::linalg_qr.default aten::_linalg_eigh.eigenvalues aten::unique_dim
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/gomlx/opparity/backends/default"
	"github.com/gomlx/opparity/internal/commandline"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity/coverage"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagOut         = flag.String("out", "", "If set, where to write the coverage CSV file.")
	flagOnlyMissing = flag.Bool("only_missing", false, "When scanning, only report operators without a native kernel.")
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
	requested, err := ops.ParseAll(flag.Args())
	if err != nil {
		klog.Fatalf("Invalid operator: %v", err)
	}

	accelerator := commandline.MustAccelerator(*flagAccelerator)
	defer accelerator.Finalize()
	scanner := coverage.New(accelerator)

	var rows []coverage.Row
	var summary coverage.Summary
	if len(requested) > 0 {
		progress := commandline.NewProgress(len(requested), "ops", *flagQuiet)
		scanner.OnRow = func(row coverage.Row) { progress.Done("%s", row.Qualname) }
		rows, summary = scanner.Check(requested)
		progress.Finish()
	} else {
		progress := commandline.NewProgress(len(coverage.Scannable(accelerator.Registry())), "ops", *flagQuiet)
		scanner.OnRow = func(row coverage.Row) { progress.Done("%s", row.Qualname) }
		rows, summary = scanner.Scan(*flagOnlyMissing)
		progress.Finish()
	}

	table := commandline.NewTable([]string{"op", "verdict", "implemented", "no fallback", "with fallback", "notice", "error"})
	for _, row := range rows {
		table.Row(!row.Implemented, row.Qualname, row.Verdict.String(), fmt.Sprint(row.Implemented),
			fallback.FormatBool(row.RanWithoutFallback), fallback.FormatBool(row.RanWithFallback),
			fallback.FormatBool(row.FallbackNotice), row.Error)
	}
	fmt.Println(table.String())
	fmt.Println(lipgloss.NewStyle().Bold(true).Render(summary.String()))

	if *flagOut != "" {
		_ = must.M1(fsutil.MakeDir(filepath.Dir(*flagOut)))
		f := must.M1(os.Create(*flagOut))
		must.M(coverage.WriteCSV(f, rows))
		must.M(f.Close())
		fmt.Printf("Wrote %q (%d rows)\n", *flagOut, len(rows))
	}
}
