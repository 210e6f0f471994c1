// parity_report aggregates the per-operator result files into a summary: the operators ranked by median
// fallback penalty, as a Markdown report, a terminal table and optionally a bar chart.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/opparity/internal/commandline"
	"github.com/gomlx/opparity/pkg/parity/report"
	"github.com/gomlx/opparity/pkg/parity/results"
	"github.com/gomlx/opparity/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagResults     = flag.String("results", "results", "Directory with the per-operator CSV result files.")
	flagOut         = flag.String("out", "report/summary.md", "Where to write the Markdown summary.")
	flagChart       = flag.String("chart", "", "If set, where to save a bar chart (e.g. \"report/penalties.png\") of the median penalties.")
	flagTop         = flag.Int("top", report.DefaultTop, "Number of operators to include in the table and chart.")
	flagEnvironment = flag.String("environment", "", "Description of the environment the results were collected in.")
	flagPlain       = flag.Bool("plain", false, "Plain output, without colors.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagPlain {
		commandline.SetPlain()
	}

	rows, err := results.ReadDir(*flagResults)
	if err != nil {
		klog.Fatalf("Failed to read results: %+v", err)
	}
	environment := *flagEnvironment
	if environment == "" {
		environment = "unknown"
	}

	_ = must.M1(fsutil.MakeDir(filepath.Dir(*flagOut)))
	var md strings.Builder
	must.M(report.Markdown(&md, rows, environment))
	must.M(os.WriteFile(*flagOut, []byte(md.String()), 0o644))
	fmt.Printf("Wrote %q (%s rows)\n", *flagOut, commandline.FormatCount(len(rows)))
	if len(rows) == 0 {
		return
	}

	top := report.Top(report.Summarize(rows), *flagTop)
	fmt.Println(commandline.TitleStyle.Render("Top pain, by median penalty"))
	fmt.Println(report.Table(top))
	if *flagChart != "" {
		_ = must.M1(fsutil.MakeDir(filepath.Dir(*flagChart)))
		if err := report.Chart(top, *flagChart); err != nil {
			klog.Errorf("Chart not saved: %+v", err)
		} else {
			fmt.Printf("Wrote %q\n", *flagChart)
		}
	}
}
