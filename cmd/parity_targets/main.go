// parity_targets builds the targets document: it reads exported community mentions (JSON arrays of
// issue comments), scores the operators they mention, annotates them with the accelerator capability
// and writes the prioritized operators to a YAML document.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/gomlx/opparity/backends/default"
	"github.com/gomlx/opparity/internal/commandline"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/parity/priority"
	"github.com/gomlx/opparity/pkg/parity/targets"
	"github.com/gomlx/opparity/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagOut         = flag.String("out", "ops/targets.yaml", "Where to write the targets document.")
	flagMinScore    = flag.Float64("min_score", priority.DefaultMinScore, "Minimum score for an operator to be included.")
	flagNow         = flag.String("now", "", "Date (YYYY-MM-DD) used to compute the recency of mentions. Defaults to today.")
	flagAccelerator = flag.String("accelerator", "", "Accelerator backend configuration. Defaults to $PARITY_ACCELERATOR or \"accel\".")
	flagPlain       = flag.Bool("plain", false, "Plain output, without colors.")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <mentions.json>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *flagPlain {
		commandline.SetPlain()
	}
	if flag.NArg() == 0 {
		klog.Errorf("Missing mentions files to read from. See 'parity_targets -help'.")
		os.Exit(1)
	}

	var mentions []priority.Mention
	for _, path := range flag.Args() {
		fileMentions, err := priority.LoadMentions(path)
		if err != nil {
			klog.Fatalf("Failed to load mentions: %+v", err)
		}
		klog.V(1).Infof("%s: %d mentions", path, len(fileMentions))
		mentions = append(mentions, fileMentions...)
	}

	accelerator := commandline.MustAccelerator(*flagAccelerator)
	defer accelerator.Finalize()
	scorer := priority.ForBackend(accelerator)
	scorer.MinScore = *flagMinScore
	if *flagNow != "" {
		now := must.M1(time.Parse(time.DateOnly, *flagNow))
		scorer.Now = func() time.Time { return now }
	}
	prioritized := scorer.Score(mentions)

	doc := targets.FromTargets(targets.Stamp(accelerator), prioritized)
	_ = must.M1(fsutil.MakeDir(filepath.Dir(*flagOut)))
	must.M(doc.Save(*flagOut))

	table := commandline.NewTable([]string{"op", "score", "voters", "thumbs", "last year", "verdict", "fallback"},
		lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Right, lipgloss.Right, lipgloss.Left)
	for _, t := range prioritized {
		table.Row(!t.Implemented && t.ConfirmedFallback != nil && *t.ConfirmedFallback,
			t.Op.String(), fmt.Sprintf("%.2f", t.Score), fmt.Sprint(t.Supporters), fmt.Sprint(t.Thumbs),
			fmt.Sprint(t.LastYear), t.Verdict.String(), fallback.FormatBool(t.ConfirmedFallback))
	}
	fmt.Println(table.String())
	fmt.Printf("Wrote %q: %d operators from %s mentions (run %s)\n",
		*flagOut, len(doc.Ops), commandline.FormatCount(len(mentions)), doc.Version.RunID)
}
