// parity_pick lists the highest-priority operators of the targets document that are not implemented yet.
package main

import (
	"flag"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/opparity/internal/commandline"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/parity/targets"
	"k8s.io/klog/v2"
)

var (
	flagTargets = flag.String("targets", "ops/targets.yaml", "Targets document to pick from.")
	flagTop     = flag.Int("top", 10, "Number of operators to list.")
	flagPlain   = flag.Bool("plain", false, "Plain output, without colors.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagPlain {
		commandline.SetPlain()
	}
	doc, err := targets.Load(*flagTargets)
	if err != nil {
		klog.Fatalf("%+v", err)
	}
	table := commandline.NewTable([]string{"score", "op", "users", "last", "fallback"},
		lipgloss.Right, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Left)
	for _, op := range doc.Pick(*flagTop) {
		table.Row(false, fmt.Sprintf("%5.2f", op.Score), op.Qualname, fmt.Sprint(op.Voters), fmt.Sprint(op.LastYear),
			fallback.FormatBool(op.ConfirmedFallback))
	}
	fmt.Println(table.String())
}
