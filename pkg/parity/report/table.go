package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/opparity/internal/commandline"
)

// Table renders the summaries with the command-line table style. Operators without any successful cell are
// highlighted. Use commandline.SetPlain for output without colors.
func Table(summaries []Summary) string {
	table := commandline.NewTable([]string{"op", "rows", "median×", "max×", "mean over (ms)"},
		lipgloss.Left, lipgloss.Right)
	for _, s := range summaries {
		table.Row(s.Rows == 0, s.Qualname, fmt.Sprint(s.Rows),
			formatNumber(s.MedianPenalty), formatNumber(s.MaxPenalty), formatNumber(s.MeanOverMS))
	}
	return table.String()
}
