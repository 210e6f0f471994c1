package commandline

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"
)

// ProgressbarStyle to use. Defaults to the ASCII version.
var ProgressbarStyle = progressbar.ThemeASCII

// Progress displays a progress bar over a known number of items (matrix cells, scanned operators),
// with a description of the last item.
type Progress struct {
	bar     *progressbar.ProgressBar
	termenv *termenv.Output
}

// NewProgress creates a progress bar for total items, written to os.Stderr.
// If quiet is set, nothing is displayed.
func NewProgress(total int, itemsName string, quiet bool) *Progress {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	p := &Progress{termenv: termenv.NewOutput(w)}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(itemsName),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionClearOnFinish(),
	)
	if !quiet {
		p.termenv.HideCursor()
	}
	return p
}

// Done marks one item as done, and shows its description next to the bar.
func (p *Progress) Done(format string, args ...any) {
	p.bar.Describe(fmt.Sprintf(format, args...))
	_ = p.bar.Add(1)
}

// Finish clears the progress bar and restores the cursor.
func (p *Progress) Finish() {
	_ = p.bar.Finish()
	p.termenv.ShowCursor()
}
