// Package report summarizes matrix results per operator, and renders the summary as Markdown, as a
// terminal table or as a bar chart.
package report

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"text/template"

	"github.com/gomlx/opparity/pkg/parity/matrix"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// DefaultTop is the number of operators included in the reports.
const DefaultTop = 30

// Summary of the successful rows of one operator. Statistics without any value are NaN.
type Summary struct {
	Qualname      string
	Rows          int
	MaxPenalty    float64
	MedianPenalty float64
	MeanOverMS    float64
}

// Summarize groups the rows with status "ok" (or no status) by operator, and returns them ranked by
// descending median penalty. Operators without any penalty are ranked last.
func Summarize(rows []matrix.Row) []Summary {
	type group struct {
		rows      int
		penalties []float64
		overs     []float64
	}
	groups := make(map[string]*group)
	for _, row := range rows {
		if row.Status != matrix.StatusOK && row.Status != "" {
			continue
		}
		g, found := groups[row.Qualname]
		if !found {
			g = &group{}
			groups[row.Qualname] = g
		}
		g.rows++
		if row.Penalty != nil {
			g.penalties = append(g.penalties, *row.Penalty)
		}
		if row.OverMS != nil {
			g.overs = append(g.overs, *row.OverMS)
		}
	}

	summaries := make([]Summary, 0, len(groups))
	for qualname, g := range groups {
		s := Summary{Qualname: qualname, Rows: g.rows, MaxPenalty: math.NaN(), MedianPenalty: math.NaN(), MeanOverMS: math.NaN()}
		if len(g.penalties) > 0 {
			slices.Sort(g.penalties)
			s.MaxPenalty = g.penalties[len(g.penalties)-1]
			s.MedianPenalty = median(g.penalties)
		}
		if len(g.overs) > 0 {
			s.MeanOverMS = stat.Mean(g.overs, nil)
		}
		summaries = append(summaries, s)
	}
	slices.SortFunc(summaries, func(a, b Summary) int {
		aNaN, bNaN := math.IsNaN(a.MedianPenalty), math.IsNaN(b.MedianPenalty)
		switch {
		case aNaN && !bNaN:
			return 1
		case !aNaN && bNaN:
			return -1
		case !aNaN && a.MedianPenalty != b.MedianPenalty:
			return cmp.Compare(b.MedianPenalty, a.MedianPenalty)
		}
		return strings.Compare(a.Qualname, b.Qualname)
	})
	return summaries
}

// median of sorted values, averaging the two middle values for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// Top returns the first n summaries. n <= 0 means all of them.
func Top(summaries []Summary, n int) []Summary {
	if n > 0 && len(summaries) > n {
		return summaries[:n]
	}
	return summaries
}

// Data is the input of the Markdown template.
type Data struct {
	Environment string
	Top         []Summary
	TotalRows   int
}

// NoResults is the whole report when there are no rows.
const NoResults = "# No results"

// MarkdownTemplate renders Data.
var MarkdownTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"num": formatNumber,
}).Parse(`# Accelerator Fallback Bench: Summary

**Environment:** {{ .Environment }}

## Top Pain (by median penalty)
| op | rows | median× | max× | mean over (ms) |
|---|---:|---:|---:|---:|
{{ range .Top -}}
| {{ .Qualname }} | {{ .Rows }} | {{ num .MedianPenalty }} | {{ num .MaxPenalty }} | {{ num .MeanOverMS }} |
{{ end }}
## Raw rows
Total rows: {{ .TotalRows }}
`))

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// Markdown writes the report of the rows: the top DefaultTop operators by median penalty.
// Environment describes where the results were collected.
func Markdown(w io.Writer, rows []matrix.Row, environment string) error {
	if len(rows) == 0 {
		_, err := io.WriteString(w, NoResults)
		return errors.Wrap(err, "failed to write report")
	}
	data := Data{
		Environment: environment,
		Top:         Top(Summarize(rows), DefaultTop),
		TotalRows:   len(rows),
	}
	if err := MarkdownTemplate.Execute(w, data); err != nil {
		return errors.Wrap(err, "failed to render report")
	}
	return nil
}
