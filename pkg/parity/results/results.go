// Package results exports and imports matrix rows as CSV files, one per operator.
package results

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/gomlx/opparity/pkg/parity/fallback"
	"github.com/gomlx/opparity/pkg/parity/matrix"
	"github.com/gomlx/opparity/pkg/support/fsutil"
	"github.com/pkg/errors"
)

// Columns of the result files, in order.
var Columns = []string{
	"qualname", "shape", "dtype",
	"time_cpu_s", "time_accel_fallback_s", "penalty_factor", "over_ms",
	"static_verdict", "fallback_observed", "status", "error", "policy",
}

// FileName returns the result file name for operator q, e.g. "aten_cumsum_default.csv".
func FileName(q ops.Qualname) string {
	return q.FileName() + ".csv"
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid number %q", s)
	}
	return &v, nil
}

func rowRecord(row matrix.Row) []string {
	return []string{
		row.Qualname, row.Shape, row.DType,
		formatFloat(row.TimeCPU), formatFloat(row.TimeAccel), formatFloat(row.Penalty), formatFloat(row.OverMS),
		row.StaticVerdict.String(), fallback.FormatBool(row.FallbackObserved), string(row.Status), row.Error, row.Policy,
	}
}

// DataFrame converts rows to a dataframe with the Columns, all of them strings. Missing values are empty strings.
func DataFrame(rows []matrix.Row) dataframe.DataFrame {
	columns := make([][]string, len(Columns))
	for _, row := range rows {
		for ii, value := range rowRecord(row) {
			columns[ii] = append(columns[ii], value)
		}
	}
	allSeries := make([]series.Series, len(Columns))
	for ii, name := range Columns {
		if columns[ii] == nil {
			columns[ii] = []string{}
		}
		allSeries[ii] = series.New(columns[ii], series.String, name)
	}
	return dataframe.New(allSeries...)
}

// WriteCSV writes the rows, with a header line.
func WriteCSV(w io.Writer, rows []matrix.Row) error {
	df := DataFrame(rows)
	if df.Err != nil {
		return errors.Wrap(df.Err, "failed to build results dataframe")
	}
	if err := df.WriteCSV(w); err != nil {
		return errors.Wrap(err, "failed to write results")
	}
	return nil
}

// ReadCSV reads rows written by WriteCSV.
func ReadCSV(r io.Reader) ([]matrix.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read results")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty results file, missing header")
	}
	if !bytes.Contains(bytes.TrimSpace(data), []byte("\n")) {
		// Header only.
		header := strings.Split(strings.TrimSpace(string(data)), ",")
		if err := checkColumns(header); err != nil {
			return nil, err
		}
		return nil, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.DetectTypes(false), dataframe.DefaultType(series.String), dataframe.NaNValues(nil))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to parse results")
	}
	if err := checkColumns(df.Names()); err != nil {
		return nil, err
	}
	columns := make(map[string][]string, len(Columns))
	for _, name := range Columns {
		columns[name] = df.Col(name).Records()
	}
	rows := make([]matrix.Row, df.Nrow())
	for ii := range rows {
		row, err := parseRow(func(name string) string { return columns[name][ii] })
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", ii+1)
		}
		rows[ii] = row
	}
	return rows, nil
}

func checkColumns(names []string) error {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	for _, name := range Columns {
		if !present[name] {
			return errors.Errorf("results are missing column %q", name)
		}
	}
	return nil
}

func parseRow(get func(name string) string) (row matrix.Row, err error) {
	row = matrix.Row{
		Qualname:         get("qualname"),
		Shape:            get("shape"),
		DType:            get("dtype"),
		StaticVerdict:    capability.ParseVerdict(get("static_verdict")),
		FallbackObserved: fallback.ParseBool(get("fallback_observed")),
		Status:           matrix.Status(get("status")),
		Error:            get("error"),
		Policy:           get("policy"),
	}
	for _, field := range []struct {
		column string
		target **float64
	}{
		{"time_cpu_s", &row.TimeCPU},
		{"time_accel_fallback_s", &row.TimeAccel},
		{"penalty_factor", &row.Penalty},
		{"over_ms", &row.OverMS},
	} {
		if *field.target, err = parseFloat(get(field.column)); err != nil {
			return row, errors.WithMessagef(err, "column %q", field.column)
		}
	}
	return row, nil
}

// Save writes the rows of one operator to dir/FileName(q), creating dir if needed. It returns the path written.
func Save(dir string, q ops.Qualname, rows []matrix.Row) (string, error) {
	dir, err := fsutil.MakeDir(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(q))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %q", path)
	}
	if err = WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return "", errors.WithMessagef(err, "writing %q", path)
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close %q", path)
	}
	return path, nil
}

// Load reads the rows of a result file.
func Load(path string) ([]matrix.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	rows, err := ReadCSV(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading %q", path)
	}
	return rows, nil
}

// ReadDir reads and concatenates the rows of all ".csv" files in dir, in file name order.
func ReadDir(dir string) ([]matrix.Row, error) {
	files, err := fsutil.ListFiles(dir, ".csv")
	if err != nil {
		return nil, err
	}
	var rows []matrix.Row
	for _, path := range files {
		fileRows, err := Load(path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}
