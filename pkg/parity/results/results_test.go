package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/opparity/pkg/core/ops"
	"github.com/gomlx/opparity/pkg/parity"
	"github.com/gomlx/opparity/pkg/parity/capability"
	"github.com/gomlx/opparity/pkg/parity/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRows() []matrix.Row {
	return []matrix.Row{
		{
			Qualname: "aten::cumsum.default", Shape: "[64, 1024]", DType: "float16",
			TimeCPU: parity.Float(0.00125), TimeAccel: parity.Float(0.0025),
			Penalty: parity.Float(2), OverMS: parity.Float(1.25),
			StaticVerdict: capability.Fallback, FallbackObserved: parity.Bool(true), Status: matrix.StatusOK,
		},
		{
			Qualname: "aten::_linalg_eigh.default", Shape: "[3, 4]", DType: "float16",
			StaticVerdict: capability.Fallback, Status: matrix.StatusCPUError,
			Error:  `eigh: matrix must be square, got "[3, 4]"`,
			Policy: "promoted float16 to float32",
		},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "aten_cumsum_default.csv", FileName(ops.MustParse("aten::cumsum.default")))
}

func TestWriteReadCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRows()))
	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.Join(Columns, ","), header)

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, testRows(), rows)
}

func TestEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Columns, ","), strings.TrimSpace(buf.String()))
	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	_, err = ReadCSV(strings.NewReader("qualname,shape\n"))
	require.ErrorContains(t, err, "missing column")
}

func TestInvalidNumber(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRows()[:1]))
	corrupted := strings.Replace(buf.String(), "0.00125", "fast", 1)
	_, err := ReadCSV(strings.NewReader(corrupted))
	require.ErrorContains(t, err, "time_cpu_s")
}

func TestSaveReadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	rows := testRows()
	path, err := Save(dir, ops.MustParse("aten::cumsum.default"), rows[:1])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aten_cumsum_default.csv"), path)
	_, err = Save(dir, ops.MustParse("aten::_linalg_eigh.default"), rows[1:])
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a result"), 0o644))

	all, err := ReadDir(dir)
	require.NoError(t, err)
	// File name order: "aten__linalg_eigh_default.csv" < "aten_cumsum_default.csv".
	assert.Equal(t, []matrix.Row{rows[1], rows[0]}, all)

	_, err = ReadDir(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
