package commandline

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "-", FormatSeconds(nil))
	v := 0.00125
	assert.Equal(t, "1.25ms", FormatSeconds(&v))
	assert.Equal(t, "15ns", FormatDuration(15*time.Nanosecond))
	assert.Equal(t, "2.5µs", FormatDuration(2500*time.Nanosecond))
	assert.Equal(t, "3s", FormatDuration(3*time.Second))
	assert.Equal(t, "-", FormatFactor(nil))
	f := 2.347
	assert.Equal(t, "2.35x", FormatFactor(&f))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

func TestTable(t *testing.T) {
	SetPlain()
	table := NewTable([]string{"op", "status"}, lipgloss.Left, lipgloss.Right)
	table.Row(false, "aten::add.Tensor", "ok")
	table.Row(true, "aten::cumsum.default", "accel_error")
	assert.Equal(t, 2, table.Count)
	assert.True(t, table.Reds[1])
	rendered := table.String()
	assert.Contains(t, rendered, "aten::cumsum.default")
	assert.Equal(t, 6, len(strings.Split(strings.TrimSpace(rendered), "\n")))
}

func TestProgress(t *testing.T) {
	p := NewProgress(3, "cells", true)
	for i := range 3 {
		p.Done("cell %d", i)
	}
	p.Finish()
}
