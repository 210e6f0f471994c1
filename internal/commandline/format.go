package commandline

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSeconds formats an optional duration in seconds, e.g. "1.25ms", or "-" if nil.
func FormatSeconds(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	return FormatDuration(time.Duration(*seconds * float64(time.Second)))
}

// FormatDuration formats d in the most adequate unit, with up to 2 decimal digits.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return humanize.FtoaWithDigits(float64(d)/float64(time.Microsecond), 2) + "µs"
	case d < time.Second:
		return humanize.FtoaWithDigits(float64(d)/float64(time.Millisecond), 2) + "ms"
	}
	return humanize.FtoaWithDigits(d.Seconds(), 2) + "s"
}

// FormatFactor formats an optional penalty factor, e.g. "2.35x", or "-" if nil.
func FormatFactor(factor *float64) string {
	if factor == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fx", *factor)
}

// FormatCount formats an integer with thousands separators.
func FormatCount[I ~int | ~int64](n I) string {
	return humanize.Comma(int64(n))
}
