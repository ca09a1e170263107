// Package size formats byte counts and derives compression metrics from them.
package size

import (
	"math"
	"strconv"
)

var units = []string{"Bytes", "KB", "MB", "GB", "TB"}

const base = 1024

// Format renders bytes with 1024-based units and at most two decimals,
// e.g. 1536 -> "1.5 KB". Negative input is not supported.
func Format(bytes int64) string {
	return formatFloat(float64(bytes))
}

func formatFloat(bytes float64) string {
	if bytes == 0 {
		return "0 Bytes"
	}

	// floor(log1024(bytes)) without the float error of math.Log at exact powers.
	i := 0
	for i < len(units)-1 && bytes >= math.Pow(base, float64(i+1)) {
		i++
	}

	value := round2(bytes / math.Pow(base, float64(i)))
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + units[i]
}

// round2 rounds half up to two decimals.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
