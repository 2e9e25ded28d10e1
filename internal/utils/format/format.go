// Package format renders durations and progress ratios for user-facing
// notices.
package format

import (
	"fmt"
	"strings"
)

// Duration renders a second count as a compact "1h 02m 30s" style string.
// Zero renders as "0s".
func Duration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes%60 > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes%60))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds%60))
	return strings.Join(parts, " ")
}

// Percent renders a 0..1 ratio as a percentage with two decimals.
func Percent(value float64) string {
	return fmt.Sprintf("%.2f%%", value*100)
}
