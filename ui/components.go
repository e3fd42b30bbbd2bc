package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// bar renders a percentage bar of given width.
func bar(pct float64, width int) string {
	if width < 1 {
		width = 10
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return usageColor(pct).Render(strings.Repeat("█", filled) + strings.Repeat("░", width-filled))
}

// fmtBytes renders IEC sizes ("16 GiB"); zero renders as "0 B".
func fmtBytes(b uint64) string {
	return humanize.IBytes(b)
}

func fmtPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// padRight pads s to width runes, truncating with an ellipsis when longer.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return truncate(s, width)
	}
	return s + strings.Repeat(" ", width-n)
}

// truncate shortens s to maxLen runes with ellipsis if needed.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
