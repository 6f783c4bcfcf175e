package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verimod/verimod/internal/suite"
)

// RenderMatrix writes a score matrix as a fixed-width table: one row per
// test, one column per model, plus a footer row of mean normalized
// scores weighted by the suite's per-test weights (nil for unweighted).
// maxWidth bounds the table's total display width; names that do not fit
// are truncated.
func RenderMatrix(w io.Writer, matrix *suite.ScoreMatrix, weights map[string]float64, maxWidth int) {
	tests := matrix.Tests()
	models := matrix.Models()
	if len(tests) == 0 || len(models) == 0 {
		fmt.Fprintln(w, "(empty matrix)")
		return
	}

	nameWidth := runewidth.StringWidth("Test")
	for _, t := range tests {
		if sw := runewidth.StringWidth(t); sw > nameWidth {
			nameWidth = sw
		}
	}

	colWidths := make([]int, len(models))
	for mi, m := range models {
		colWidths[mi] = runewidth.StringWidth(m)
		for _, t := range tests {
			if s, ok := matrix.Get(t, m); ok {
				if sw := runewidth.StringWidth(s.String()); sw > colWidths[mi] {
					colWidths[mi] = sw
				}
			}
		}
	}

	// Shrink the test-name column first when the terminal is narrow.
	if maxWidth > 0 {
		total := nameWidth
		for _, cw := range colWidths {
			total += 2 + cw
		}
		if total > maxWidth {
			excess := total - maxWidth
			if nameWidth-excess >= 8 {
				nameWidth -= excess
			} else {
				nameWidth = 8
			}
		}
	}

	totalWidth := nameWidth
	for _, cw := range colWidths {
		totalWidth += 2 + cw
	}

	fmt.Fprint(w, padRight("Test", nameWidth))
	for mi, m := range models {
		fmt.Fprint(w, "  "+padRight(truncate(m, colWidths[mi]), colWidths[mi]))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))

	for _, t := range tests {
		fmt.Fprint(w, padRight(truncate(t, nameWidth), nameWidth))
		for mi, m := range models {
			cell := "—"
			if s, ok := matrix.Get(t, m); ok {
				cell = s.String()
			}
			fmt.Fprint(w, "  "+padRight(cell, colWidths[mi]))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
	fmt.Fprint(w, padRight("mean", nameWidth))
	for mi, m := range models {
		cell := "—"
		hasComplete := false
		for _, s := range matrix.ByModel(m) {
			if s.Complete() {
				hasComplete = true
				break
			}
		}
		if hasComplete {
			cell = fmt.Sprintf("%.3f", matrix.MeanNormScore(m, weights))
		}
		fmt.Fprint(w, "  "+padRight(cell, colWidths[mi]))
	}
	fmt.Fprintln(w)
}

// truncate shortens a name to maxLen runes, replacing the last rune with
// "…" if needed.
func truncate(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	if maxLen < 1 {
		return ""
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
