package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	info   = color.New(color.FgCyan)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// table prints an aligned table. Widths are measured in terminal cells so
// arrows and Vietnamese descriptions line up.
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		subtle.Fprintln(w, "  (none)")
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	header, sep := "  ", "  "
	for i, h := range headers {
		header += runewidth.FillRight(h, widths[i]) + "  "
		sep += strings.Repeat("─", widths[i]) + "  "
	}
	subtle.Fprintln(w, strings.TrimRight(header, " "))
	subtle.Fprintln(w, strings.TrimRight(sep, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += runewidth.FillRight(cell, widths[i]) + "  "
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// swatch renders a colored block for a palette entry.
func swatch(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) < 6 {
		return hex
	}
	var r, g, b int
	if _, err := fmt.Sscanf(h[:6], "%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	return color.RGB(r, g, b).Sprint("■") + " " + hex
}

func statusIcon(ok bool) string {
	if ok {
		return good.Sprint("✓")
	}
	return bad.Sprint("✗")
}
