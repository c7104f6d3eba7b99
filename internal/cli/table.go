package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultTermWidth = 80
	columnGap        = 2
	// minFitWidth is the narrowest a fitted column is squeezed to.
	minFitWidth = 12
)

// getTermWidth returns the current terminal width, defaulting to 80.
func getTermWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// bold wraps s in ANSI bold escape codes.
func bold(s string, color bool) string {
	if !color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

// truncate shortens a string to max runes, appending "..." if truncated.
// A non-positive max leaves s unchanged.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max < 4 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// formatScore renders a similarity or match score for table output.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// Table buffers rows and writes them as aligned columns on Flush. Widths are
// measured in runes on the plain text, so bold headers and accented product
// names line up. Headers are bold when output is a TTY.
type Table struct {
	w       io.Writer
	color   bool
	width   int
	headers []string
	rows    [][]string
	right   map[int]bool
	fit     int
}

// NewTable creates a Table that writes to w. If headers are provided, they are
// written as a bold header row (bold only when w is a TTY).
func NewTable(w io.Writer, headers ...string) *Table {
	color := isTTY(w)
	width := defaultTermWidth
	if color {
		width = getTermWidth()
	}
	return &Table{w: w, color: color, width: width, headers: headers, right: map[int]bool{}, fit: -1}
}

// AlignRight right-aligns the given columns. Use it for numbers such as
// ranks and scores.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Fit marks col as the column to shorten when a line would exceed the
// table width. Cells in that column are truncated with "...".
func (t *Table) Fit(col int) *Table {
	t.fit = col
	return t
}

// Row adds a data row.
func (t *Table) Row(vals ...string) {
	t.rows = append(t.rows, append([]string(nil), vals...))
}

// Flush writes the header and all buffered rows.
func (t *Table) Flush() error {
	widths := t.columnWidths()
	if t.fit >= 0 && t.fit < len(widths) {
		if limit := t.fitLimit(widths); limit < widths[t.fit] {
			widths[t.fit] = limit
			for _, row := range t.rows {
				if t.fit < len(row) {
					row[t.fit] = truncate(row[t.fit], limit)
				}
			}
		}
	}

	if len(t.headers) > 0 {
		if err := t.writeLine(t.headers, widths, true); err != nil {
			return err
		}
	}
	for _, row := range t.rows {
		if err := t.writeLine(row, widths, false); err != nil {
			return err
		}
	}
	t.rows = nil
	return nil
}

func (t *Table) columnWidths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	measure := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

// fitLimit returns the widest the fitted column can be while keeping lines
// within the table width, but never below minFitWidth.
func (t *Table) fitLimit(widths []int) int {
	used := 0
	for i, w := range widths {
		if i != t.fit {
			used += w
		}
	}
	used += columnGap * (len(widths) - 1)
	return max(t.width-used, minFitWidth)
}

func (t *Table) writeLine(cells []string, widths []int, header bool) error {
	var b strings.Builder
	for i, c := range cells {
		pad := max(widths[i]-utf8.RuneCountInString(c), 0)
		if header {
			c = bold(c, t.color)
		}
		if i > 0 {
			b.WriteString(strings.Repeat(" ", columnGap))
		}
		switch {
		case t.right[i]:
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(c)
		case i == len(cells)-1:
			b.WriteString(c)
		default:
			b.WriteString(c)
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	_, err := fmt.Fprintln(t.w, b.String())
	return err
}

// Bold wraps text in ANSI bold if color is enabled for this table.
func (t *Table) Bold(s string) string {
	return bold(s, t.color)
}

// Color reports whether color output is enabled.
func (t *Table) Color() bool {
	return t.color
}

// Width returns the line width rows are fitted to.
// Returns defaultTermWidth (80) when output is not a TTY.
func (t *Table) Width() int {
	return t.width
}
