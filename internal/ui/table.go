package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width sizes the column to its widest
// cell.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates a table with the given column titles, each auto-sized.
func NewTable(titles ...string) *Table {
	cols := make([]Column, len(titles))
	for i, title := range titles {
		cols[i] = Column{Title: title}
	}
	return &Table{Columns: cols}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, Row(cells))
}

func (t *Table) widths() []int {
	out := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			out[i] = col.Width
			continue
		}
		out[i] = len(col.Title)
		for _, row := range t.Rows {
			if i < len(row) && len(row[i]) > out[i] {
				out[i] = len(row[i])
			}
		}
	}
	return out
}

// Render returns the full table as a string. Cells wider than a fixed column
// width are truncated.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := StyleHeader
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	widths := t.widths()

	pad := func(s string, width int) string {
		if len(s) >= width {
			return s[:width]
		}
		return s + strings.Repeat(" ", width-len(s))
	}

	var headers, divider []string
	for i, col := range t.Columns {
		headers = append(headers, headerStyle.Render(pad(col.Title, widths[i])))
		divider = append(divider, StyleMeta.Render(strings.Repeat("-", widths[i])))
	}
	sb.WriteString(strings.Join(headers, "  ") + "\n")
	sb.WriteString(strings.Join(divider, "  ") + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells[j] = cellStyle.Render(pad(val, widths[j]))
		}
		sb.WriteString(strings.Join(cells, "  ") + "\n")
	}
	if len(t.Rows) == 0 {
		sb.WriteString(StyleMeta.Render("(none)") + "\n")
	}
	return sb.String()
}

// KeyValueBlock renders a set of key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-24s", p[0]+":"))
		val := StyleValue.Render(p[1])
		sb.WriteString("  " + key + " " + val + "\n")
	}
	return StyleBorder.Render(sb.String())
}
