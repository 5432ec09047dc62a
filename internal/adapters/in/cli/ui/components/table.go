// Package components provides the rendering building blocks of the CLI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/styles"
)

// Column is a table column. A zero Width means unbounded.
type Column struct {
	Title string
	Width int
}

// Table is a bordered table with a styled header row.
type Table struct {
	columns []Column
	rows    [][]string
	header  lipgloss.Style
	cell    lipgloss.Style
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{
		columns: columns,
		header:  lipgloss.NewStyle().Bold(true).Foreground(styles.ColorPrimary).Padding(0, 1),
		cell:    lipgloss.NewStyle().Foreground(styles.ColorText).Padding(0, 1),
	}
}

// Plain drops colors, for output that is not a terminal.
func (t *Table) Plain() *Table {
	t.header = lipgloss.NewStyle().Padding(0, 1)
	t.cell = lipgloss.NewStyle().Padding(0, 1)
	return t
}

// AddRow appends a row. Cells beyond the column count are ignored.
func (t *Table) AddRow(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table, truncating cells to their column width.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = truncateCell(col.Title, col.Width)
	}

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = make([]string, len(t.columns))
		for j := range t.columns {
			if j < len(row) {
				rows[i][j] = truncateCell(row[j], t.columns[j].Width)
			}
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := t.cell
			if row == table.HeaderRow {
				s = t.header
			}
			if col >= 0 && col < len(t.columns) && t.columns[col].Width > 0 {
				// padding counts toward the width
				w := t.columns[col].Width + 2
				s = s.Width(w).MaxWidth(w)
			}
			return s
		}).
		String()
}

// truncateCell shortens value to maxWidth display cells, ending with "...".
// Styled input is returned as is.
func truncateCell(value string, maxWidth int) string {
	if strings.Contains(value, "\x1b[") {
		return value
	}
	if maxWidth <= 0 || runewidth.StringWidth(value) <= maxWidth {
		return value
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	target := maxWidth - 3
	var b strings.Builder
	width := 0
	g := uniseg.NewGraphemes(value)
	for g.Next() {
		gw := runewidth.StringWidth(g.Str())
		if width+gw > target {
			break
		}
		b.WriteString(g.Str())
		width += gw
	}
	if b.Len() == 0 {
		return strings.Repeat(".", maxWidth)
	}
	return b.String() + "..."
}
