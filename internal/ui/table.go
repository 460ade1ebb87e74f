package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Column is a table column with a title and minimum width
type Column struct {
	Title    string
	MinWidth int
}

// Table renders rows of device data as a non-interactive table
type Table struct {
	Columns []Column
	Rows    [][]string
	Empty   string // Shown instead of the table when there are no rows
}

// NewTable creates a table with the given column titles
func NewTable(titles ...string) *Table {
	cols := make([]Column, len(titles))
	for i, t := range titles {
		cols[i] = Column{Title: t}
	}
	return &Table{Columns: cols, Empty: "No devices"}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) *Table {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return t
}

// Render returns the table as a string. Column widths fit the widest cell.
func (t *Table) Render() string {
	if len(t.Rows) == 0 {
		return EmptyStyle.Render(t.Empty)
	}

	cols := make([]table.Column, len(t.Columns))
	total := 0
	for i, c := range t.Columns {
		w := max(c.MinWidth, runewidth.StringWidth(c.Title))
		for _, row := range t.Rows {
			w = max(w, runewidth.StringWidth(row[i]))
		}
		cols[i] = table.Column{Title: c.Title, Width: w}
		total += w + TableCellStyle.GetHorizontalPadding()
	}

	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = table.Row(r)
	}

	styles := table.Styles{
		Header:   TableHeaderStyle,
		Cell:     TableCellStyle,
		Selected: lipgloss.NewStyle(),
	}

	m := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithStyles(styles),
		table.WithFocused(false),
		table.WithWidth(total),
		table.WithHeight(len(rows)+lipgloss.Height(TableHeaderStyle.Render("x"))),
	)
	return m.View()
}

// String implements fmt.Stringer
func (t *Table) String() string {
	return t.Render()
}
