package extract

import (
	"strconv"

	"patterncal/internal/models"
)

// CellKind is the type of the values held by a column.
type CellKind int

const (
	CellText CellKind = iota
	CellNumber
	CellWhen
)

// Cell is one value of the result table. A missing cell means the rule did
// not produce a value for that row; it is distinct from an empty string
// and from zero.
type Cell struct {
	Kind    CellKind
	Missing bool
	Text    string
	Number  float64
	When    models.When
}

func TextCell(s string) Cell         { return Cell{Kind: CellText, Text: s} }
func NumberCell(f float64) Cell      { return Cell{Kind: CellNumber, Number: f} }
func WhenCell(w models.When) Cell    { return Cell{Kind: CellWhen, When: w} }
func MissingCell(kind CellKind) Cell { return Cell{Kind: kind, Missing: true} }

// String renders the cell for display and delimited exports. Missing cells
// render as an empty string.
func (c Cell) String() string {
	if c.Missing {
		return ""
	}
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellWhen:
		return c.When.String()
	default:
		return c.Text
	}
}

// Column describes one column of the result.
type Column struct {
	Name string
	Kind CellKind
}

// Table is the tabular result of an extraction. A table with no columns
// means there was nothing to extract.
type Table struct {
	Columns []Column
	Rows    [][]Cell
}

// Empty reports whether the table has no columns.
func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, name string) (Cell, bool) {
	col := t.Index(name)
	if col < 0 || i < 0 || i >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[i][col], true
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
