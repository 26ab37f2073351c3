// Package render prints result tables on a terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"patterncal/internal/extract"
	"patterncal/internal/summary"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	missingStyle = cellStyle.Faint(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// missingText is shown where a rule found nothing.
const missingText = "—"

// Table renders t with a rounded border. Numbers are right-aligned and
// shown with two decimals.
func Table(t *extract.Table) string {
	if t.Empty() {
		return ""
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellText(cell)
		}
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Names()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
				return cellStyle
			}
			cell := t.Rows[row][col]
			switch {
			case cell.Missing:
				return missingStyle
			case cell.Kind == extract.CellNumber:
				return numberStyle
			}
			return cellStyle
		})
	return tbl.String()
}

func cellText(c extract.Cell) string {
	if c.Missing {
		return missingText
	}
	if c.Kind == extract.CellNumber {
		return strconv.FormatFloat(c.Number, 'f', 2, 64)
	}
	return c.String()
}

// Totals renders the headline figures, one per line.
func Totals(t summary.Totals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total heures: %.2f h\n", t.Hours)
	for _, s := range t.Sums {
		fmt.Fprintf(&b, "Total %s: %.2f\n", s.Name, s.Value)
	}
	return b.String()
}
