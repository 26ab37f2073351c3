// Package summary aggregates extraction results: period filtering,
// per-client grouping, totals and invoice data.
package summary

import (
	"sort"
	"strings"
	"time"

	"patterncal/internal/extract"
	"patterncal/internal/models"
	"patterncal/internal/rules"
)

// FilterPeriod keeps the events whose start day falls within [from, to].
// A zero bound is open. Events with an unparsable start are kept so they
// stay visible in the result.
func FilterPeriod(events []models.Event, from, to time.Time) []models.Event {
	fromDay, toDay := dayOf(from), dayOf(to)
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		day, ok := ev.Start.Day()
		if ok {
			if !from.IsZero() && day.Before(fromDay) {
				continue
			}
			if !to.IsZero() && day.After(toDay) {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClientColumn picks the column to group by: the first column whose name
// mentions "client", else a rule literally named "Client" if the table
// has it. It returns "" when there is none.
func ClientColumn(t *extract.Table, rs []rules.Rule) string {
	if t.Empty() {
		return ""
	}
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c.Name), "client") {
			return c.Name
		}
	}
	for _, r := range rs {
		if r.Name == "Client" && t.Has(r.Name) {
			return r.Name
		}
	}
	return ""
}

// ByClient groups rows by the text of the client column and sums every
// numeric column; missing values count as zero. Rows without a client are
// left out. Groups are ordered by hours, largest first, then by name.
func ByClient(t *extract.Table, clientColumn string) *extract.Table {
	col := t.Index(clientColumn)
	if col < 0 {
		return &extract.Table{}
	}

	columns := []extract.Column{{Name: clientColumn, Kind: extract.CellText}}
	var numeric []int
	for i, c := range t.Columns {
		if i != col && c.Kind == extract.CellNumber {
			numeric = append(numeric, i)
			columns = append(columns, c)
		}
	}

	type group struct {
		key  string
		sums []float64
	}
	groups := map[string]*group{}
	for _, row := range t.Rows {
		cell := row[col]
		if cell.Missing {
			continue
		}
		key := cell.String()
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, sums: make([]float64, len(numeric))}
			groups[key] = g
		}
		for j, i := range numeric {
			if !row[i].Missing {
				g.sums[j] += row[i].Number
			}
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].key < ordered[b].key })

	out := &extract.Table{Columns: columns}
	if hours := out.Index(rules.ColumnHours); hours > 0 {
		sort.SliceStable(ordered, func(a, b int) bool {
			return ordered[a].sums[hours-1] > ordered[b].sums[hours-1]
		})
	}

	for _, g := range ordered {
		row := make([]extract.Cell, 0, len(columns))
		row = append(row, extract.TextCell(g.key))
		for _, s := range g.sums {
			row = append(row, extract.NumberCell(s))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Sum is the total of one numeric column.
type Sum struct {
	Name  string
	Value float64
}

// Totals holds the headline figures of a result.
type Totals struct {
	Hours float64
	Sums  []Sum
}

// ComputeTotals sums the hours column and every numeric rule column
// present in the table, in rule order.
func ComputeTotals(t *extract.Table, rs []rules.Rule) Totals {
	var out Totals
	if t.Empty() {
		return out
	}
	out.Hours = sumColumn(t, rules.ColumnHours)
	seen := map[string]bool{}
	for _, r := range rs {
		if r.Kind != rules.KindNumber || seen[r.Name] || r.Name == rules.ColumnHours || !t.Has(r.Name) {
			continue
		}
		seen[r.Name] = true
		out.Sums = append(out.Sums, Sum{Name: r.Name, Value: sumColumn(t, r.Name)})
	}
	return out
}

func sumColumn(t *extract.Table, name string) float64 {
	col := t.Index(name)
	if col < 0 || t.Columns[col].Kind != extract.CellNumber {
		return 0
	}
	var total float64
	for _, row := range t.Rows {
		if !row[col].Missing {
			total += row[col].Number
		}
	}
	return total
}
