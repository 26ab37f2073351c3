// Package extract applies user-defined rules to event titles and builds
// the result table: Date, Titre, one column per rule, Durée (h).
package extract

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"patterncal/internal/models"
	"patterncal/internal/rules"
)

// Extractor runs extractions. It holds no state between calls and is safe
// for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger discards logs.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

type matcher struct {
	name string
	kind rules.Kind
	re   *regexp.Regexp
}

// Extract builds one row per event. A rule whose pattern does not compile
// gets no column; a rule that does not match a title, or whose numeric
// capture cannot be decoded, leaves a missing cell. An empty event list
// yields a table without columns.
func (x *Extractor) Extract(events []models.Event, rs []rules.Rule) *Table {
	if len(events) == 0 {
		return &Table{}
	}

	matchers := x.compile(rs)
	columns, index := layout(matchers)

	rows := make([][]Cell, 0, len(events))
	for _, ev := range events {
		row := make([]Cell, len(columns))
		row[index[rules.ColumnDate]] = WhenCell(ev.Start.Naive())
		row[index[rules.ColumnTitle]] = TextCell(ev.Title)
		row[index[rules.ColumnHours]] = NumberCell(roundHours(ev.Duration.Hours()))

		// Rules run after the fixed columns so a rule sharing a fixed
		// column's name replaces its values, and later rules win.
		for _, m := range matchers {
			row[index[m.name]] = m.apply(ev.Title)
		}
		rows = append(rows, row)
	}

	x.logger.Debug("Extraction finished.", "events", len(events), "rules", len(rs), "columns", len(columns))
	return &Table{Columns: columns, Rows: rows}
}

func (x *Extractor) compile(rs []rules.Rule) []matcher {
	matchers := make([]matcher, 0, len(rs))
	for _, r := range rs {
		re, err := compileRule(r)
		if err != nil {
			x.logger.Debug("Skipping rule.", "rule", r.Name, "error", err)
			continue
		}
		matchers = append(matchers, matcher{name: r.Name, kind: r.Kind, re: re})
	}
	return matchers
}

func compileRule(r rules.Rule) (*regexp.Regexp, error) {
	if r.Pattern == "" {
		return nil, errors.New("empty pattern")
	}
	pattern := r.Pattern
	if r.Kind == rules.KindNumber {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// layout returns the columns in result order and the position of each
// column name.
func layout(matchers []matcher) ([]Column, map[string]int) {
	columns := []Column{
		{Name: rules.ColumnDate, Kind: CellWhen},
		{Name: rules.ColumnTitle, Kind: CellText},
	}
	index := map[string]int{rules.ColumnDate: 0, rules.ColumnTitle: 1}

	for _, m := range matchers {
		if m.name == rules.ColumnHours {
			continue
		}
		if i, ok := index[m.name]; ok {
			columns[i].Kind = cellKind(m.kind)
			continue
		}
		index[m.name] = len(columns)
		columns = append(columns, Column{Name: m.name, Kind: cellKind(m.kind)})
	}

	hours := Column{Name: rules.ColumnHours, Kind: CellNumber}
	for _, m := range matchers {
		if m.name == rules.ColumnHours {
			hours.Kind = cellKind(m.kind)
		}
	}
	index[rules.ColumnHours] = len(columns)
	columns = append(columns, hours)

	return columns, index
}

func cellKind(k rules.Kind) CellKind {
	if k == rules.KindNumber {
		return CellNumber
	}
	return CellText
}

func (m matcher) apply(title string) Cell {
	kind := cellKind(m.kind)

	loc := m.re.FindStringSubmatchIndex(title)
	if loc == nil {
		return MissingCell(kind)
	}

	start, end := loc[0], loc[1]
	if m.re.NumSubexp() > 0 {
		start, end = loc[2], loc[3]
	}
	if start < 0 {
		// Group 1 exists but did not take part in the match.
		return MissingCell(kind)
	}
	value := title[start:end]

	if m.kind != rules.KindNumber {
		return TextCell(strings.TrimSpace(value))
	}
	f, ok := parseNumber(value)
	if !ok {
		return MissingCell(kind)
	}
	return NumberCell(f)
}

// parseNumber reads a decimal number written with either a comma or a
// point as decimal separator.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
