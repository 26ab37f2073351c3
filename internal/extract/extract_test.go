package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patterncal/internal/models"
	"patterncal/internal/rules"
)

func event(title string, start time.Time, d time.Duration) models.Event {
	return models.Event{
		Title:    title,
		Start:    models.Instant(start, true),
		End:      models.Instant(start.Add(d), true),
		Duration: d,
	}
}

func cell(t *testing.T, tbl *Table, row int, col string) Cell {
	t.Helper()
	c, ok := tbl.Value(row, col)
	require.True(t, ok, "no column %q", col)
	return c
}

var start = time.Date(2024, 1, 5, 9, 0, 0, 0, time.FixedZone("CET", 3600))

func TestExtract_EndToEnd(t *testing.T) {
	events := []models.Event{
		event("Coaching with Jean Dupont for 150€ (1h30)", start, 90*time.Minute),
		event("Internal meeting (no client)", start.Add(24*time.Hour), 0),
	}
	rs := []rules.Rule{
		{Name: "Client", Pattern: `([A-Z][a-z]+\s[A-Z][a-z]+)`, Kind: rules.KindText},
		{Name: "Montant", Pattern: `(\d+)€`, Kind: rules.KindNumber},
	}

	tbl := NewExtractor(nil).Extract(events, rs)

	assert.Equal(t, []string{"Date", "Titre", "Client", "Montant", "Durée (h)"}, tbl.Names())
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, TextCell("Jean Dupont"), cell(t, tbl, 0, "Client"))
	assert.Equal(t, NumberCell(150), cell(t, tbl, 0, "Montant"))
	assert.Equal(t, NumberCell(1.5), cell(t, tbl, 0, "Durée (h)"))
	assert.Equal(t, TextCell("Coaching with Jean Dupont for 150€ (1h30)"), cell(t, tbl, 0, "Titre"))

	assert.Equal(t, MissingCell(CellText), cell(t, tbl, 1, "Client"))
	assert.Equal(t, MissingCell(CellNumber), cell(t, tbl, 1, "Montant"))
	assert.Equal(t, NumberCell(0), cell(t, tbl, 1, "Durée (h)"))
}

func TestExtract_DateIsNaiveWallClock(t *testing.T) {
	tbl := NewExtractor(nil).Extract([]models.Event{event("x", start, time.Hour)}, nil)

	date := cell(t, tbl, 0, rules.ColumnDate)
	require.Equal(t, CellWhen, date.Kind)
	assert.False(t, date.When.Aware)
	assert.Equal(t, time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), date.When.Time)
	assert.Equal(t, "2024-01-05 09:00:00", date.String())
}

func TestExtract_DateOnlyStartStaysDate(t *testing.T) {
	ev := models.Event{Title: "Off", Start: models.Date(2024, 1, 10), End: models.Date(2024, 1, 11), Duration: 24 * time.Hour}
	tbl := NewExtractor(nil).Extract([]models.Event{ev}, nil)

	date := cell(t, tbl, 0, rules.ColumnDate)
	assert.True(t, date.When.IsDate())
	assert.Equal(t, NumberCell(24), cell(t, tbl, 0, rules.ColumnHours))
}

func TestExtract_InvalidPatternDropsOnlyItsColumn(t *testing.T) {
	rs := []rules.Rule{
		{Name: "Broken", Pattern: `([a-z`, Kind: rules.KindText},
		{Name: "Empty", Pattern: "", Kind: rules.KindText},
		{Name: "Montant", Pattern: `(\d+)€`, Kind: rules.KindNumber},
	}
	tbl := NewExtractor(nil).Extract([]models.Event{event("Session 80€", start, time.Hour)}, rs)

	assert.Equal(t, []string{"Date", "Titre", "Montant", "Durée (h)"}, tbl.Names())
	assert.Equal(t, NumberCell(80), cell(t, tbl, 0, "Montant"))
}

func TestExtract_UnmatchedRuleStillHasColumn(t *testing.T) {
	rs := []rules.Rule{{Name: "Projet", Pattern: `Projet\s*:\s*(\w+)`, Kind: rules.KindText}}
	tbl := NewExtractor(nil).Extract([]models.Event{event("Call", start, time.Hour)}, rs)

	assert.True(t, tbl.Has("Projet"))
	assert.True(t, cell(t, tbl, 0, "Projet").Missing)
}

func TestExtract_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		title   string
		want    Cell
	}{
		{"decimal comma", `(\d+(?:[.,]\d{1,2})?)\s?€`, "Consultation 90min avec Martin Durand pour 120,50€", NumberCell(120.5)},
		{"decimal point", `(\d+(?:[.,]\d{1,2})?)\s?€`, "Atelier 99.90 €", NumberCell(99.9)},
		{"case insensitive", `(\d+)\s?eur`, "Design 250 EUR", NumberCell(250)},
		{"whole match", `\d+`, "Session 45", NumberCell(45)},
		{"undecodable", `v(\d+\.\d+\.\d+)`, "Release v1.2.3", MissingCell(CellNumber)},
		{"no match", `(\d+)€`, "Free", MissingCell(CellNumber)},
		{"group did not participate", `(\d+)?€`, "Price: €", MissingCell(CellNumber)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := []rules.Rule{{Name: "N", Pattern: tt.pattern, Kind: rules.KindNumber}}
			tbl := NewExtractor(nil).Extract([]models.Event{event(tt.title, start, 0)}, rs)
			assert.Equal(t, tt.want, cell(t, tbl, 0, "N"))
		})
	}
}

func TestExtract_Text(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		title   string
		want    Cell
	}{
		{"first group trimmed", `avec\s(.+?)\s?pour`, "Coaching avec  Jean Dupont pour 150€", TextCell("Jean Dupont")},
		{"whole match trimmed", `\sRef-\d+\s`, "Call Ref-42 done", TextCell("Ref-42")},
		{"case sensitive", `eur`, "250 EUR", MissingCell(CellText)},
		{"matched empty", `Projet:(\w*)`, "Projet:", TextCell("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := []rules.Rule{{Name: "T", Pattern: tt.pattern, Kind: rules.KindText}}
			tbl := NewExtractor(nil).Extract([]models.Event{event(tt.title, start, 0)}, rs)
			assert.Equal(t, tt.want, cell(t, tbl, 0, "T"))
		})
	}
}

func TestExtract_HoursRoundedToTwoDecimals(t *testing.T) {
	tbl := NewExtractor(nil).Extract([]models.Event{event("x", start, 80*time.Minute)}, nil)
	assert.Equal(t, NumberCell(1.33), cell(t, tbl, 0, rules.ColumnHours))
}

func TestExtract_EmptyRules(t *testing.T) {
	events := []models.Event{event("a", start, time.Hour), event("b", start, 0)}
	tbl := NewExtractor(nil).Extract(events, nil)

	assert.Equal(t, []string{"Date", "Titre", "Durée (h)"}, tbl.Names())
	assert.Len(t, tbl.Rows, 2)
}

func TestExtract_EmptyEvents(t *testing.T) {
	tbl := NewExtractor(nil).Extract(nil, rules.Defaults())

	assert.True(t, tbl.Empty())
	assert.Empty(t, tbl.Columns)
	assert.Empty(t, tbl.Rows)
}

func TestExtract_Idempotent(t *testing.T) {
	events := []models.Event{
		event("Coaching PNL avec Jean Dupont pour 150€ (1h30)", start, 90*time.Minute),
		event("Session de design (2h) - Marie Curie - 250 EUR", start, 2*time.Hour),
	}
	x := NewExtractor(nil)
	assert.Equal(t, x.Extract(events, rules.Extended()), x.Extract(events, rules.Extended()))
}

func TestExtract_DuplicateNamesLastRuleWins(t *testing.T) {
	rs := []rules.Rule{
		{Name: "X", Pattern: `(\d+)`, Kind: rules.KindNumber},
		{Name: "Y", Pattern: `^(\w+)`, Kind: rules.KindText},
		{Name: "X", Pattern: `(\w+)$`, Kind: rules.KindText},
	}
	tbl := NewExtractor(nil).Extract([]models.Event{event("Call 12 done", start, 0)}, rs)

	assert.Equal(t, []string{"Date", "Titre", "X", "Y", "Durée (h)"}, tbl.Names())
	assert.Equal(t, CellText, tbl.Columns[2].Kind)
	assert.Equal(t, TextCell("done"), cell(t, tbl, 0, "X"))
}

func TestExtract_RuleNamedLikeFixedColumnReplacesIt(t *testing.T) {
	rs := []rules.Rule{
		{Name: rules.ColumnTitle, Pattern: `^(\w+)`, Kind: rules.KindText},
		{Name: rules.ColumnHours, Pattern: `(\d+)h`, Kind: rules.KindNumber},
	}
	tbl := NewExtractor(nil).Extract([]models.Event{event("Atelier 4h", start, time.Hour)}, rs)

	assert.Equal(t, []string{"Date", "Titre", "Durée (h)"}, tbl.Names())
	assert.Equal(t, TextCell("Atelier"), cell(t, tbl, 0, rules.ColumnTitle))
	assert.Equal(t, NumberCell(4), cell(t, tbl, 0, rules.ColumnHours))
}
