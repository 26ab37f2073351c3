package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patterncal/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want models.When
	}{
		{"2023-11-23", models.Date(2023, time.November, 23)},
		{"2023-11-23T10:00:00Z", models.Instant(time.Date(2023, 11, 23, 10, 0, 0, 0, time.UTC), true)},
		{"2023-11-23T10:00:00", models.Instant(time.Date(2023, 11, 23, 10, 0, 0, 0, time.UTC), false)},
		{"2023-11-23T10:00", models.Instant(time.Date(2023, 11, 23, 10, 0, 0, 0, time.UTC), false)},
		{"23/11/2023", models.Raw("23/11/2023")},
		{"2023-11-23Tnoon", models.Raw("2023-11-23Tnoon")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTimestamp(tt.in)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseTimestamp_KeepsOffset(t *testing.T) {
	got := ParseTimestamp("2023-11-23T10:00:00+01:00")
	require.True(t, got.IsInstant())
	assert.True(t, got.Aware)
	assert.Equal(t, 9, got.Time.UTC().Hour())
	assert.Equal(t, 10, got.Naive().Time.Hour())
}

func TestFromRecords(t *testing.T) {
	events := FromRecords([]Record{
		{ID: "a", Title: "Coaching Jean Dupont 150€", Start: "2023-11-23T10:00:00+01:00", End: "2023-11-23T11:30:00+01:00"},
		{ID: "b", Title: "", Start: "2023-11-24", End: "2023-11-25"},
		{ID: "c", Title: "Mixed", Start: "2023-11-25T10:00:00+01:00", End: "2023-11-25T12:00:00"},
		{ID: "d", Title: "No end", Start: "2023-11-26T10:00:00Z"},
		{ID: "e", Title: "Broken", Start: "soon", End: "later"},
		{ID: "f", Title: "No start"},
	}, "google-primary")

	require.Len(t, events, 5)

	assert.Equal(t, 90*time.Minute, events[0].Duration)
	assert.Equal(t, "google-primary", events[0].Source)

	assert.Equal(t, models.UntitledPlaceholder, events[1].Title)
	assert.Equal(t, 24*time.Hour, events[1].Duration)

	assert.Equal(t, 2*time.Hour, events[2].Duration)

	assert.Zero(t, events[3].Duration)
	assert.True(t, events[3].End.Equal(events[3].Start))

	assert.True(t, events[4].Start.IsRaw())
	assert.Equal(t, "soon", events[4].Start.Raw)
	assert.Zero(t, events[4].Duration)
}
