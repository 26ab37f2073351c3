package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"patterncal/internal/models"
)

func TestElapsed(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	at := func(h, m int) time.Time { return time.Date(2024, 1, 5, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		start, end models.When
		want       time.Duration
	}{
		{"aware instants", models.Instant(at(9, 0), true), models.Instant(at(10, 30), true), 90 * time.Minute},
		{"naive instants", models.Instant(at(9, 0), false), models.Instant(at(9, 45), false), 45 * time.Minute},
		{"aware start naive end", models.Instant(time.Date(2024, 1, 5, 9, 0, 0, 0, paris), true), models.Instant(at(10, 0), false), time.Hour},
		{"naive start aware end", models.Instant(at(9, 0), false), models.Instant(time.Date(2024, 1, 5, 11, 0, 0, 0, paris), true), 2 * time.Hour},
		{"dates", models.Date(2024, 1, 1), models.Date(2024, 1, 4), 72 * time.Hour},
		{"same date", models.Date(2024, 1, 1), models.Date(2024, 1, 1), 0},
		{"date and instant", models.Date(2024, 1, 5), models.Instant(at(10, 0), true), 0},
		{"raw", models.Raw("x"), models.Instant(at(10, 0), true), 0},
		{"end before start", models.Instant(at(10, 0), true), models.Instant(at(9, 0), true), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Elapsed(tt.start, tt.end))
		})
	}
}
