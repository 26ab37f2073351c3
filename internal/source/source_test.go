package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patterncal/internal/models"
	"patterncal/internal/normalize"
)

func TestFile(t *testing.T) {
	events, err := File{Path: filepath.Join("testdata", "one.ics")}.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Coaching Jean Dupont 150€", events[0].Title)
	assert.Equal(t, 90*time.Minute, events[0].Duration)
}

func TestFile_Missing(t *testing.T) {
	_, err := File{Path: filepath.Join(t.TempDir(), "none.ics")}.Events(context.Background())
	require.Error(t, err)

	var perr *normalize.ParseError
	assert.False(t, errors.As(err, &perr))
}

func TestFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ics")
	require.NoError(t, os.WriteFile(path, []byte("not a calendar"), 0o600))

	_, err := File{Path: path}.Events(context.Background())
	var perr *normalize.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestURL(t *testing.T) {
	payload, err := os.ReadFile(filepath.Join("testdata", "one.ics"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cal.ics" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "text/calendar", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	events, err := URL{URL: srv.URL + "/cal.ics", Client: srv.Client()}.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "1@test", events[0].UID)

	_, err = URL{URL: srv.URL + "/missing.ics"}.Events(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

type fakeRange struct {
	from, to time.Time
}

func (f *fakeRange) Events(_ context.Context, from, to time.Time) ([]models.Event, error) {
	f.from, f.to = from, to
	return []models.Event{{Title: "x"}}, nil
}

func TestCalDAV_PassesRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeRange{}

	src := CalDAV{Client: client, Calendar: "Travail", From: from, To: to}
	events, err := src.Events(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, from, client.from)
	assert.Equal(t, to, client.to)
	assert.Equal(t, "caldav:Travail", src.Name())
}

func TestURL_TooLarge(t *testing.T) {
	payload, err := os.ReadFile(filepath.Join("testdata", "one.ics"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	_, err = URL{URL: srv.URL, MaxBytes: int64(len(payload) - 1)}.Events(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar larger than")

	var perr *normalize.ParseError
	assert.False(t, errors.As(err, &perr))

	events, err := URL{URL: srv.URL, MaxBytes: int64(len(payload))}.Events(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
