// Package report runs the extraction pipeline: fetch events from a source,
// keep the requested period, apply the rules and summarize by client.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"patterncal/internal/extract"
	"patterncal/internal/models"
	"patterncal/internal/rules"
	"patterncal/internal/source"
	"patterncal/internal/summary"
)

// Options selects the period and the rules of a run.
type Options struct {
	From  time.Time
	To    time.Time
	Rules []rules.Rule
}

// Result is the outcome of one run.
type Result struct {
	RunID        string
	Fetched      int
	Events       []models.Event
	Table        *extract.Table
	ClientColumn string
	ByClient     *extract.Table
	Totals       summary.Totals
}

// Reporter orchestrates a report for one source.
type Reporter struct {
	logger    *slog.Logger
	source    source.Source
	extractor *extract.Extractor
}

// NewReporter creates a new Reporter.
func NewReporter(logger *slog.Logger, src source.Source) *Reporter {
	return &Reporter{
		logger:    logger,
		source:    src,
		extractor: extract.NewExtractor(logger),
	}
}

// Run performs a full report cycle. Only source failures are returned;
// rule problems show up as missing cells or columns in the result.
func (r *Reporter) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run", runID, "source", r.source.Name())
	logger.Info("Starting report.")

	events, err := r.source.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events from %s: %w", r.source.Name(), err)
	}

	filtered := summary.FilterPeriod(events, opts.From, opts.To)
	logger.Info("Events loaded.", "found", len(filtered), "total", len(events))

	table := r.extractor.Extract(filtered, opts.Rules)
	res := &Result{
		RunID:   runID,
		Fetched: len(events),
		Events:  filtered,
		Table:   table,
		Totals:  summary.ComputeTotals(table, opts.Rules),
	}

	res.ClientColumn = summary.ClientColumn(table, opts.Rules)
	if res.ClientColumn != "" {
		res.ByClient = summary.ByClient(table, res.ClientColumn)
	} else if !table.Empty() {
		logger.Warn("No client column found for grouping, check the extraction rules.")
	}

	logger.Info("Report finished.", "rows", len(table.Rows), "hours", res.Totals.Hours)
	return res, nil
}
