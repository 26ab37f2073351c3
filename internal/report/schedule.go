package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Schedule calls fn on every tick of the cron spec until ctx is done.
// Errors returned by fn are logged and do not stop the schedule.
func Schedule(ctx context.Context, logger *slog.Logger, spec string, fn func(context.Context) error) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := fn(ctx); err != nil {
			logger.Error("Scheduled report failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger.Info("Starting scheduler.", "schedule", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Scheduler stopped.")
	return nil
}
