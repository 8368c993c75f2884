package learning

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yhlin/ledgersense/internal/common"
)

// StartRegenerationScheduler runs rule generation on a standard 5-field cron
// schedule (minute hour day-of-month month day-of-week). An empty schedule
// disables it; the on-demand trigger stays available either way. The loop
// stops when the context is canceled.
func StartRegenerationScheduler(ctx context.Context, svc *Service, schedule string) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		slog.Info("Scheduled rule regeneration disabled")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		slog.Error("Invalid regeneration schedule, scheduler disabled",
			"schedule", schedule, "error", err)
		return
	}

	slog.Info("Scheduled rule regeneration", "schedule", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			report, err := svc.GenerateRules(ctx)
			switch {
			case errors.Is(err, common.ErrRegenerationInFlight):
				slog.Info("Skipped scheduled regeneration, run already in flight")
			case err != nil:
				slog.Error("Scheduled rule regeneration failed", "error", err)
			default:
				slog.Info("Scheduled rule regeneration complete",
					"samples", report.SamplesScanned,
					"created", report.RulesCreated,
					"updated", report.RulesUpdated)
			}
		}
	}()
}
