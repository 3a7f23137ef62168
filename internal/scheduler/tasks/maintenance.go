package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/acquisition"
	"github.com/subwatch/subwatch/internal/config"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/provider"
	"github.com/subwatch/subwatch/internal/scheduler"
)

// MaintenanceTask handles periodic housekeeping: it refreshes missing
// sets so profile edits take effect without waiting for a search, and
// reports providers still under throttle.
type MaintenanceTask struct {
	items   *media.Store
	service *acquisition.Service
	pool    *provider.Pool
	logger  *zerolog.Logger
}

// NewMaintenanceTask creates a new maintenance task.
func NewMaintenanceTask(
	items *media.Store,
	service *acquisition.Service,
	pool *provider.Pool,
	logger *zerolog.Logger,
) *MaintenanceTask {
	subLogger := logger.With().Str("task", "maintenance").Logger()
	return &MaintenanceTask{
		items:   items,
		service: service,
		pool:    pool,
		logger:  &subLogger,
	}
}

// Run executes one maintenance pass.
func (t *MaintenanceTask) Run(ctx context.Context) error {
	for _, kind := range []media.Kind{media.KindEpisode, media.KindMovie} {
		items, err := t.items.ListMonitored(ctx, kind)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := t.service.RefreshMissing(ctx, item); err != nil {
				t.logger.Error().Err(err).
					Int64("itemId", item.ID).
					Msg("Failed to refresh missing set")
			}
		}
	}

	now := time.Now()
	for _, state := range t.pool.States() {
		if state.Status != provider.StatusThrottled || state.RetryAfter == nil {
			continue
		}
		t.logger.Warn().
			Str("provider", state.Name).
			Str("reason", state.LastFailureKind).
			Time("until", *state.RetryAfter).
			Dur("remaining", state.RetryAfter.Sub(now)).
			Msg("Provider is throttled")
	}

	return nil
}

// RegisterMaintenanceTask registers the maintenance task with the scheduler.
func RegisterMaintenanceTask(sched *scheduler.Scheduler, task *MaintenanceTask, cfg *config.SchedulerConfig) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "maintenance",
		Name:        "Library Maintenance",
		Description: "Refreshes missing subtitle sets and reports throttled providers",
		Interval:    cfg.MaintenanceInterval,
		RunOnStart:  true, // Catch up on profile edits made while stopped
		Func:        task.Run,
	})
}
