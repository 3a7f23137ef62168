package tasks

import (
	"github.com/subwatch/subwatch/internal/config"
	"github.com/subwatch/subwatch/internal/scheduler"
	"github.com/subwatch/subwatch/internal/upgrade"
)

// RegisterUpgradeTask registers the periodic upgrade sweep over recently
// downloaded subtitles.
func RegisterUpgradeTask(sched *scheduler.Scheduler, sweeper *upgrade.Sweeper, cfg *config.Config) error {
	if !cfg.Upgrade.Enabled {
		return nil // Task disabled, don't register
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "upgrade-sweep",
		Name:        "Subtitle Upgrade Sweep",
		Description: "Revisits recent downloads and replaces them with better-scoring subtitles",
		Interval:    cfg.Scheduler.UpgradeInterval,
		RunOnStart:  false,
		Func:        sweeper.Run,
	})
}
