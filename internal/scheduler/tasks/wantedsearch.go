package tasks

import (
	"github.com/subwatch/subwatch/internal/acquisition"
	"github.com/subwatch/subwatch/internal/config"
	"github.com/subwatch/subwatch/internal/scheduler"
)

// RegisterWantedSeriesTask registers the periodic search for missing
// episode subtitles.
func RegisterWantedSeriesTask(sched *scheduler.Scheduler, searcher *acquisition.WantedSearcher, cfg *config.SchedulerConfig) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "wanted-series",
		Name:        "Wanted Series Subtitles",
		Description: "Searches providers for missing episode subtitles",
		Interval:    cfg.WantedSeriesInterval,
		RunOnStart:  false, // Give providers a quiet startup
		Func:        searcher.RunSeries,
	})
}

// RegisterWantedMoviesTask registers the periodic search for missing
// movie subtitles.
func RegisterWantedMoviesTask(sched *scheduler.Scheduler, searcher *acquisition.WantedSearcher, cfg *config.SchedulerConfig) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "wanted-movies",
		Name:        "Wanted Movie Subtitles",
		Description: "Searches providers for missing movie subtitles",
		Interval:    cfg.WantedMoviesInterval,
		RunOnStart:  false,
		Func:        searcher.RunMovies,
	})
}
