// Package upgrade periodically revisits recently downloaded subtitles and
// tries to replace them with strictly better-scoring ones.
package upgrade

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/acquisition"
	"github.com/subwatch/subwatch/internal/history"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/subtitles"
)

// Config tunes the upgrade sweep.
type Config struct {
	// WindowDays bounds how far back the sweep looks for download events.
	WindowDays int
	// NearPerfectPercentEpisode and NearPerfectPercentMovie: subtitles at
	// or above these percentages are not worth revisiting.
	NearPerfectPercentEpisode float64
	NearPerfectPercentMovie   float64
	// IncludeManual also considers manually uploaded subtitles.
	IncludeManual bool
}

// DefaultConfig mirrors the shipped defaults.
func DefaultConfig() Config {
	return Config{
		WindowDays:                7,
		NearPerfectPercentEpisode: 99,
		NearPerfectPercentMovie:   99,
	}
}

// Sweeper finds upgrade candidates in recent history and re-runs the
// acquisition pipeline over them with the stored score as the bar.
type Sweeper struct {
	history *history.Service
	service *acquisition.Service
	config  Config
	now     func() time.Time
	logger  zerolog.Logger
}

// NewSweeper creates an upgrade sweeper.
func NewSweeper(historySvc *history.Service, service *acquisition.Service, config Config, logger zerolog.Logger) *Sweeper {
	if config.WindowDays <= 0 {
		config.WindowDays = DefaultConfig().WindowDays
	}
	return &Sweeper{
		history: historySvc,
		service: service,
		config:  config,
		now:     time.Now,
		logger:  logger.With().Str("component", "upgrade").Logger(),
	}
}

// SetClock overrides the time source; tests use this for determinism.
func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

// Run executes one upgrade sweep. When all providers are throttled the
// sweep aborts and the remaining candidates wait for the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	since := s.now().AddDate(0, 0, -s.config.WindowDays)

	actions := []history.Action{history.ActionDownloaded, history.ActionUpgraded}
	if s.config.IncludeManual {
		actions = append(actions, history.ActionManuallyUploaded)
	}

	events, err := s.history.ListSince(ctx, since, actions...)
	if err != nil {
		return err
	}

	candidates := s.selectCandidates(events)
	if len(candidates) == 0 {
		s.logger.Debug().Msg("No upgrade candidates in window")
		return nil
	}

	s.logger.Info().Int("candidates", len(candidates)).Msg("Starting upgrade sweep")

	var upgraded int
	for _, ev := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		minScore := ev.Score
		result, err := s.service.SearchLanguage(ctx, ev.ItemID, ev.Language, &minScore)
		switch {
		case err == nil:
		case errors.Is(err, acquisition.ErrAllProvidersThrottled):
			s.logger.Warn().Msg("All providers throttled, aborting upgrade sweep")
			return acquisition.ErrAllProvidersThrottled
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			s.logger.Error().Err(err).
				Int64("itemId", ev.ItemID).
				Str("language", ev.Language).
				Msg("Upgrade search failed")
			continue
		}

		if result.Status == acquisition.StatusUpgraded {
			upgraded++
			s.logger.Info().
				Int64("itemId", ev.ItemID).
				Str("language", ev.Language).
				Int("oldScore", ev.Score).
				Int("newScore", result.Score).
				Msg("Upgraded subtitle")
		}
	}

	s.logger.Info().Int("upgraded", upgraded).Msg("Upgrade sweep finished")
	return nil
}

// selectCandidates keeps the most recent event per item and language and
// drops the ones not worth revisiting. Events arrive newest first, so the
// first occurrence of a pair wins.
func (s *Sweeper) selectCandidates(events []*history.Event) []*history.Event {
	type pair struct {
		itemID   int64
		language string
	}
	seen := make(map[pair]bool)

	var out []*history.Event
	for _, ev := range events {
		p := pair{itemID: ev.ItemID, language: ev.Language}
		if seen[p] {
			continue
		}
		seen[p] = true

		if ev.ScorePercent >= s.nearPerfectFor(ev.Kind) {
			continue
		}
		// The subtitle may have been deleted or replaced outside the
		// pipeline since the event was recorded.
		if !subtitles.Exists(ev.SubtitlePath) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (s *Sweeper) nearPerfectFor(kind media.Kind) float64 {
	if kind == media.KindMovie && s.config.NearPerfectPercentMovie > 0 {
		return s.config.NearPerfectPercentMovie
	}
	if s.config.NearPerfectPercentEpisode > 0 {
		return s.config.NearPerfectPercentEpisode
	}
	return 100
}
