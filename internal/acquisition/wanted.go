package acquisition

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/media"
)

// WantedSearcher sweeps the library for monitored items with missing
// subtitles and runs the acquisition pipeline over each of them.
type WantedSearcher struct {
	items   *media.Store
	service *Service
	logger  zerolog.Logger
}

// NewWantedSearcher creates a wanted-search sweeper.
func NewWantedSearcher(items *media.Store, service *Service, logger zerolog.Logger) *WantedSearcher {
	return &WantedSearcher{
		items:   items,
		service: service,
		logger:  logger.With().Str("component", "wanted-search").Logger(),
	}
}

// RunSeries searches all wanted episodes.
func (w *WantedSearcher) RunSeries(ctx context.Context) error {
	return w.run(ctx, media.KindEpisode)
}

// RunMovies searches all wanted movies.
func (w *WantedSearcher) RunMovies(ctx context.Context) error {
	return w.run(ctx, media.KindMovie)
}

func (w *WantedSearcher) run(ctx context.Context, kind media.Kind) error {
	items, err := w.items.ListWanted(ctx, kind)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		w.logger.Debug().Str("kind", string(kind)).Msg("No wanted items")
		return nil
	}

	w.logger.Info().
		Str("kind", string(kind)).
		Int("count", len(items)).
		Msg("Starting wanted-subtitle sweep")

	var downloaded, deferred int
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := w.service.searchItem(ctx, item)
		switch {
		case err == nil:
		case errors.Is(err, ErrAllProvidersThrottled):
			// The pool is empty for every remaining item too. Stop the
			// sweep; the scheduler will try again on its next tick.
			w.logger.Warn().
				Str("kind", string(kind)).
				Int64("itemId", item.ID).
				Msg("All providers throttled, aborting sweep")
			return ErrAllProvidersThrottled
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			// Item-local failure. Log it and keep sweeping.
			w.logger.Error().Err(err).
				Int64("itemId", item.ID).
				Str("title", item.DisplayTitle()).
				Msg("Wanted search failed for item")
			continue
		}

		for _, lr := range result.Results {
			switch lr.Status {
			case StatusDownloaded, StatusUpgraded:
				downloaded++
			case StatusDeferred:
				deferred++
			}
		}
	}

	w.logger.Info().
		Str("kind", string(kind)).
		Int("downloaded", downloaded).
		Int("deferred", deferred).
		Msg("Wanted-subtitle sweep finished")
	return nil
}
