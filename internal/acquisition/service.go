package acquisition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/attempts"
	"github.com/subwatch/subwatch/internal/blacklist"
	"github.com/subwatch/subwatch/internal/history"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/notify"
	"github.com/subwatch/subwatch/internal/profile"
	"github.com/subwatch/subwatch/internal/provider"
	"github.com/subwatch/subwatch/internal/scoring"
	"github.com/subwatch/subwatch/internal/subtitles"
	"github.com/subwatch/subwatch/internal/synchook"
)

// Hook is an optional post-processing step run after a subtitle is stored.
type Hook func(ctx context.Context, videoPath, subtitlePath string) error

// Options tunes orchestrator behavior beyond the scoring configuration.
type Options struct {
	// RetryPolicy is the adaptive search backoff; see package attempts.
	RetryPolicy attempts.Policy
	// SyncThresholdPercent: winners scoring below this percentage are
	// handed to the sync hook, unless the subtitle is forced.
	SyncThresholdPercent float64
	// ProviderTimeout bounds each provider search and fetch call so a
	// stuck provider cannot starve the rest of a sweep.
	ProviderTimeout time.Duration
}

// Service is the acquisition orchestrator.
type Service struct {
	items       *media.Store
	profiles    *profile.Store
	attempts    *attempts.Store
	pool        *provider.Pool
	registry    *provider.Registry
	engine      *scoring.Engine
	history     *history.Service
	blacklist   *blacklist.Service
	storage     *subtitles.Storage
	syncer      synchook.Syncer
	notifier    notify.Notifier
	postProcess Hook
	opts        Options
	now         func() time.Time
	logger      zerolog.Logger
}

// NewService creates the orchestrator. Syncer and notifier may be nil.
func NewService(
	items *media.Store,
	profiles *profile.Store,
	attemptStore *attempts.Store,
	pool *provider.Pool,
	registry *provider.Registry,
	engine *scoring.Engine,
	historySvc *history.Service,
	blacklistSvc *blacklist.Service,
	storage *subtitles.Storage,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 60 * time.Second
	}
	return &Service{
		items:     items,
		profiles:  profiles,
		attempts:  attemptStore,
		pool:      pool,
		registry:  registry,
		engine:    engine,
		history:   historySvc,
		blacklist: blacklistSvc,
		storage:   storage,
		syncer:    synchook.Nop{},
		notifier:  notify.Nop{},
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("component", "acquisition").Logger(),
	}
}

// SetSyncer sets the external sync hook.
func (s *Service) SetSyncer(syncer synchook.Syncer) {
	if syncer != nil {
		s.syncer = syncer
	}
}

// SetNotifier sets the outbound event notifier.
func (s *Service) SetNotifier(notifier notify.Notifier) {
	if notifier != nil {
		s.notifier = notifier
	}
}

// SetPostProcess sets the optional post-processing hook.
func (s *Service) SetPostProcess(hook Hook) {
	s.postProcess = hook
}

// SetClock overrides the time source; tests use this for determinism.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// profileFor loads the item's assigned profile, or nil when none is
// assigned or the assignment is dangling.
func (s *Service) profileFor(ctx context.Context, item *media.Item) (*profile.Profile, error) {
	if item.ProfileID == nil {
		return nil, nil
	}
	prof, err := s.profiles.Get(ctx, *item.ProfileID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prof, nil
}

// RefreshMissing recomputes and persists an item's missing set from its
// profile and current subtitles. It is invoked on every subtitle mutation
// and profile assignment change, and is idempotent.
func (s *Service) RefreshMissing(ctx context.Context, item *media.Item) (*profile.Profile, error) {
	prof, err := s.profileFor(ctx, item)
	if err != nil {
		return nil, err
	}

	missing := profile.ComputeMissing(prof, item.Subtitles, item.AudioLanguages)
	if !equalStrings(missing, item.Missing) {
		if err := s.items.UpdateMissing(ctx, item.ID, missing); err != nil {
			return nil, err
		}
		item.Missing = missing
	}
	return prof, nil
}

// SearchItem runs the full pipeline for one item: refresh the missing set,
// then search each still-missing language sequentially. When every
// eligible provider is throttled the item is aborted and the remaining
// languages are reported as deferred.
func (s *Service) SearchItem(ctx context.Context, itemID int64) (*ItemResult, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.searchItem(ctx, item)
}

func (s *Service) searchItem(ctx context.Context, item *media.Item) (*ItemResult, error) {
	result := &ItemResult{ItemID: item.ID, Title: item.DisplayTitle()}

	if _, err := os.Stat(item.Path); err != nil {
		s.logger.Warn().
			Int64("itemId", item.ID).
			Str("path", item.Path).
			Msg("Media file not on disk, deferring item")
		return nil, fmt.Errorf("%w: %s", ErrMediaFileMissing, item.Path)
	}

	prof, err := s.RefreshMissing(ctx, item)
	if err != nil {
		return nil, err
	}
	if prof == nil || len(item.Missing) == 0 {
		return result, nil
	}

	s.logger.Info().
		Int64("itemId", item.ID).
		Str("title", item.DisplayTitle()).
		Strs("missing", item.Missing).
		Msg("Searching for missing subtitles")

	for _, key := range item.Missing {
		// Cooperative cancellation is checked only at loop boundaries.
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tag, err := media.ParseTag(key)
		if err != nil {
			s.logger.Error().Err(err).Int64("itemId", item.ID).Msg("Skipping malformed language key")
			continue
		}

		langResult, err := s.searchLanguage(ctx, item, prof, tag, nil)
		if err != nil {
			if errors.Is(err, ErrAllProvidersThrottled) {
				// Abort the whole item: the remaining languages would
				// hit the same empty pool.
				result.Deferred = true
				result.Results = append(result.Results, LanguageResult{Language: key, Status: StatusDeferred})
				for _, rest := range remainingAfter(item.Missing, key) {
					result.Results = append(result.Results, LanguageResult{Language: rest, Status: StatusDeferred})
				}
				s.notifier.Notify(ctx, notify.EventProvidersThrottled, map[string]any{
					"itemId": item.ID,
					"title":  item.DisplayTitle(),
				})
				return result, ErrAllProvidersThrottled
			}
			return result, err
		}
		result.Results = append(result.Results, langResult)
	}

	return result, nil
}

// SearchLanguage searches one language of one item. forcedMinimumScore,
// when non-nil, requires a strictly better raw score; upgrade passes set
// it to the stored subtitle's score and bypass the adaptive retry check.
func (s *Service) SearchLanguage(ctx context.Context, itemID int64, languageKey string, forcedMinimumScore *int) (LanguageResult, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return LanguageResult{}, err
	}

	tag, err := media.ParseTag(languageKey)
	if err != nil {
		return LanguageResult{}, err
	}

	if _, err := os.Stat(item.Path); err != nil {
		return LanguageResult{}, fmt.Errorf("%w: %s", ErrMediaFileMissing, item.Path)
	}

	prof, err := s.profileFor(ctx, item)
	if err != nil {
		return LanguageResult{}, err
	}

	return s.searchLanguage(ctx, item, prof, tag, forcedMinimumScore)
}

// searchLanguage implements the per-language state machine:
// retry check -> searching -> scoring -> saving -> recorded.
func (s *Service) searchLanguage(ctx context.Context, item *media.Item, prof *profile.Profile, tag media.LanguageTag, forcedMinimumScore *int) (LanguageResult, error) {
	key := tag.Key()
	now := s.now()
	logger := s.logger.With().Int64("itemId", item.ID).Str("language", key).Logger()

	isUpgrade := forcedMinimumScore != nil

	if !isUpgrade {
		records, err := s.attempts.Get(ctx, item.ID)
		if err != nil {
			return LanguageResult{}, err
		}
		if !attempts.IsActive(records, key, s.opts.RetryPolicy, now) {
			logger.Debug().Msg("Adaptive backoff active, skipping language")
			return LanguageResult{Language: key, Status: StatusSkipped}, nil
		}
	}

	eligible := s.pool.Eligible(now)
	if len(eligible) == 0 {
		// Deferred, not attempted: the backoff clock must not advance
		// when no provider was actually asked.
		return LanguageResult{Language: key, Status: StatusDeferred}, ErrAllProvidersThrottled
	}

	if !isUpgrade {
		if _, err := s.attempts.Record(ctx, item.ID, key, now); err != nil {
			return LanguageResult{}, err
		}
	}

	candidates := s.collectCandidates(ctx, item, tag, eligible, logger)
	if len(candidates) == 0 {
		s.notifyStillMissing(ctx, item, key)
		return LanguageResult{Language: key, Status: StatusNoResult}, nil
	}

	blacklisted, err := s.blacklist.Matcher(ctx, item.ID)
	if err != nil {
		return LanguageResult{}, err
	}

	constraints := scoring.Constraints{
		Kind:               item.Kind,
		ForcedMinimumScore: forcedMinimumScore,
		Blacklisted:        blacklisted,
	}
	if prof != nil {
		constraints.MustContain = prof.MustContain
		constraints.MustNotContain = prof.MustNotContain
	}

	winner := s.engine.Select(candidates, constraints, logger)
	if winner == nil {
		logger.Debug().Int("candidates", len(candidates)).Msg("No acceptable candidate")
		s.notifyStillMissing(ctx, item, key)
		return LanguageResult{Language: key, Status: StatusNoResult}, nil
	}

	logger.Info().
		Str("provider", winner.Candidate.Provider).
		Str("release", winner.Candidate.Release).
		Int("score", winner.Score).
		Float64("percent", winner.Percent).
		Msg("Selected subtitle candidate")

	return s.save(ctx, item, prof, tag, *winner, isUpgrade, logger)
}

// collectCandidates queries every eligible provider sequentially and
// reports outcomes back to the pool. One provider failing does not stop
// the aggregation.
func (s *Service) collectCandidates(ctx context.Context, item *media.Item, tag media.LanguageTag, eligible []string, logger zerolog.Logger) []provider.Candidate {
	hints := provider.SearchHints{
		Kind:          item.Kind,
		Title:         item.Title,
		Year:          item.Year,
		SeriesTitle:   item.SeriesTitle,
		SeasonNumber:  item.SeasonNumber,
		EpisodeNumber: item.EpisodeNumber,
		FilePath:      item.Path,
		ReleaseName:   item.ReleaseName,
		Languages:     []media.LanguageTag{tag},
		ForcedOnly:    tag.Forced,
	}

	var all []provider.Candidate
	for _, name := range eligible {
		p, ok := s.registry.Get(name)
		if !ok {
			logger.Warn().Str("provider", name).Msg("Configured provider has no implementation")
			continue
		}

		searchCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
		found, err := p.Search(searchCtx, hints)
		cancel()

		if err != nil {
			kind := provider.KindOf(err)
			logger.Warn().Err(err).Str("provider", name).Str("kind", string(kind)).Msg("Provider search failed")
			s.pool.ReportFailure(name, kind, s.now())
			continue
		}
		s.pool.ReportSuccess(name)

		for _, c := range found {
			// Forced is a hard filter; HI mismatches only cost score.
			if c.Language.Language != tag.Language || c.Language.Forced != tag.Forced {
				continue
			}
			all = append(all, c)
		}
	}
	return all
}

// save fetches the winner's payload, writes it to disk, updates the
// subtitle and missing sets, appends history, and fires the optional sync,
// post-processing and notification hooks.
func (s *Service) save(ctx context.Context, item *media.Item, prof *profile.Profile, tag media.LanguageTag, winner scoring.Scored, isUpgrade bool, logger zerolog.Logger) (LanguageResult, error) {
	key := tag.Key()

	impl, ok := s.registry.Get(winner.Candidate.Provider)
	if !ok {
		logger.Warn().Str("provider", winner.Candidate.Provider).Msg("Winning provider has no registered implementation")
		s.notifyStillMissing(ctx, item, key)
		return LanguageResult{Language: key, Status: StatusNoResult}, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	payload, err := impl.Fetch(fetchCtx, winner.Candidate)
	cancel()
	if err != nil {
		kind := provider.KindOf(err)
		logger.Warn().Err(err).Str("provider", winner.Candidate.Provider).Msg("Subtitle fetch failed")
		s.pool.ReportFailure(winner.Candidate.Provider, kind, s.now())
		s.notifyStillMissing(ctx, item, key)
		return LanguageResult{Language: key, Status: StatusNoResult}, nil
	}

	subtitlePath, err := s.storage.Write(item.Path, tag, payload)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LanguageResult{}, fmt.Errorf("%w: %s", ErrMediaFileMissing, item.Path)
		}
		// Rolled back to "not downloaded": nothing was stored and the
		// missing set is untouched.
		return LanguageResult{}, &PersistenceError{Path: subtitles.PathFor(item.Path, tag), Err: err}
	}

	subs := item.Subtitles.Upsert(media.SubtitleDescriptor{LanguageTag: tag, Path: subtitlePath})
	missing := profile.ComputeMissing(prof, subs, item.AudioLanguages)
	if err := s.items.UpdateSubtitles(ctx, item.ID, subs, missing); err != nil {
		s.storage.Remove(subtitlePath)
		return LanguageResult{}, &PersistenceError{Path: subtitlePath, Err: err}
	}
	item.Subtitles = subs
	item.Missing = missing

	action := history.ActionDownloaded
	status := StatusDownloaded
	event := notify.EventDownloaded
	if isUpgrade {
		action = history.ActionUpgraded
		status = StatusUpgraded
		event = notify.EventUpgraded
	}

	if _, err := s.history.Create(ctx, history.CreateInput{
		Action:       action,
		Kind:         item.Kind,
		ItemID:       item.ID,
		Language:     key,
		Provider:     winner.Candidate.Provider,
		Score:        winner.Score,
		ScorePercent: winner.Percent,
		VideoPath:    item.Path,
		SubtitlePath: subtitlePath,
		Description:  winner.Candidate.Release,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to append history event")
	}

	s.maybeSync(ctx, item, tag, subtitlePath, winner.Percent, logger)

	if s.postProcess != nil {
		if err := s.postProcess(ctx, item.Path, subtitlePath); err != nil {
			logger.Warn().Err(err).Msg("Post-processing hook failed")
		}
	}

	s.notifier.Notify(ctx, event, map[string]any{
		"itemId":   item.ID,
		"title":    item.DisplayTitle(),
		"language": key,
		"provider": winner.Candidate.Provider,
		"score":    winner.Score,
		"percent":  winner.Percent,
	})

	return LanguageResult{
		Language:     key,
		Status:       status,
		Score:        winner.Score,
		ScorePercent: winner.Percent,
		Provider:     winner.Candidate.Provider,
		SubtitlePath: subtitlePath,
	}, nil
}

// maybeSync invokes the external sync step for weak, non-forced winners.
// Sync failures never undo the stored subtitle.
func (s *Service) maybeSync(ctx context.Context, item *media.Item, tag media.LanguageTag, subtitlePath string, percent float64, logger zerolog.Logger) {
	if tag.Forced || s.opts.SyncThresholdPercent <= 0 || percent >= s.opts.SyncThresholdPercent {
		return
	}

	if err := s.syncer.Sync(ctx, item.Path, subtitlePath, tag.Language); err != nil {
		logger.Warn().Err(err).Str("subtitle", subtitlePath).Msg("Subtitle sync failed")
		return
	}

	if _, err := s.history.Create(ctx, history.CreateInput{
		Action:       history.ActionSynced,
		Kind:         item.Kind,
		ItemID:       item.ID,
		Language:     tag.Key(),
		VideoPath:    item.Path,
		SubtitlePath: subtitlePath,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to append sync history event")
	}
}

func (s *Service) notifyStillMissing(ctx context.Context, item *media.Item, key string) {
	s.notifier.Notify(ctx, notify.EventStillMissing, map[string]any{
		"itemId":   item.ID,
		"title":    item.DisplayTitle(),
		"language": key,
	})
}

// remainingAfter returns the keys that follow current in the missing list.
func remainingAfter(missing []string, current string) []string {
	for i, key := range missing {
		if key == current {
			return missing[i+1:]
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
