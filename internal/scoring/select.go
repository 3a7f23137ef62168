package scoring

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/provider"
)

// Constraints narrows the candidate set during selection.
type Constraints struct {
	Kind media.Kind
	// MinimumPercent overrides the engine's kind default when > 0.
	MinimumPercent float64
	// ForcedMinimumScore, when set, requires a strictly better raw score.
	// Upgrade passes set it to the stored subtitle's score.
	ForcedMinimumScore *int
	// MustContain, when non-empty, requires the release text to contain
	// at least one of the terms; MustNotContain rejects on any match.
	MustContain    []string
	MustNotContain []string
	// Blacklisted reports whether a candidate was blacklisted for the item.
	Blacklisted func(providerName, subtitleID string) bool
}

// Select scores the candidates, filters them against the constraints, and
// returns the winner, or nil when nothing clears the bar.
func (e *Engine) Select(candidates []provider.Candidate, constraints Constraints, logger zerolog.Logger) *Scored {
	minPercent := constraints.MinimumPercent
	if minPercent <= 0 {
		minPercent = e.config.MinimumPercentFor(constraints.Kind)
	}

	for _, s := range e.ScoreAll(candidates, constraints.Kind) {
		c := s.Candidate

		if !hasAnchor(c, constraints.Kind) {
			logger.Debug().
				Str("provider", c.Provider).
				Str("release", c.Release).
				Msg("Rejected candidate without anchor attributes")
			continue
		}
		if constraints.Blacklisted != nil && constraints.Blacklisted(c.Provider, c.ID) {
			logger.Debug().
				Str("provider", c.Provider).
				Str("subtitleId", c.ID).
				Msg("Rejected blacklisted candidate")
			continue
		}
		if violatesReleaseFilters(c.Release, constraints.MustContain, constraints.MustNotContain) {
			logger.Debug().
				Str("provider", c.Provider).
				Str("release", c.Release).
				Msg("Rejected candidate by release-text filter")
			continue
		}
		// On upgrade passes the stored score is the bar; the percent
		// gate would otherwise block valid upgrades when the configured
		// minimum sits above the stored subtitle's percent.
		if constraints.ForcedMinimumScore == nil && s.Percent < minPercent {
			logger.Debug().
				Str("provider", c.Provider).
				Str("release", c.Release).
				Float64("percent", s.Percent).
				Float64("minimum", minPercent).
				Msg("Rejected candidate below minimum score")
			continue
		}
		if constraints.ForcedMinimumScore != nil && s.Score <= *constraints.ForcedMinimumScore {
			logger.Debug().
				Str("provider", c.Provider).
				Str("release", c.Release).
				Int("score", s.Score).
				Int("mustBeat", *constraints.ForcedMinimumScore).
				Msg("Rejected candidate that does not beat the stored score")
			continue
		}

		winner := s
		return &winner
	}
	return nil
}

// violatesReleaseFilters applies the profile's release-text filters.
func violatesReleaseFilters(release string, mustContain, mustNotContain []string) bool {
	text := strings.ToLower(release)
	for _, term := range mustNotContain {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	if len(mustContain) == 0 {
		return false
	}
	for _, term := range mustContain {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			return false
		}
	}
	return true
}
