package scoring

import (
	"math"
	"sort"

	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/provider"
)

// Engine scores and selects subtitle candidates.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// NewDefaultEngine creates an engine with the default weight tables.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultConfig())
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.config
}

// MaxScore returns the perfect score for a media kind.
func (e *Engine) MaxScore(kind media.Kind) int {
	return e.config.WeightsFor(kind).MaxScore()
}

// Percent converts a raw score to a percentage of the kind's max score.
func (e *Engine) Percent(kind media.Kind, score int) float64 {
	max := e.MaxScore(kind)
	if max == 0 {
		return 0
	}
	return float64(score) / float64(max) * 100
}

// Score computes a candidate's weighted score against a media kind's table.
// A hash match counts as the full table when verified against the real
// file; the second return value always excludes the hash bonus so callers
// can fall back to it when the hash came from a guessed release name.
func (e *Engine) Score(candidate provider.Candidate, kind media.Kind) (score, scoreNoHash int) {
	weights := e.config.WeightsFor(kind)

	for attr, weight := range weights {
		if attr == AttrHash {
			continue
		}
		if candidate.Matches.Has(attr) {
			scoreNoHash += weight
		}
	}

	score = scoreNoHash
	if candidate.Matches.Has(AttrHash) && candidate.HashVerified {
		score = weights.MaxScore()
	}
	return score, scoreNoHash
}

// ScoreAll scores candidates and returns them ranked by
// (score desc, score-without-hash desc).
func (e *Engine) ScoreAll(candidates []provider.Candidate, kind media.Kind) []Scored {
	max := e.MaxScore(kind)
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		s, snh := e.Score(c, kind)
		percent := 0.0
		if max > 0 {
			percent = math.Round(float64(s)/float64(max)*10000) / 100
		}
		scored = append(scored, Scored{Candidate: c, Score: s, ScoreNoHash: snh, Percent: percent})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ScoreNoHash > scored[j].ScoreNoHash
	})
	return scored
}

// hasAnchor reports whether the candidate carries the kind-specific anchor
// attributes. Candidates without an anchor are rejected outright, whatever
// their score: for episodes that is series+season+episode or a verified
// hash, for movies the title or a verified hash.
func hasAnchor(c provider.Candidate, kind media.Kind) bool {
	if c.Matches.Has(AttrHash) && c.HashVerified {
		return true
	}
	if kind == media.KindMovie {
		return c.Matches.Has(AttrTitle)
	}
	return c.Matches.Has(AttrSeries) && c.Matches.Has(AttrSeason) && c.Matches.Has(AttrEpisode)
}
