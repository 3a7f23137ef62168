// Package scoring ranks untrusted provider search results against an
// item's known metadata using per-kind weight tables.
package scoring

import (
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/provider"
)

// Match attribute names used in weight tables and candidate match sets.
const (
	AttrHash            = "hash"
	AttrSeries          = "series"
	AttrSeason          = "season"
	AttrEpisode         = "episode"
	AttrTitle           = "title"
	AttrYear            = "year"
	AttrReleaseGroup    = "release_group"
	AttrSource          = "source"
	AttrResolution      = "resolution"
	AttrVideoCodec      = "video_codec"
	AttrAudioCodec      = "audio_codec"
	AttrHearingImpaired = "hearing_impaired"
	AttrStreamingSvc    = "streaming_service"
	AttrEdition         = "edition"
)

// Weights maps match attributes to score points for one media kind. A
// verified hash match counts as the full table; the two kinds deliberately
// do not share a scoring scale.
type Weights map[string]int

// MaxScore returns the sum of all weights, the score of a perfect match.
func (w Weights) MaxScore() int {
	total := 0
	for _, v := range w {
		total += v
	}
	return total
}

// Config holds the weight tables and acceptance thresholds. These are
// tunable constants, not invariants; the defaults mirror common practice
// for subtitle release matching.
type Config struct {
	EpisodeWeights Weights
	MovieWeights   Weights
	// MinimumPercentEpisode/Movie reject candidates scoring below this
	// percentage of the kind's max score.
	MinimumPercentEpisode float64
	MinimumPercentMovie   float64
}

// DefaultConfig returns the default weight tables and thresholds.
func DefaultConfig() Config {
	return Config{
		EpisodeWeights: Weights{
			AttrSeries:          180,
			AttrYear:            90,
			AttrSeason:          30,
			AttrEpisode:         30,
			AttrReleaseGroup:    14,
			AttrSource:          7,
			AttrAudioCodec:      3,
			AttrResolution:      2,
			AttrVideoCodec:      2,
			AttrStreamingSvc:    1,
			AttrHearingImpaired: 1,
		},
		MovieWeights: Weights{
			AttrTitle:           60,
			AttrYear:            30,
			AttrReleaseGroup:    13,
			AttrSource:          7,
			AttrAudioCodec:      3,
			AttrResolution:      2,
			AttrVideoCodec:      2,
			AttrEdition:         1,
			AttrHearingImpaired: 1,
		},
		MinimumPercentEpisode: 90,
		MinimumPercentMovie:   70,
	}
}

// WeightsFor returns the weight table for a media kind.
func (c Config) WeightsFor(kind media.Kind) Weights {
	if kind == media.KindMovie {
		return c.MovieWeights
	}
	return c.EpisodeWeights
}

// MinimumPercentFor returns the acceptance threshold for a media kind.
func (c Config) MinimumPercentFor(kind media.Kind) float64 {
	if kind == media.KindMovie {
		return c.MinimumPercentMovie
	}
	return c.MinimumPercentEpisode
}

// Scored pairs a candidate with its computed scores.
type Scored struct {
	Candidate provider.Candidate
	// Score is the full weighted sum; a trusted hash match scores the
	// table maximum.
	Score int
	// ScoreNoHash excludes the hash bonus and is the tie-break rank and
	// the fallback when the hash cannot be trusted.
	ScoreNoHash int
	// Percent is Score relative to the kind's max score.
	Percent float64
}
