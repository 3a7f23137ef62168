// Package provider defines the subtitle provider plugin contract and the
// pool that tracks per-provider throttle state.
package provider

import (
	"context"

	"github.com/subwatch/subwatch/internal/media"
)

// SearchHints carries the metadata a provider needs to locate candidates.
type SearchHints struct {
	Kind          media.Kind
	Title         string
	Year          int
	SeriesTitle   string
	SeasonNumber  int
	EpisodeNumber int
	FilePath      string
	FileHash      string
	ReleaseName   string
	Languages     []media.LanguageTag
	// ForcedOnly restricts the search to provider surfaces configured for
	// forced/foreign-parts content.
	ForcedOnly bool
}

// Candidate is a raw search result from one provider. It is ephemeral and
// never persisted past the selection decision; ID is the provider's external
// subtitle identifier used for blacklisting.
type Candidate struct {
	Provider string
	ID       string
	Language media.LanguageTag
	Release  string
	Uploader string
	// Matches is the set of item attributes this candidate matched.
	Matches MatchSet
	// HashVerified is false when the hash match came from a guessed
	// release name rather than the real file, making the hash bonus
	// untrustworthy.
	HashVerified bool
	// Payload is opaque provider-specific state needed by Fetch.
	Payload any
}

// MatchSet is the set of matched attribute names, e.g. "hash", "series",
// "season", "episode", "title", "year", "release_group", "resolution",
// "source", "video_codec", "audio_codec", "hearing_impaired".
type MatchSet map[string]bool

// Has reports whether the attribute was matched.
func (m MatchSet) Has(attr string) bool { return m[attr] }

// NewMatchSet builds a MatchSet from attribute names.
func NewMatchSet(attrs ...string) MatchSet {
	m := make(MatchSet, len(attrs))
	for _, a := range attrs {
		m[a] = true
	}
	return m
}

// Provider is the capability interface implemented by subtitle provider
// plugins. Implementations report failures using the error kinds in this
// package so the pool can apply the right backoff.
type Provider interface {
	Name() string
	Search(ctx context.Context, hints SearchHints) ([]Candidate, error)
	Fetch(ctx context.Context, candidate Candidate) ([]byte, error)
}

// Config is the per-provider configuration handed to the pool.
type Config struct {
	Name        string            `json:"name" mapstructure:"name"`
	Enabled     bool              `json:"enabled" mapstructure:"enabled"`
	Credentials map[string]string `json:"credentials,omitempty" mapstructure:"credentials"`
	// RequiresAuth marks providers that are only usable with credentials.
	RequiresAuth bool `json:"requiresAuth,omitempty" mapstructure:"requires_auth"`
}

// Configured reports whether the provider may be used at all: enabled, and
// carrying credentials if it needs them.
func (c Config) Configured() bool {
	if !c.Enabled {
		return false
	}
	if c.RequiresAuth && len(c.Credentials) == 0 {
		return false
	}
	return true
}
