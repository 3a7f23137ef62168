// Package acquisition orchestrates the subtitle search pipeline: missing
// computation, adaptive retry checks, provider search, scoring, storage
// and history.
package acquisition

import (
	"errors"
	"fmt"
)

// Status is the outcome of one language search.
type Status string

const (
	// StatusDownloaded: a new subtitle was stored.
	StatusDownloaded Status = "downloaded"
	// StatusUpgraded: an existing subtitle was replaced by a better one.
	StatusUpgraded Status = "upgraded"
	// StatusNoResult: the search ran but nothing cleared the bar.
	StatusNoResult Status = "no_result"
	// StatusDeferred: the search could not run (all providers throttled).
	StatusDeferred Status = "deferred"
	// StatusSkipped: the adaptive retry policy said "not yet".
	StatusSkipped Status = "skipped"
)

// LanguageResult is the outcome for one language of one item.
type LanguageResult struct {
	Language     string  `json:"language"`
	Status       Status  `json:"status"`
	Score        int     `json:"score,omitempty"`
	ScorePercent float64 `json:"scorePercent,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	SubtitlePath string  `json:"subtitlePath,omitempty"`
}

// ItemResult aggregates the language outcomes for one item.
type ItemResult struct {
	ItemID   int64            `json:"itemId"`
	Title    string           `json:"title"`
	Results  []LanguageResult `json:"results"`
	Deferred bool             `json:"deferred"`
}

var (
	// ErrAllProvidersThrottled aborts the current item (and any sweep
	// iteration over further items) without mutating state.
	ErrAllProvidersThrottled = errors.New("all providers are throttled")
	// ErrMediaFileMissing marks a metadata inconsistency: the library
	// says the file exists but the disk disagrees. The item is retried
	// on the next scheduled pass.
	ErrMediaFileMissing = errors.New("media file missing on disk")
)

// PersistenceError reports a failed subtitle write. The acquisition is
// rolled back to "not downloaded" and the missing set is left untouched.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist subtitle at %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
