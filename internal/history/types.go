// Package history records the append-only log of subtitle events.
package history

import (
	"time"

	"github.com/subwatch/subwatch/internal/media"
)

// Action is the kind of history event.
type Action string

const (
	ActionDownloaded       Action = "downloaded"
	ActionUpgraded         Action = "upgraded"
	ActionManuallyUploaded Action = "manually_uploaded"
	ActionDeleted          Action = "deleted"
	ActionSynced           Action = "synced"
	ActionBlacklisted      Action = "blacklisted"
)

// Event is one history entry. Events are append-only; the upgrade sweeper
// reads them back to find weak downloads worth retrying.
type Event struct {
	ID           int64      `json:"id"`
	Action       Action     `json:"action"`
	Kind         media.Kind `json:"kind"`
	ItemID       int64      `json:"itemId"`
	Language     string     `json:"language"`
	Provider     string     `json:"provider,omitempty"`
	Score        int        `json:"score,omitempty"`
	ScorePercent float64    `json:"scorePercent,omitempty"`
	VideoPath    string     `json:"videoPath,omitempty"`
	SubtitlePath string     `json:"subtitlePath,omitempty"`
	Description  string     `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CreateInput contains the fields for appending an event.
type CreateInput struct {
	Action       Action
	Kind         media.Kind
	ItemID       int64
	Language     string
	Provider     string
	Score        int
	ScorePercent float64
	VideoPath    string
	SubtitlePath string
	Description  string
}

// ListOptions filters and paginates history listings.
type ListOptions struct {
	Action   string
	Kind     string
	ItemID   int64
	Page     int
	PageSize int
}

// ListResponse contains paginated history results.
type ListResponse struct {
	Items      []*Event `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalCount int64    `json:"totalCount"`
}
