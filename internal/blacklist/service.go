// Package blacklist stores candidates that must never be selected again
// for an item.
package blacklist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/media"
)

// Entry bans one provider subtitle for one item and language.
type Entry struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"itemId"`
	Provider   string    `json:"provider"`
	SubtitleID string    `json:"subtitleId"`
	Language   string    `json:"language"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Service provides blacklist management.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a blacklist service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "blacklist").Logger(),
	}
}

// Add bans a subtitle for an item. Adding the same entry twice is a no-op.
func (s *Service) Add(ctx context.Context, itemID int64, providerName, subtitleID string, language media.LanguageTag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklist (item_id, provider, subtitle_id, language, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id, provider, subtitle_id) DO NOTHING`,
		itemID, providerName, subtitleID, language.Key(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}

	s.logger.Info().
		Int64("itemId", itemID).
		Str("provider", providerName).
		Str("subtitleId", subtitleID).
		Str("language", language.Key()).
		Msg("Blacklisted subtitle")
	return nil
}

// Remove lifts a ban.
func (s *Service) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blacklist WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	return nil
}

// ListForItem returns all bans for an item.
func (s *Service) ListForItem(ctx context.Context, itemID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, provider, subtitle_id, language, created_at
		FROM blacklist WHERE item_id = ? ORDER BY created_at DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Provider, &e.SubtitleID, &e.Language, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Matcher returns a predicate suitable for selection constraints, backed by
// one read of the item's bans.
func (s *Service) Matcher(ctx context.Context, itemID int64) (func(providerName, subtitleID string) bool, error) {
	entries, err := s.ListForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	banned := make(map[string]bool, len(entries))
	for _, e := range entries {
		banned[e.Provider+"\x00"+e.SubtitleID] = true
	}
	return func(providerName, subtitleID string) bool {
		return banned[providerName+"\x00"+subtitleID]
	}, nil
}
