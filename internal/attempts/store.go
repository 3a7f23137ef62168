package attempts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store persists per-item attempt histories. Records are serialized as a
// JSON list per item; all reasoning above this boundary uses typed records.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates an attempt history store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "attempts-store").Logger(),
	}
}

// Get returns the attempt history for an item. A missing row is an empty
// history, not an error.
func (s *Store) Get(ctx context.Context, itemID int64) ([]Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT records FROM attempt_history WHERE item_id = ?`, itemID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode attempt history: %w", err)
	}
	return records, nil
}

// Save writes the full attempt history for an item.
func (s *Store) Save(ctx context.Context, itemID int64, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempt_history (item_id, records, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET records = excluded.records, updated_at = excluded.updated_at`,
		itemID, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save attempt history: %w", err)
	}
	return nil
}

// Record reads the item's history, appends an attempt for key at now, and
// writes the compacted result back. The read-modify-write shape keeps the
// store safe if jobs are ever parallelized.
func (s *Store) Record(ctx context.Context, itemID int64, key string, now time.Time) ([]Record, error) {
	records, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	records = RecordAttempt(records, key, now)
	if err := s.Save(ctx, itemID, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes the history for an item.
func (s *Store) Delete(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM attempt_history WHERE item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete attempt history: %w", err)
	}
	return nil
}
