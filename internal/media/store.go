package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var ErrItemNotFound = errors.New("media item not found")

// Store persists media items. Subtitle and missing sets are serialized as
// JSON at this boundary only; everything above it works on the typed form.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a media store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "media-store").Logger(),
	}
}

// Get retrieves a single item by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, title, year, series_title, season_number, episode_number,
		       path, monitored, profile_id, audio_languages, release_name,
		       subtitles, missing
		FROM media_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get media item: %w", err)
	}
	return item, nil
}

// ListMonitored returns monitored items of the given kind that have an
// assigned language profile.
func (s *Store) ListMonitored(ctx context.Context, kind Kind) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title, year, series_title, season_number, episode_number,
		       path, monitored, profile_id, audio_languages, release_name,
		       subtitles, missing
		FROM media_items
		WHERE kind = ? AND monitored = 1 AND profile_id IS NOT NULL
		ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListWanted returns monitored items of the given kind with a non-empty
// missing set.
func (s *Store) ListWanted(ctx context.Context, kind Kind) ([]*Item, error) {
	items, err := s.ListMonitored(ctx, kind)
	if err != nil {
		return nil, err
	}
	wanted := items[:0]
	for _, item := range items {
		if len(item.Missing) > 0 {
			wanted = append(wanted, item)
		}
	}
	return wanted, nil
}

// Create inserts an item and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, item *Item) (*Item, error) {
	audio, err := json.Marshal(item.AudioLanguages)
	if err != nil {
		return nil, err
	}
	subs, err := json.Marshal(item.Subtitles)
	if err != nil {
		return nil, err
	}
	missing, err := json.Marshal(item.Missing)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO media_items
			(kind, title, year, series_title, season_number, episode_number,
			 path, monitored, profile_id, audio_languages, release_name,
			 subtitles, missing, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(item.Kind), item.Title, item.Year, item.SeriesTitle,
		item.SeasonNumber, item.EpisodeNumber, item.Path, item.Monitored,
		nullInt64(item.ProfileID), string(audio), item.ReleaseName,
		string(subs), string(missing), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create media item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	item.ID = id
	return item, nil
}

// UpdateSubtitles writes the item's subtitle set and derived missing set in
// one statement so the two never diverge in the store.
func (s *Store) UpdateSubtitles(ctx context.Context, id int64, subtitles SubtitleSet, missing []string) error {
	subs, err := json.Marshal(subtitles)
	if err != nil {
		return err
	}
	miss, err := json.Marshal(missing)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE media_items SET subtitles = ?, missing = ?, updated_at = ?
		WHERE id = ?`,
		string(subs), string(miss), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update subtitles: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// UpdateMissing writes only the derived missing set.
func (s *Store) UpdateMissing(ctx context.Context, id int64, missing []string) error {
	miss, err := json.Marshal(missing)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE media_items SET missing = ?, updated_at = ? WHERE id = ?`,
		string(miss), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update missing set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes an item. Attempt history for the item is removed by the
// ON DELETE CASCADE on attempt_history.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media item: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item      Item
		kind      string
		profileID sql.NullInt64
		audio     string
		subs      string
		missing   string
	)
	err := row.Scan(&item.ID, &kind, &item.Title, &item.Year, &item.SeriesTitle,
		&item.SeasonNumber, &item.EpisodeNumber, &item.Path, &item.Monitored,
		&profileID, &audio, &item.ReleaseName, &subs, &missing)
	if err != nil {
		return nil, err
	}

	item.Kind = Kind(kind)
	if profileID.Valid {
		item.ProfileID = &profileID.Int64
	}
	if err := json.Unmarshal([]byte(audio), &item.AudioLanguages); err != nil {
		return nil, fmt.Errorf("failed to decode audio languages: %w", err)
	}
	if err := json.Unmarshal([]byte(subs), &item.Subtitles); err != nil {
		return nil, fmt.Errorf("failed to decode subtitle set: %w", err)
	}
	if err := json.Unmarshal([]byte(missing), &item.Missing); err != nil {
		return nil, fmt.Errorf("failed to decode missing set: %w", err)
	}
	return &item, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
