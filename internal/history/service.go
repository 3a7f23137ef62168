package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/subwatch/subwatch/internal/media"
)

// Service provides history management functionality.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Create appends a new history event.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Event, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history
			(action, kind, item_id, language, provider, score, score_percent,
			 video_path, subtitle_path, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(input.Action), string(input.Kind), input.ItemID, input.Language,
		input.Provider, input.Score, input.ScorePercent, input.VideoPath,
		input.SubtitlePath, input.Description, now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to create history event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:           id,
		Action:       input.Action,
		Kind:         input.Kind,
		ItemID:       input.ItemID,
		Language:     input.Language,
		Provider:     input.Provider,
		Score:        input.Score,
		ScorePercent: input.ScorePercent,
		VideoPath:    input.VideoPath,
		SubtitlePath: input.SubtitlePath,
		Description:  input.Description,
		CreatedAt:    now,
	}, nil
}

// List lists history events with pagination and filtering, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}

	where := []string{"1=1"}
	args := []any{}
	if opts.Action != "" {
		where = append(where, "action = ?")
		args = append(args, opts.Action)
	}
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.ItemID > 0 {
		where = append(where, "item_id = ?")
		args = append(args, opts.ItemID)
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM history WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	query := `
		SELECT id, action, kind, item_id, language, provider, score, score_percent,
		       video_path, subtitle_path, description, created_at
		FROM history WHERE ` + clause + `
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Items:      events,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalCount: total,
	}, nil
}

// ListSince returns events with the given actions created at or after the
// cutoff, newest first. The upgrade sweeper uses this to find recent
// downloads whose stored score may be worth beating.
func (s *Service) ListSince(ctx context.Context, since time.Time, actions ...Action) ([]*Event, error) {
	if len(actions) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(actions))
	args := make([]any, 0, len(actions)+1)
	for i, a := range actions {
		placeholders[i] = "?"
		args = append(args, string(a))
	}
	args = append(args, since.UTC().Format(time.RFC3339))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, kind, item_id, language, provider, score, score_percent,
		       video_path, subtitle_path, description, created_at
		FROM history
		WHERE action IN (`+strings.Join(placeholders, ",")+`) AND created_at >= ?
		ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent history: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeleteForItem removes all history for an item. Used only when the item
// itself is removed from the library.
func (s *Service) DeleteForItem(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item history: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		var (
			e         Event
			action    string
			kind      string
			createdAt string
		)
		err := rows.Scan(&e.ID, &action, &kind, &e.ItemID, &e.Language,
			&e.Provider, &e.Score, &e.ScorePercent, &e.VideoPath,
			&e.SubtitlePath, &e.Description, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history event: %w", err)
		}
		e.Action = Action(action)
		e.Kind = media.Kind(kind)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
