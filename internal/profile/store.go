package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var ErrProfileNotFound = errors.New("language profile not found")

// Store persists language profiles. Entries, cutoff and filters are
// serialized as JSON at this boundary.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a profile store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "profile-store").Logger(),
	}
}

// Get retrieves a profile by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, entries, cutoff, must_contain, must_not_contain
		FROM language_profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get language profile: %w", err)
	}
	return p, nil
}

// List returns all profiles ordered by name.
func (s *Store) List(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, entries, cutoff, must_contain, must_not_contain
		FROM language_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list language profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Create inserts a profile and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, p *Profile) (*Profile, error) {
	entries, err := json.Marshal(p.Entries)
	if err != nil {
		return nil, err
	}
	cutoff, err := marshalNullable(p.Cutoff)
	if err != nil {
		return nil, err
	}
	mustContain, err := json.Marshal(p.MustContain)
	if err != nil {
		return nil, err
	}
	mustNotContain, err := json.Marshal(p.MustNotContain)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO language_profiles
			(name, entries, cutoff, must_contain, must_not_contain, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, string(entries), cutoff, string(mustContain), string(mustNotContain), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create language profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// Update rewrites an existing profile.
func (s *Store) Update(ctx context.Context, p *Profile) error {
	entries, err := json.Marshal(p.Entries)
	if err != nil {
		return err
	}
	cutoff, err := marshalNullable(p.Cutoff)
	if err != nil {
		return err
	}
	mustContain, err := json.Marshal(p.MustContain)
	if err != nil {
		return err
	}
	mustNotContain, err := json.Marshal(p.MustNotContain)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE language_profiles
		SET name = ?, entries = ?, cutoff = ?, must_contain = ?, must_not_contain = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, string(entries), cutoff, string(mustContain), string(mustNotContain),
		time.Now().UTC().Format(time.RFC3339), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update language profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Delete removes a profile. Items referencing it keep a dangling profile ID
// until the metadata sync reassigns them; the resolver treats a missing
// profile as "nothing wanted".
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM language_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete language profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p              Profile
		entries        string
		cutoff         sql.NullString
		mustContain    string
		mustNotContain string
	)
	if err := row.Scan(&p.ID, &p.Name, &entries, &cutoff, &mustContain, &mustNotContain); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(entries), &p.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode profile entries: %w", err)
	}
	if cutoff.Valid && cutoff.String != "" {
		var c Entry
		if err := json.Unmarshal([]byte(cutoff.String), &c); err != nil {
			return nil, fmt.Errorf("failed to decode profile cutoff: %w", err)
		}
		p.Cutoff = &c
	}
	if err := json.Unmarshal([]byte(mustContain), &p.MustContain); err != nil {
		return nil, fmt.Errorf("failed to decode must-contain filters: %w", err)
	}
	if err := json.Unmarshal([]byte(mustNotContain), &p.MustNotContain); err != nil {
		return nil, fmt.Errorf("failed to decode must-not-contain filters: %w", err)
	}
	return &p, nil
}

func marshalNullable(e *Entry) (sql.NullString, error) {
	if e == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
