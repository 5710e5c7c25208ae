// Package feed watches RSS sources and turns matching entries into download
// jobs.
package feed

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source is one watched feed.
type Source struct {
	ID          int64
	URL         string
	Label       string
	OwnerID     string
	Patterns    []string
	LastChecked *time.Time
	AddedAt     time.Time
}

var (
	// ErrNotFound indicates the requested source does not exist.
	ErrNotFound = errors.New("feed source not found")

	// ErrDuplicate indicates the URL is already watched.
	ErrDuplicate = errors.New("feed source already exists")

	// ErrInvalidSource indicates required fields are missing.
	ErrInvalidSource = errors.New("invalid feed source")
)

// Store persists feed sources.
type Store struct {
	db *sql.DB
}

// NewStore creates a feed store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add registers a source. Sets ID and AddedAt on the struct.
func (s *Store) Add(src *Source) error {
	if src.URL == "" {
		return fmt.Errorf("%w: url required", ErrInvalidSource)
	}
	patterns, err := json.Marshal(src.Patterns)
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO feeds (url, label, owner_id, patterns, last_checked, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		src.URL, src.Label, src.OwnerID, string(patterns), src.LastChecked, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("add feed %s: %w", src.URL, ErrDuplicate)
		}
		return fmt.Errorf("insert feed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	src.ID = id
	src.AddedAt = now
	return nil
}

func scanSource(scan func(dest ...any) error) (*Source, error) {
	src := &Source{}
	var patterns string
	if err := scan(&src.ID, &src.URL, &src.Label, &src.OwnerID, &patterns, &src.LastChecked, &src.AddedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(patterns), &src.Patterns); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	return src, nil
}

const sourceColumns = "id, url, label, owner_id, patterns, last_checked, added_at"

// Get retrieves a source by ID.
// Returns ErrNotFound if the source does not exist.
func (s *Store) Get(id int64) (*Source, error) {
	row := s.db.QueryRow("SELECT "+sourceColumns+" FROM feeds WHERE id = ?", id)
	src, err := scanSource(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get feed %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get feed %d: %w", id, err)
	}
	return src, nil
}

// List returns all sources, oldest first.
func (s *Store) List() ([]*Source, error) {
	rows, err := s.db.Query("SELECT " + sourceColumns + " FROM feeds ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Source
	for rows.Next() {
		src, err := scanSource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		results = append(results, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feeds: %w", err)
	}
	return results, nil
}

// Update rewrites a source's label and patterns.
// Returns ErrNotFound if the source does not exist.
func (s *Store) Update(src *Source) error {
	patterns, err := json.Marshal(src.Patterns)
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	result, err := s.db.Exec(`
		UPDATE feeds SET label = ?, patterns = ? WHERE id = ?`,
		src.Label, string(patterns), src.ID,
	)
	if err != nil {
		return fmt.Errorf("update feed %d: %w", src.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update feed %d: %w", src.ID, ErrNotFound)
	}
	return nil
}

// SetLastChecked records the watermark for a source. New poll cycles only
// consider items published after it.
func (s *Store) SetLastChecked(id int64, at time.Time) error {
	if _, err := s.db.Exec("UPDATE feeds SET last_checked = ? WHERE id = ?", at, id); err != nil {
		return fmt.Errorf("set last checked for feed %d: %w", id, err)
	}
	return nil
}

// Delete removes a source.
// Idempotent: no error if the source does not exist.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec("DELETE FROM feeds WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete feed %d: %w", id, err)
	}
	return nil
}
