package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store provides access to asset records.
type Store struct {
	db *sql.DB
}

// NewStore creates a catalog store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapSQLiteError converts SQLite errors to package error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check the message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

// Add inserts a new asset. A missing ID is generated, and AddedAt/UpdatedAt
// are set on the struct.
func (s *Store) Add(a *Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()

	genres, err := encodeJSON(a.Genres)
	if err != nil {
		return err
	}
	metadata, err := encodeJSON(a.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO media (id, title, category, type, genres, format, file_path, thumbnail, stream_path, metadata, owner_id, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Category, a.Type, genres, a.Format, a.FilePath, a.Thumbnail, a.StreamPath, metadata, a.OwnerID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", mapSQLiteError(err))
	}
	a.AddedAt = now
	a.UpdatedAt = now
	return nil
}

func scanAsset(scan func(dest ...any) error) (*Asset, error) {
	a := &Asset{}
	var genres, metadata string
	err := scan(&a.ID, &a.Title, &a.Category, &a.Type, &genres, &a.Format, &a.FilePath, &a.Thumbnail, &a.StreamPath, &metadata, &a.OwnerID, &a.AddedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if genres != "" && genres != "null" {
		if err := json.Unmarshal([]byte(genres), &a.Genres); err != nil {
			return nil, fmt.Errorf("decode genres: %w", err)
		}
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return a, nil
}

const assetColumns = "id, title, category, type, genres, format, file_path, thumbnail, stream_path, metadata, owner_id, added_at, updated_at"

// Get retrieves an asset by ID.
// Returns ErrNotFound if the asset does not exist.
func (s *Store) Get(id string) (*Asset, error) {
	row := s.db.QueryRow("SELECT "+assetColumns+" FROM media WHERE id = ?", id)
	a, err := scanAsset(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", id, mapSQLiteError(err))
	}
	return a, nil
}

// List returns assets matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) List(f AssetFilter) ([]*Asset, int, error) {
	var conditions []string
	var args []any

	if f.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *f.Category)
	}
	if f.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *f.Type)
	}
	if f.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *f.OwnerID)
	}
	if f.Title != nil {
		conditions = append(conditions, "title LIKE ?")
		args = append(args, "%"+*f.Title+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM media "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	query := "SELECT " + assetColumns + " FROM media " + whereClause + " ORDER BY added_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Asset
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate assets: %w", err)
	}
	return results, total, nil
}

// Update rewrites an existing asset. Sets UpdatedAt on the struct.
// Returns ErrNotFound if the asset does not exist.
func (s *Store) Update(a *Asset) error {
	now := time.Now()

	genres, err := encodeJSON(a.Genres)
	if err != nil {
		return err
	}
	metadata, err := encodeJSON(a.Metadata)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE media SET title = ?, category = ?, type = ?, genres = ?, format = ?, file_path = ?, thumbnail = ?, stream_path = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		a.Title, a.Category, a.Type, genres, a.Format, a.FilePath, a.Thumbnail, a.StreamPath, metadata, now, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset %s: %w", a.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update asset %s: %w", a.ID, ErrNotFound)
	}
	a.UpdatedAt = now
	return nil
}

// Delete removes an asset record by ID.
// Idempotent: no error if the asset does not exist.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM media WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete asset %s: %w", id, mapSQLiteError(err))
	}
	return nil
}
