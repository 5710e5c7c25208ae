// Package vault stores private user files, optionally encrypted at rest
// with a server-side secret.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the item does not exist or belongs to another
	// user.
	ErrNotFound = errors.New("vault item not found")

	// ErrNoSecret indicates encryption was requested without a configured
	// vault secret.
	ErrNoSecret = errors.New("vault secret not configured")

	// ErrCorrupted indicates the stored blob is too short to be valid.
	ErrCorrupted = errors.New("vault item corrupted")

	// ErrDecryptFailed indicates the blob did not authenticate, commonly a
	// changed vault secret.
	ErrDecryptFailed = errors.New("vault decryption failed")
)

// Item is one stored file.
type Item struct {
	ID        string
	OwnerID   string
	Name      string
	FilePath  string
	Type      string
	Encrypted bool
	SizeBytes int64
	AddedAt   time.Time
}

// Store persists vault item records.
type Store struct {
	db *sql.DB
}

// NewStore creates a vault store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add records an item.
func (s *Store) Add(it *Item) error {
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO vault_items (id, owner_id, name, file_path, type, encrypted, size_bytes, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.OwnerID, it.Name, it.FilePath, it.Type, it.Encrypted, it.SizeBytes, now,
	)
	if err != nil {
		return fmt.Errorf("insert vault item: %w", err)
	}
	it.AddedAt = now
	return nil
}

// Get retrieves an item scoped to its owner.
// Returns ErrNotFound when missing or owned by someone else.
func (s *Store) Get(id, ownerID string) (*Item, error) {
	it := &Item{}
	err := s.db.QueryRow(`
		SELECT id, owner_id, name, file_path, type, encrypted, size_bytes, added_at
		FROM vault_items WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&it.ID, &it.OwnerID, &it.Name, &it.FilePath, &it.Type, &it.Encrypted, &it.SizeBytes, &it.AddedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get vault item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vault item %s: %w", id, err)
	}
	return it, nil
}

// List returns a user's items, newest first.
func (s *Store) List(ownerID string) ([]*Item, error) {
	rows, err := s.db.Query(`
		SELECT id, owner_id, name, file_path, type, encrypted, size_bytes, added_at
		FROM vault_items WHERE owner_id = ? ORDER BY added_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list vault items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Item
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.Name, &it.FilePath, &it.Type, &it.Encrypted, &it.SizeBytes, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan vault item: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vault items: %w", err)
	}
	return results, nil
}

// Delete removes an item record scoped to its owner.
func (s *Store) Delete(id, ownerID string) error {
	result, err := s.db.Exec("DELETE FROM vault_items WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete vault item %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete vault item %s: %w", id, ErrNotFound)
	}
	return nil
}

// Service stores and retrieves vault files.
type Service struct {
	store  *Store
	root   string
	secret string
	log    *slog.Logger
}

// NewService creates a vault service rooted at root. An empty secret
// disables encrypted storage.
func NewService(store *Store, root, secret string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		root:   root,
		secret: secret,
		log:    log.With("component", "vault"),
	}
}

// Store exposes the item store for read paths.
func (s *Service) Store() *Store {
	return s.store
}

// Put stores the contents of r as a new item. With encrypt set, the file is
// sealed with the vault secret before touching disk.
func (s *Service) Put(ctx context.Context, ownerID, name, itemType string, r io.Reader, encrypt bool) (*Item, error) {
	if encrypt && s.secret == "" {
		return nil, ErrNoSecret
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read vault payload: %w", err)
	}
	plainSize := int64(len(data))

	if encrypt {
		if data, err = seal(s.secret, data); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	path := filepath.Join(s.root, id)
	if err := os.MkdirAll(s.root, 0700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write vault file: %w", err)
	}

	it := &Item{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		FilePath:  path,
		Type:      itemType,
		Encrypted: encrypt,
		SizeBytes: plainSize,
	}
	if err := s.store.Add(it); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	s.log.Info("vault item stored", "id", id, "owner", ownerID, "encrypted", encrypt, "bytes", plainSize)
	return it, nil
}

// Retrieve returns an item's plaintext contents.
func (s *Service) Retrieve(ctx context.Context, id, ownerID string) (*Item, []byte, error) {
	it, err := s.store.Get(id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(it.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read vault file %s: %w", id, err)
	}
	if it.Encrypted {
		if s.secret == "" {
			return nil, nil, ErrNoSecret
		}
		if data, err = open(s.secret, data); err != nil {
			return nil, nil, fmt.Errorf("vault item %s: %w", id, err)
		}
	}
	return it, data, nil
}

// List returns a user's items.
func (s *Service) List(ctx context.Context, ownerID string) ([]*Item, error) {
	return s.store.List(ownerID)
}

// Delete removes an item's file and record.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	it, err := s.store.Get(id, ownerID)
	if err != nil {
		return err
	}
	if err := os.Remove(it.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove vault file %s: %w", id, err)
	}
	if err := s.store.Delete(id, ownerID); err != nil {
		return err
	}
	s.log.Info("vault item deleted", "id", id, "owner", ownerID)
	return nil
}
