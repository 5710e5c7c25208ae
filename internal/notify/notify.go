// Package notify records user-facing notifications.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Type grades notification severity.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// ValidType reports whether t is a known notification type.
func ValidType(t Type) bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is one message for one user.
type Notification struct {
	ID        int64
	UserID    string
	Message   string
	Type      Type
	Read      bool
	CreatedAt time.Time
}

var (
	// ErrNotFound indicates the notification does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidType indicates an unknown notification type.
	ErrInvalidType = errors.New("invalid notification type")
)

// Store persists notifications.
type Store struct {
	db *sql.DB
}

// NewStore creates a notification store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add records a notification. Sets ID and CreatedAt on the struct.
func (s *Store) Add(n *Notification) error {
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if !ValidType(n.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidType, n.Type)
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO notifications (user_id, message, type, is_read, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		n.UserID, n.Message, n.Type, now,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	n.ID = id
	n.CreatedAt = now
	return nil
}

// List returns a user's notifications, newest first.
func (s *Store) List(userID string, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	conditions := []string{"user_id = ?"}
	args := []any{userID}
	if unreadOnly {
		conditions = append(conditions, "is_read = 0")
	}

	query := "SELECT id, user_id, message, type, is_read, created_at FROM notifications WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return results, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Store) UnreadCount(userID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification as read. The user scoping keeps one user
// from acknowledging another's messages.
func (s *Store) MarkRead(id int64, userID string) error {
	result, err := s.db.Exec("UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("mark read %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark read %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkAllRead marks every notification of a user as read.
func (s *Store) MarkAllRead(userID string) error {
	if _, err := s.db.Exec("UPDATE notifications SET is_read = 1 WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Delete removes one notification.
func (s *Store) Delete(id int64, userID string) error {
	result, err := s.db.Exec("DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete notification %d: %w", id, ErrNotFound)
	}
	return nil
}

// CleanupOlderThan removes read notifications created before the cutoff.
// Unread ones are kept regardless of age.
func (s *Store) CleanupOlderThan(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM notifications WHERE is_read = 1 AND created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rows, nil
}

// Settings answers whether a user wants notifications at all.
type Settings interface {
	NotificationsEnabled(ctx context.Context, userID string) (bool, error)
}

// Service is the notification sink handed to the rest of the system.
// Delivery respects the user's opt-out.
type Service struct {
	store    *Store
	settings Settings
	log      *slog.Logger
}

// NewService creates a notification service. settings may be nil, in which
// case every message is delivered.
func NewService(store *Store, settings Settings, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		settings: settings,
		log:      log.With("component", "notify"),
	}
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() *Store {
	return s.store
}

// Notify records a message for a user unless they opted out.
func (s *Service) Notify(ctx context.Context, userID, message, kind string) error {
	if s.settings != nil {
		enabled, err := s.settings.NotificationsEnabled(ctx, userID)
		if err != nil {
			s.log.Error("read notification settings", "user_id", userID, "error", err)
		} else if !enabled {
			s.log.Debug("notifications disabled, dropping", "user_id", userID)
			return nil
		}
	}
	n := &Notification{UserID: userID, Message: message, Type: Type(kind)}
	if err := s.store.Add(n); err != nil {
		return err
	}
	s.log.Debug("notification recorded", "user_id", userID, "type", n.Type)
	return nil
}
