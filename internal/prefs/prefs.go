// Package prefs stores per-user settings with sensible defaults.
package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Preferences are one user's settings.
type Preferences struct {
	UserID               string
	StreamingQuality     string
	PreferredAudioFormat string
	MaxDownloadSize      int64
	NotificationSettings map[string]any
	UIPreferences        map[string]any
	UpdatedAt            time.Time
}

const (
	DefaultStreamingQuality = "720p"
	DefaultAudioFormat      = "mp3"
	DefaultMaxDownloadSize  = 2 << 30  // 2 GiB
	MaxDownloadSizeLimit    = 10 << 30 // 10 GiB
)

var validQualities = map[string]bool{
	"360p": true, "480p": true, "720p": true, "1080p": true,
}

var validAudioFormats = map[string]bool{
	"mp3": true, "aac": true, "flac": true, "wav": true,
}

// ErrInvalidPreference indicates a value outside the allowed set.
var ErrInvalidPreference = errors.New("invalid preference")

// Defaults returns the settings a user has before saving anything.
func Defaults(userID string) *Preferences {
	return &Preferences{
		UserID:               userID,
		StreamingQuality:     DefaultStreamingQuality,
		PreferredAudioFormat: DefaultAudioFormat,
		MaxDownloadSize:      DefaultMaxDownloadSize,
		NotificationSettings: map[string]any{
			"downloadComplete": true,
			"newContent":       true,
			"requestUpdates":   true,
			"enablePush":       false,
		},
		UIPreferences: map[string]any{
			"theme":          "system",
			"listView":       "grid",
			"sortOrder":      "dateAdded",
			"showThumbnails": true,
			"autoplay":       true,
		},
	}
}

// Store persists preferences.
type Store struct {
	db *sql.DB
}

// NewStore creates a preferences store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns a user's preferences, falling back to defaults when the user
// has never saved any. No row is created on read.
func (s *Store) Get(userID string) (*Preferences, error) {
	p := &Preferences{UserID: userID}
	var notif, ui string
	err := s.db.QueryRow(`
		SELECT streaming_quality, preferred_audio_format, max_download_size, notification_settings, ui_preferences, updated_at
		FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&p.StreamingQuality, &p.PreferredAudioFormat, &p.MaxDownloadSize, &notif, &ui, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return Defaults(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences for %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(notif), &p.NotificationSettings); err != nil {
		return nil, fmt.Errorf("decode notification settings: %w", err)
	}
	if err := json.Unmarshal([]byte(ui), &p.UIPreferences); err != nil {
		return nil, fmt.Errorf("decode ui preferences: %w", err)
	}
	return p, nil
}

// Save upserts a user's preferences.
func (s *Store) Save(p *Preferences) error {
	notif, err := json.Marshal(p.NotificationSettings)
	if err != nil {
		return fmt.Errorf("encode notification settings: %w", err)
	}
	ui, err := json.Marshal(p.UIPreferences)
	if err != nil {
		return fmt.Errorf("encode ui preferences: %w", err)
	}
	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO user_preferences (user_id, streaming_quality, preferred_audio_format, max_download_size, notification_settings, ui_preferences, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			streaming_quality = excluded.streaming_quality,
			preferred_audio_format = excluded.preferred_audio_format,
			max_download_size = excluded.max_download_size,
			notification_settings = excluded.notification_settings,
			ui_preferences = excluded.ui_preferences,
			updated_at = excluded.updated_at`,
		p.UserID, p.StreamingQuality, p.PreferredAudioFormat, p.MaxDownloadSize, string(notif), string(ui), now,
	)
	if err != nil {
		return fmt.Errorf("save preferences for %s: %w", p.UserID, err)
	}
	p.UpdatedAt = now
	return nil
}

// Service validates and applies preference updates.
type Service struct {
	store *Store
}

// NewService creates a preferences service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Get returns a user's effective preferences.
func (s *Service) Get(ctx context.Context, userID string) (*Preferences, error) {
	return s.store.Get(userID)
}

// Update carries a partial preferences change. Nil fields stay unchanged;
// the JSON maps merge key by key instead of replacing wholesale.
type Update struct {
	StreamingQuality     *string
	PreferredAudioFormat *string
	MaxDownloadSize      *int64
	NotificationSettings map[string]any
	UIPreferences        map[string]any
}

// Update validates and applies a partial change, returning the new state.
func (s *Service) Update(ctx context.Context, userID string, upd Update) (*Preferences, error) {
	p, err := s.store.Get(userID)
	if err != nil {
		return nil, err
	}

	if upd.StreamingQuality != nil {
		if !validQualities[*upd.StreamingQuality] {
			return nil, fmt.Errorf("%w: streaming quality %q", ErrInvalidPreference, *upd.StreamingQuality)
		}
		p.StreamingQuality = *upd.StreamingQuality
	}
	if upd.PreferredAudioFormat != nil {
		if !validAudioFormats[*upd.PreferredAudioFormat] {
			return nil, fmt.Errorf("%w: audio format %q", ErrInvalidPreference, *upd.PreferredAudioFormat)
		}
		p.PreferredAudioFormat = *upd.PreferredAudioFormat
	}
	if upd.MaxDownloadSize != nil {
		if *upd.MaxDownloadSize <= 0 || *upd.MaxDownloadSize > MaxDownloadSizeLimit {
			return nil, fmt.Errorf("%w: max download size %d", ErrInvalidPreference, *upd.MaxDownloadSize)
		}
		p.MaxDownloadSize = *upd.MaxDownloadSize
	}
	for k, v := range upd.NotificationSettings {
		p.NotificationSettings[k] = v
	}
	for k, v := range upd.UIPreferences {
		p.UIPreferences[k] = v
	}

	if err := s.store.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// MaxDownloadSize reports the user's per-job byte limit.
func (s *Service) MaxDownloadSize(ctx context.Context, userID string) (int64, error) {
	p, err := s.store.Get(userID)
	if err != nil {
		return 0, err
	}
	return p.MaxDownloadSize, nil
}

// NotificationsEnabled reports whether the user wants download lifecycle
// messages. The downloadComplete toggle gates them; absent, they are on.
func (s *Service) NotificationsEnabled(ctx context.Context, userID string) (bool, error) {
	p, err := s.store.Get(userID)
	if err != nil {
		return false, err
	}
	if v, ok := p.NotificationSettings["downloadComplete"].(bool); ok {
		return v, nil
	}
	return true, nil
}
