package v1

import "time"

// assetResponse is the API representation of a media asset.
type assetResponse struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Category   string         `json:"category"`
	Type       string         `json:"type"`
	Genres     []string       `json:"genres"`
	Format     string         `json:"format"`
	Thumbnail  string         `json:"thumbnail,omitempty"`
	Streamable bool           `json:"streamable"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OwnerID    string         `json:"owner_id"`
	AddedAt    time.Time      `json:"added_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// listAssetsResponse is the response for GET /media.
type listAssetsResponse struct {
	Items  []assetResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// updateAssetRequest is the body for PUT /media/{id}.
type updateAssetRequest struct {
	Title    *string  `json:"title"`
	Category *string  `json:"category"`
	Genres   []string `json:"genres"`
}

// jobResponse is the API representation of a download job.
type jobResponse struct {
	ID          int64     `json:"id"`
	MediaID     *string   `json:"media_id,omitempty"`
	Status      string    `json:"status"`
	SourceKind  string    `json:"source_kind"`
	SourceURL   string    `json:"source_url"`
	Progress    float64   `json:"progress"`
	Error       string    `json:"error,omitempty"`
	GID         string    `json:"gid,omitempty"`
	RequestedBy string    `json:"requested_by"`
	AddedAt     time.Time `json:"added_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// submitDownloadRequest is the body for POST /downloads.
type submitDownloadRequest struct {
	URL     string  `json:"url"`
	Kind    string  `json:"kind"`
	MediaID *string `json:"media_id"`
}

// feedRequest is the body for POST and PUT /feeds.
type feedRequest struct {
	URL      string   `json:"url"`
	Label    string   `json:"label"`
	Patterns []string `json:"patterns"`
}

// feedResponse is the API representation of a feed source.
type feedResponse struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Label       string     `json:"label"`
	Patterns    []string   `json:"patterns"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	AddedAt     time.Time  `json:"added_at"`
}

// notificationResponse is the API representation of a notification.
type notificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// prefsResponse is the API representation of user preferences.
type prefsResponse struct {
	StreamingQuality     string         `json:"streaming_quality"`
	PreferredAudioFormat string         `json:"preferred_audio_format"`
	MaxDownloadSize      int64          `json:"max_download_size"`
	NotificationSettings map[string]any `json:"notification_settings"`
	UIPreferences        map[string]any `json:"ui_preferences"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// prefsUpdateRequest is the body for PATCH /preferences.
type prefsUpdateRequest struct {
	StreamingQuality     *string        `json:"streaming_quality"`
	PreferredAudioFormat *string        `json:"preferred_audio_format"`
	MaxDownloadSize      *int64         `json:"max_download_size"`
	NotificationSettings map[string]any `json:"notification_settings"`
	UIPreferences        map[string]any `json:"ui_preferences"`
}

// vaultItemResponse is the API representation of a vault item.
type vaultItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Encrypted bool      `json:"encrypted"`
	SizeBytes int64     `json:"size_bytes"`
	AddedAt   time.Time `json:"added_at"`
}

// statusResponse is the response for GET /system/status.
type statusResponse struct {
	Status string      `json:"status"`
	Daemon string      `json:"daemon"`
	Stats  *statsBlock `json:"stats,omitempty"`
}

type statsBlock struct {
	DownloadSpeed int64 `json:"download_speed"`
	UploadSpeed   int64 `json:"upload_speed"`
	NumActive     int   `json:"num_active"`
	NumWaiting    int   `json:"num_waiting"`
	NumStopped    int   `json:"num_stopped"`
}
