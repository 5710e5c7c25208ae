// Package catalog manages the media library: asset records, their files on
// disk, and the derived streaming artifacts.
package catalog

import "time"

// Category groups assets by kind of work.
type Category string

const (
	CategoryMovie     Category = "movie"
	CategorySeries    Category = "series"
	CategoryAnimation Category = "animation"
)

// MediaType distinguishes video from audio assets.
type MediaType string

const (
	TypeVideo MediaType = "video"
	TypeAudio MediaType = "audio"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryMovie, CategorySeries, CategoryAnimation:
		return true
	}
	return false
}

// Asset is one library entry.
type Asset struct {
	ID         string
	Title      string
	Category   Category
	Type       MediaType
	Genres     []string
	Format     string
	FilePath   string
	Thumbnail  string
	StreamPath string
	Metadata   map[string]any
	OwnerID    string
	AddedAt    time.Time
	UpdatedAt  time.Time
}

// metadata key set on assets created ahead of their file arriving. Cleared
// when the real file is probed.
const stubKey = "stub"

// IsStub reports whether the asset is a placeholder awaiting its file.
func (a *Asset) IsStub() bool {
	if a.Metadata == nil {
		return false
	}
	v, ok := a.Metadata[stubKey].(bool)
	return ok && v
}

// AssetFilter narrows List results. Nil fields match everything.
type AssetFilter struct {
	Category *Category
	Type     *MediaType
	OwnerID  *string
	Title    *string
	Limit    int
	Offset   int
}
