package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/streamcloud/streamcloud/internal/probe"
	"github.com/streamcloud/streamcloud/pkg/title"
)

// Prober inspects media files.
type Prober interface {
	Probe(ctx context.Context, filePath string) (*probe.Metadata, error)
}

// Transcoder produces derived streaming artifacts.
type Transcoder interface {
	Thumbnail(ctx context.Context, src, dst string) error
	HLS(ctx context.Context, src, outDir string) (string, error)
}

// Service coordinates asset ingestion: file placement, probing, artifact
// generation, and record keeping.
type Service struct {
	store      *Store
	prober     Prober
	transcoder Transcoder
	mediaRoot  string
	log        *slog.Logger
}

// NewService creates a catalog service rooted at mediaRoot.
func NewService(store *Store, prober Prober, transcoder Transcoder, mediaRoot string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:      store,
		prober:     prober,
		transcoder: transcoder,
		mediaRoot:  mediaRoot,
		log:        log.With("component", "catalog"),
	}
}

// Store exposes the underlying store for read paths that need no
// orchestration.
func (s *Service) Store() *Store {
	return s.store
}

// CreateRequest describes a new asset whose file already exists on disk.
type CreateRequest struct {
	SourcePath string
	Title      string
	Category   Category
	Genres     []string
	OwnerID    string
}

// Create ingests a media file: moves it into the library, probes it,
// generates the thumbnail and HLS bundle for video, and records the asset.
// All artifacts are removed again if any step fails.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Asset, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidAsset)
	}
	if !ValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidAsset, req.Category)
	}

	a := &Asset{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Category: req.Category,
		Genres:   req.Genres,
		OwnerID:  req.OwnerID,
	}

	if err := s.ingest(ctx, a, req.SourcePath); err != nil {
		s.cleanupArtifacts(a)
		return nil, err
	}

	if err := s.store.Add(a); err != nil {
		s.cleanupArtifacts(a)
		return nil, err
	}

	s.log.Info("asset created", "id", a.ID, "title", a.Title, "type", a.Type)
	return a, nil
}

// CreateStub records a placeholder asset for content that is still being
// downloaded. The category, type, and format are guesses until Finalize
// probes the real file.
func (s *Service) CreateStub(ctx context.Context, assetTitle, ownerID string) (*Asset, error) {
	if assetTitle == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidAsset)
	}
	a := &Asset{
		ID:       uuid.NewString(),
		Title:    assetTitle,
		Category: CategoryMovie,
		Type:     TypeVideo,
		Format:   "mp4",
		OwnerID:  ownerID,
		Metadata: map[string]any{stubKey: true},
	}
	if err := s.store.Add(a); err != nil {
		return nil, err
	}
	s.log.Info("stub asset created", "id", a.ID, "title", a.Title)
	return a, nil
}

// Finalize attaches a downloaded file to a stub asset. The file is probed and
// the guessed type and format are replaced with what the probe reports.
func (s *Service) Finalize(ctx context.Context, id, sourcePath string) (*Asset, error) {
	a, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	if err := s.ingest(ctx, a, sourcePath); err != nil {
		s.cleanupArtifacts(a)
		return nil, err
	}
	delete(a.Metadata, stubKey)

	if err := s.store.Update(a); err != nil {
		s.cleanupArtifacts(a)
		return nil, err
	}

	s.log.Info("asset finalized", "id", a.ID, "type", a.Type, "format", a.Format)
	return a, nil
}

// ingest moves the source file into the library, probes it, and fills the
// asset's file fields, metadata, and derived artifacts.
func (s *Service) ingest(ctx context.Context, a *Asset, sourcePath string) error {
	assetDir := filepath.Join(s.mediaRoot, "library", a.ID)
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	dst := filepath.Join(assetDir, title.SanitizeFilename(filepath.Base(sourcePath)))
	if err := moveFile(sourcePath, dst); err != nil {
		return fmt.Errorf("place media file: %w", err)
	}
	a.FilePath = dst

	md, err := s.prober.Probe(ctx, dst)
	if err != nil {
		return err
	}
	a.Type, a.Format = classify(md, dst)
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	for k, v := range md.Map() {
		a.Metadata[k] = v
	}

	if a.Type == TypeVideo {
		thumb := filepath.Join(s.mediaRoot, "thumbnails", a.ID+".jpg")
		if err := s.transcoder.Thumbnail(ctx, dst, thumb); err != nil {
			return err
		}
		a.Thumbnail = thumb

		master, err := s.transcoder.HLS(ctx, dst, filepath.Join(s.mediaRoot, "hls", a.ID))
		if err != nil {
			return err
		}
		a.StreamPath = master
	}
	return nil
}

// classify derives the media type and container format from probe output,
// falling back to the file extension.
func classify(md *probe.Metadata, filePath string) (MediaType, string) {
	typ := TypeAudio
	if md.Width > 0 {
		typ = TypeVideo
	}

	format := strings.TrimPrefix(filepath.Ext(filePath), ".")
	if md.Container != "" {
		// ffprobe reports comma-separated demuxer aliases; take the first.
		format, _, _ = strings.Cut(md.Container, ",")
	}
	return typ, strings.ToLower(format)
}

// Update applies caller-editable fields. Only the owner may update an asset.
func (s *Service) Update(ctx context.Context, id, requesterID string, upd UpdateRequest) (*Asset, error) {
	a, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != requesterID {
		return nil, ErrForbidden
	}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, fmt.Errorf("%w: title required", ErrInvalidAsset)
		}
		a.Title = *upd.Title
	}
	if upd.Category != nil {
		if !ValidCategory(*upd.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidAsset, *upd.Category)
		}
		a.Category = *upd.Category
	}
	if upd.Genres != nil {
		a.Genres = upd.Genres
	}

	if err := s.store.Update(a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateRequest carries the caller-editable asset fields. Nil means leave
// unchanged.
type UpdateRequest struct {
	Title    *string
	Category *Category
	Genres   []string
}

// Delete removes an asset's files and artifacts, then its record. Artifacts
// go first so a crash leaves a record pointing at missing files rather than
// orphaned files with no record.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	a, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if a.OwnerID != requesterID {
		return ErrForbidden
	}

	s.cleanupArtifacts(a)
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.log.Info("asset deleted", "id", id)
	return nil
}

// cleanupArtifacts removes everything on disk belonging to the asset.
func (s *Service) cleanupArtifacts(a *Asset) {
	for _, path := range []string{
		filepath.Join(s.mediaRoot, "library", a.ID),
		filepath.Join(s.mediaRoot, "hls", a.ID),
	} {
		if err := os.RemoveAll(path); err != nil {
			s.log.Error("remove artifact dir", "path", path, "error", err)
		}
	}
	if a.Thumbnail != "" {
		if err := os.Remove(a.Thumbnail); err != nil && !os.IsNotExist(err) {
			s.log.Error("remove thumbnail", "path", a.Thumbnail, "error", err)
		}
	}
}

// moveFile renames src to dst, falling back to copy and delete when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
