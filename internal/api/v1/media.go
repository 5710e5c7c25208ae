package v1

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/streamcloud/streamcloud/internal/catalog"
)

// uploadLimit caps the multipart form memory buffer; larger file parts
// spill to disk.
const uploadLimit = 32 << 20

func assetToResponse(a *catalog.Asset) assetResponse {
	return assetResponse{
		ID:         a.ID,
		Title:      a.Title,
		Category:   string(a.Category),
		Type:       string(a.Type),
		Genres:     a.Genres,
		Format:     a.Format,
		Thumbnail:  a.Thumbnail,
		Streamable: a.StreamPath != "",
		Metadata:   a.Metadata,
		OwnerID:    a.OwnerID,
		AddedAt:    a.AddedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	filter := catalog.AssetFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if cat := queryString(r, "category"); cat != nil {
		c := catalog.Category(*cat)
		filter.Category = &c
	}
	if typ := queryString(r, "type"); typ != nil {
		t := catalog.MediaType(*typ)
		filter.Type = &t
	}
	if owner := queryString(r, "owner"); owner != nil {
		filter.OwnerID = owner
	}
	filter.Title = queryString(r, "q")

	items, total, err := s.deps.Catalog.Store().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listAssetsResponse{
		Items:  make([]assetResponse, len(items)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i, a := range items {
		resp.Items[i] = assetToResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Catalog.Store().Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, assetToResponse(a))
}

func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadLimit); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "file part is required")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	var genres []string
	if g := r.FormValue("genres"); g != "" {
		for _, v := range strings.Split(g, ",") {
			if v = strings.TrimSpace(v); v != "" {
				genres = append(genres, v)
			}
		}
	}

	// Spool the upload to disk so the catalog can move it into the library.
	tmp, err := os.CreateTemp(s.deps.UploadDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "UPLOAD_ERROR", err.Error())
		return
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		writeError(w, http.StatusInternalServerError, "UPLOAD_ERROR", err.Error())
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		writeError(w, http.StatusInternalServerError, "UPLOAD_ERROR", err.Error())
		return
	}

	a, err := s.deps.Catalog.Create(r.Context(), catalog.CreateRequest{
		SourcePath: tmpPath,
		Title:      title,
		Category:   catalog.Category(r.FormValue("category")),
		Genres:     genres,
		OwnerID:    userID(r),
	})
	if err != nil {
		os.Remove(tmpPath)
		switch {
		case errors.Is(err, catalog.ErrInvalidAsset):
			writeError(w, http.StatusBadRequest, "INVALID_ASSET", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "INGEST_ERROR", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, assetToResponse(a))
}

func (s *Server) updateMedia(w http.ResponseWriter, r *http.Request) {
	var req updateAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	upd := catalog.UpdateRequest{Title: req.Title, Genres: req.Genres}
	if req.Category != nil {
		c := catalog.Category(*req.Category)
		upd.Category = &c
	}

	a, err := s.deps.Catalog.Update(r.Context(), r.PathValue("id"), userID(r), upd)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
		case errors.Is(err, catalog.ErrForbidden):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Not the owner of this media")
		case errors.Is(err, catalog.ErrInvalidAsset):
			writeError(w, http.StatusBadRequest, "INVALID_ASSET", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, assetToResponse(a))
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Catalog.Delete(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
		case errors.Is(err, catalog.ErrForbidden):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Not the owner of this media")
		default:
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
