package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/streamcloud/streamcloud/internal/vault"
)

func vaultItemToResponse(it *vault.Item) vaultItemResponse {
	return vaultItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Type:      it.Type,
		Encrypted: it.Encrypted,
		SizeBytes: it.SizeBytes,
		AddedAt:   it.AddedAt,
	}
}

func (s *Server) listVault(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Vault.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]vaultItemResponse, len(items))
	for i, it := range items {
		resp[i] = vaultItemToResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) putVaultItem(w http.ResponseWriter, r *http.Request) {
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

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	itemType := r.FormValue("type")
	if itemType == "" {
		itemType = "document"
	}
	encrypt := r.FormValue("encrypt") == "true"

	it, err := s.deps.Vault.Put(r.Context(), userID(r), name, itemType, file, encrypt)
	if err != nil {
		if errors.Is(err, vault.ErrNoSecret) {
			writeError(w, http.StatusConflict, "NO_SECRET", "Vault encryption secret not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "VAULT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, vaultItemToResponse(it))
}

func (s *Server) getVaultItem(w http.ResponseWriter, r *http.Request) {
	it, data, err := s.deps.Vault.Retrieve(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		switch {
		case errors.Is(err, vault.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Vault item not found")
		case errors.Is(err, vault.ErrDecryptFailed), errors.Is(err, vault.ErrCorrupted):
			writeError(w, http.StatusConflict, "DECRYPT_FAILED", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "VAULT_ERROR", err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+it.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) deleteVaultItem(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Vault.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Vault item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "VAULT_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
