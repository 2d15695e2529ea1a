package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/productapp/catalog-backend/internal/http/response"
	"github.com/productapp/catalog-backend/internal/service"
)

// AssetHandler streams uploaded product images out of the asset store, so
// the same URL space works for the local filesystem and object storage
// backends.
type AssetHandler struct {
	store service.AssetStore
}

func NewAssetHandler(store service.AssetStore) *AssetHandler {
	return &AssetHandler{store: store}
}

func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")

	rc, contentType, err := h.store.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrAssetNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "image not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load image", nil)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
