package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/regsplit/internal/storage"
	"github.com/go-chi/chi/v5"
)

type imageEntry struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// handleListImages lists every stored composite.
func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	objs, err := s.store.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list images: "+err.Error(), http.StatusInternalServerError)
		return
	}

	images := make([]imageEntry, 0, len(objs))
	for _, o := range objs {
		images = append(images, imageEntry{
			Name:     o.Name,
			URL:      s.runner.Builder().URL(o.Name),
			Size:     o.Size,
			Modified: o.Modified,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"images": images})
}

// handleDeleteImage removes one stored composite.
func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := storage.CheckName(name); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := s.store.Delete(r.Context(), name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		jsonError(w, "image not found", http.StatusNotFound)
		return
	case err != nil:
		jsonError(w, "failed to delete image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Info("deleted image", "name", name)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": name})
}
