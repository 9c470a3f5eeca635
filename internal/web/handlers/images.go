package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facelab/annotator/internal/images"
)

// ImagesHandler serves local image files in local-path mode. In URL mode
// the browser fetches images directly and this route always 404s.
type ImagesHandler struct {
	resolver *images.Resolver
}

func NewImagesHandler(resolver *images.Resolver) *ImagesHandler {
	return &ImagesHandler{resolver: resolver}
}

// Serve streams one image file.
func (h *ImagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.resolver.UseURLs() {
		respondError(w, http.StatusNotFound, "images are served from a remote URL")
		return
	}

	name := chi.URLParam(r, "name")
	path, err := h.resolver.LocalPath(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, path)
}
