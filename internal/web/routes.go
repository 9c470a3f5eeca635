package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/facelab/annotator/internal/images"
	"github.com/facelab/annotator/internal/pairs"
	"github.com/facelab/annotator/internal/sheets"
	"github.com/facelab/annotator/internal/web/handlers"
	"github.com/facelab/annotator/internal/web/static"
)

func (s *Server) setupRoutes(table []pairs.Pair, writer sheets.Writer, resolver *images.Resolver) {
	sessionHandler := handlers.NewSessionHandler(s.config, s.sessionManager, writer, table)
	annotateHandler := handlers.NewAnnotateHandler(s.config, s.sessionManager, writer, resolver, table)
	imagesHandler := handlers.NewImagesHandler(resolver)
	instructionsHandler := handlers.NewInstructionsHandler(s.config)

	// Health check (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", sessionHandler.Start)
		r.Get("/session", sessionHandler.Status)
		r.Delete("/session", sessionHandler.End)
		r.Post("/session/restart", sessionHandler.Restart)

		r.Get("/pairs/current", annotateHandler.Current)
		r.Post("/annotations", annotateHandler.SubmitInitial)
		r.Post("/annotations/followup", annotateHandler.SubmitFollowup)

		r.Get("/instructions", instructionsHandler.Get)
	})

	// Local-mode image files
	s.router.Get("/images/{name}", imagesHandler.Serve)

	// Embedded frontend
	s.router.Get("/*", s.serveUI)
}

// serveUI serves the embedded annotation frontend.
func (s *Server) serveUI(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	f, err := fs.Open(path)
	if err != nil {
		// Unknown paths fall back to the app shell.
		f, err = fs.Open("/index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		path = "/index.html"
	}
	defer f.Close()

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(path, ".html"):
		contentType = "text/html; charset=utf-8"
	case strings.HasSuffix(path, ".css"):
		contentType = "text/css; charset=utf-8"
	case strings.HasSuffix(path, ".js"):
		contentType = "application/javascript; charset=utf-8"
	case strings.HasSuffix(path, ".svg"):
		contentType = "image/svg+xml"
	case strings.HasSuffix(path, ".ico"):
		contentType = "image/x-icon"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
