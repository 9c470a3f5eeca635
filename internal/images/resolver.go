// Package images maps image identifiers from the pairs table to
// displayable resources: local files served by this process, or remote
// URLs fetched directly by the browser.
package images

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/facelab/annotator/internal/config"
)

// ErrNotFound reports a missing local image file.
var ErrNotFound = errors.New("image not found")

// Resolver turns an image identifier into a displayable reference.
// Exactly one of the two modes is active, chosen by configuration.
type Resolver struct {
	basePath string
	urlBase  string
	useURLs  bool
}

func NewResolver(cfg config.ImagesConfig) *Resolver {
	return &Resolver{
		basePath: cfg.BasePath,
		urlBase:  cfg.URLBase,
		useURLs:  cfg.UseURLs,
	}
}

// UseURLs reports whether the resolver is in remote-URL mode.
func (r *Resolver) UseURLs() bool {
	return r.useURLs
}

// Resolve returns the reference the browser should load for an
// identifier. URL mode never checks existence; fetching is the browser's
// problem. Local mode verifies the file exists and returns ErrNotFound
// otherwise.
func (r *Resolver) Resolve(identifier string) (string, error) {
	if r.useURLs {
		return r.urlBase + identifier, nil
	}
	if _, err := r.LocalPath(identifier); err != nil {
		return "", err
	}
	// Served by the local /images route.
	return "/images/" + identifier, nil
}

// LocalPath returns the on-disk path for an identifier in local mode.
// Identifiers that escape the base directory are rejected.
func (r *Resolver) LocalPath(identifier string) (string, error) {
	if r.useURLs {
		return "", fmt.Errorf("resolver is in URL mode")
	}
	clean := path.Clean("/" + identifier)
	if strings.Contains(identifier, "..") || clean == "/" {
		return "", fmt.Errorf("invalid image identifier %q: %w", identifier, ErrNotFound)
	}
	full := filepath.Join(r.basePath, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("image %q: %w", identifier, ErrNotFound)
	}
	return full, nil
}
