package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"TalkIdeas/internal/ports"
)

// Importer captures a single transcript format implementation (HTML, plain text, etc.).
type Importer interface {
	Name() string
	Extensions() []string
	Import(ctx context.Context, path string) (title, text string, err error)
}

// Registry keeps a mapping from file extensions to their importers.
type Registry struct {
	byExt map[string]Importer
	urls  Importer
}

var _ ports.TranscriptImporter = (*Registry)(nil)

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Importer{}}
}

// Register adds or replaces an importer for every extension it claims.
func (r *Registry) Register(imp Importer) {
	if r.byExt == nil {
		r.byExt = map[string]Importer{}
	}
	for _, ext := range imp.Extensions() {
		r.byExt[strings.ToLower(ext)] = imp
	}
}

// RegisterURL sets the importer used for http(s) locations.
func (r *Registry) RegisterURL(imp Importer) {
	r.urls = imp
}

// Resolve returns the importer for a path or an error if none is registered.
func (r *Registry) Resolve(path string) (Importer, error) {
	if isURL(path) {
		if r.urls == nil {
			return nil, fmt.Errorf("no importer registered for urls")
		}
		return r.urls, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if imp, ok := r.byExt[ext]; ok {
		return imp, nil
	}
	return nil, fmt.Errorf("no importer registered for %q files (supported: %s)", ext, strings.Join(r.Supported(), ", "))
}

// Supported lists registered extensions in order.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Import dispatches to the importer matching path.
func (r *Registry) Import(ctx context.Context, path string) (string, string, error) {
	imp, err := r.Resolve(path)
	if err != nil {
		return "", "", err
	}
	title, text, err := imp.Import(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("%s importer: %w", imp.Name(), err)
	}
	return title, text, nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
