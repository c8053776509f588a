// Package noteservice coordinates the path guard, vault storage, citation
// index and event fan-out behind the HTTP and MCP surfaces.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/sopgate/internal/apperr"
	"github.com/starford/sopgate/internal/index"
	"github.com/starford/sopgate/internal/models"
	"github.com/starford/sopgate/internal/parser"
	"github.com/starford/sopgate/internal/pathguard"
	"github.com/starford/sopgate/internal/preview"
	"github.com/starford/sopgate/internal/sopref"
	"github.com/starford/sopgate/internal/storage"
)

// Event kinds passed to a Notifier.
const (
	KindAppended = "appended"
)

// Notifier receives note change events. *sse.Broker satisfies it.
type Notifier interface {
	PublishNoteEvent(kind, path string)
}

// NotePreview is a rendered note.
type NotePreview struct {
	Path       string             `json:"path"`
	Title      string             `json:"title"`
	HTML       string             `json:"html"`
	References []sopref.Reference `json:"references"`
}

// Service coordinates storage and index operations.
type Service struct {
	store    storage.Provider
	db       index.CitationIndex
	guard    *pathguard.Validator
	renderer *preview.Renderer
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a new note service. notifier may be nil.
func NewService(store storage.Provider, db index.CitationIndex, guard *pathguard.Validator, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		db:       db,
		guard:    guard,
		renderer: preview.New(),
		notifier: notifier,
		logger:   logger,
	}
}

// Append validates rawPath and appends content to it.
//
// A validation failure is returned as *pathguard.Rejection. Any other error
// is an I/O failure. Reindexing after a successful append is best-effort.
func (s *Service) Append(_ context.Context, rawPath any, content string) (*models.AppendResult, error) {
	target, err := s.guard.Validate(rawPath)
	if err != nil {
		return nil, err
	}

	n, err := s.store.Append(target.NormalizedPath, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("noteservice: append %s: %w", target.NormalizedPath, err)
	}
	s.logger.Info("note appended",
		slog.String("path", target.NormalizedPath),
		slog.Int("bytes", n))

	if strings.HasSuffix(target.NormalizedPath, ".md") {
		if err := s.reindex(target.NormalizedPath); err != nil {
			s.logger.Warn("reindex after append failed",
				slog.String("path", target.NormalizedPath),
				slog.String("error", err.Error()))
		}
	}
	if s.notifier != nil {
		s.notifier.PublishNoteEvent(KindAppended, target.NormalizedPath)
	}

	return &models.AppendResult{Path: target.NormalizedPath, AppendedBytes: n}, nil
}

// Read returns the raw content of any note under the vault root along with
// its normalized path. The allowlist does not apply to reads.
func (s *Service) Read(_ context.Context, rawPath any) (string, []byte, error) {
	target, err := s.guard.Resolve(rawPath)
	if err != nil {
		return "", nil, err
	}
	data, err := s.store.Read(target.NormalizedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, apperr.ErrNotFound
		}
		return "", nil, err
	}
	return target.NormalizedPath, data, nil
}

// Preview renders any note under the vault root.
func (s *Service) Preview(ctx context.Context, rawPath any) (*NotePreview, error) {
	path, data, err := s.Read(ctx, rawPath)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Render([]byte(res.Body))
	if err != nil {
		return nil, err
	}
	return &NotePreview{
		Path:       path,
		Title:      res.Title,
		HTML:       html,
		References: res.References,
	}, nil
}

// Citations returns the notes citing target. target is a path, or
// path#section to narrow the result to one section.
func (s *Service) Citations(_ context.Context, target string) ([]models.Citation, error) {
	path, section, narrowed := strings.Cut(strings.TrimSpace(target), "#")
	cites, err := s.db.Citations(path)
	if err != nil {
		return nil, err
	}
	if !narrowed {
		return cites, nil
	}
	out := []models.Citation{}
	for _, c := range cites {
		if c.Section != nil && *c.Section == section {
			out = append(out, c)
		}
	}
	return out, nil
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data)
}

func (s *Service) reindex(path string) error {
	data, err := s.store.Read(path)
	if err != nil {
		return err
	}
	return s.IndexFile(path, data)
}
