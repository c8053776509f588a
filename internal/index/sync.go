package index

import (
	"log/slog"
	"time"

	"github.com/starford/sopgate/internal/parser"
	"github.com/starford/sopgate/internal/storage"
)

// SyncStats counts what a Sync pass did.
type SyncStats struct {
	Indexed   int
	Unchanged int
	Removed   int
	Failed    int
}

// Sync reconciles the index with the vault on disk. Notes whose checksum
// is unchanged are skipped; rows without a file are dropped. Per-file
// failures are logged and counted, never returned.
func Sync(db CitationIndex, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}
	known, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	for _, m := range metas {
		prev, seen := known[m.Path]
		delete(known, m.Path)
		if seen && prev == m.Checksum {
			stats.Unchanged++
			continue
		}
		if err := reindex(db, store, m.Path); err != nil {
			stats.Failed++
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
	}

	// Whatever is left in known has no file behind it.
	for path := range known {
		if err := db.DeleteNote(path); err != nil {
			stats.Failed++
			logger.Warn("sync: delete failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
	}

	logger.Info("index synced",
		slog.Int("indexed", stats.Indexed),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("removed", stats.Removed),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

func reindex(db CitationIndex, store storage.Provider, path string) error {
	data, err := store.Read(path)
	if err != nil {
		return err
	}
	return IndexFile(db, path, data)
}

// IndexFile parses data and upserts the note and its citations.
func IndexFile(db CitationIndex, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  storage.Checksum(data),
		UpdatedAt: time.Now(),
	}, res.References)
}
