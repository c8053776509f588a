package index

import (
	"github.com/starford/sopgate/internal/models"
	"github.com/starford/sopgate/internal/sopref"
)

// CitationIndex defines the citation indexing operations.
// Consumers depend on this interface rather than on *DB.
type CitationIndex interface {
	UpsertNote(n NoteRow, refs []sopref.Reference) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Citations(target string) ([]models.Citation, error)
	References(source string) ([]models.Citation, error)
	Close() error
}

// Verify *DB satisfies CitationIndex at compile time.
var _ CitationIndex = (*DB)(nil)
