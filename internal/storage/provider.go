// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/sopgate/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Append adds content to the end of path, creating the file and its
	// parent directories as needed. It returns the number of bytes written.
	Append(path string, content []byte) (int, error)
}
