// Package testutil provides shared test helpers for vaults and the citation index.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sopgate/internal/index"
	"github.com/starford/sopgate/internal/storage"
)

// TestDB opens a citation index in a per-test directory.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "sopgate-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates an empty vault and the FS store over it.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote writes a vault-relative note, creating parent folders.
func WriteNote(t *testing.T, vaultDir, rel, content string) string {
	t.Helper()
	full := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return full
}
