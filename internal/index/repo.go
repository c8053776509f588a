package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sopgate/internal/models"
	"github.com/starford/sopgate/internal/sopref"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// UpsertNote replaces a note row and all of its outgoing citations in one
// transaction.
func (db *DB) UpsertNote(n NoteRow, refs []sopref.Reference) error {
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM citations WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear citations: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO citations (source, position, target, section, raw) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare citation insert: %w", err)
		}
		defer stmt.Close()
		for i, ref := range refs {
			var section sql.NullString
			if s, ok := ref.SectionName(); ok {
				section = sql.NullString{String: s, Valid: true}
			}
			if _, err := stmt.Exec(n.Path, i, ref.Path, section, ref.Raw); err != nil {
				return fmt.Errorf("index: insert citation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its outgoing citations.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM citations WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete citations: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Citations returns every citation of target, ordered by source note.
func (db *DB) Citations(target string) ([]models.Citation, error) {
	return db.queryCitations(`
		SELECT source, position, target, section, raw
		FROM citations WHERE target = ?
		ORDER BY source, position
	`, target)
}

// References returns the citations made by source, in document order.
func (db *DB) References(source string) ([]models.Citation, error) {
	return db.queryCitations(`
		SELECT source, position, target, section, raw
		FROM citations WHERE source = ?
		ORDER BY position
	`, source)
}

func (db *DB) queryCitations(query string, arg string) ([]models.Citation, error) {
	rows, err := db.conn.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("index: citations: %w", err)
	}
	defer rows.Close()

	out := []models.Citation{}
	for rows.Next() {
		var c models.Citation
		var section sql.NullString
		if err := rows.Scan(&c.Source, &c.Position, &c.Target, &section, &c.Raw); err != nil {
			return nil, err
		}
		if section.Valid {
			s := section.String
			c.Section = &s
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
