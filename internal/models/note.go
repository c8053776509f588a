// Package models defines the domain types shared across packages.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Citation is one SOPRef occurrence found in an indexed note.
type Citation struct {
	Source   string  `json:"source"`   // note containing the citation
	Position int     `json:"position"` // zero-based order within the source
	Target   string  `json:"target"`   // cited path
	Section  *string `json:"section,omitempty"`
	Raw      string  `json:"raw"`
}

// AppendResult reports a successful append.
type AppendResult struct {
	Path          string `json:"path"`
	AppendedBytes int    `json:"appended_bytes"`
}
