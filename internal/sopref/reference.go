// Package sopref parses, renders and navigates SOPRef citations.
//
// A citation is written inline as SOPRef[path] or SOPRef[path#section], where
// path and section are drawn from letters, digits, '-', '_', '/' and '.'.
package sopref

import (
	"iter"
	"regexp"
	"strings"
)

// Prefix opens every citation.
const Prefix = "SOPRef["

// The interior may not start with '#', so a matched reference always has a
// non-empty path.
var (
	refRe     = regexp.MustCompile(`SOPRef\[([A-Za-z0-9_\-/.][A-Za-z0-9_\-/.#]*)\]`)
	leadingRe = regexp.MustCompile(`^SOPRef\[([A-Za-z0-9_\-/.][A-Za-z0-9_\-/.#]*)\]`)
)

// Reference is one recognised citation occurrence.
type Reference struct {
	Raw     string  `json:"raw"`
	Path    string  `json:"path"`
	Section *string `json:"section,omitempty"`
}

// HasSection reports whether the citation carried a '#'.
func (r Reference) HasSection() bool {
	return r.Section != nil
}

// SectionName returns the section and whether one was present.
func (r Reference) SectionName() (string, bool) {
	if r.Section == nil {
		return "", false
	}
	return *r.Section, true
}

// DisplayText returns the last non-empty path segment, or the whole path.
func (r Reference) DisplayText() string {
	parts := strings.Split(r.Path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return r.Path
}

// Target returns the bracket interior: path plus "#section" when present.
func (r Reference) Target() string {
	if r.Section == nil {
		return r.Path
	}
	return r.Path + "#" + *r.Section
}

// All yields the references in content from left to right.
func All(content string) iter.Seq[Reference] {
	return func(yield func(Reference) bool) {
		if !strings.Contains(content, Prefix) {
			return
		}
		// Matches are never empty, so offset always advances.
		for offset := 0; offset < len(content); {
			m := refRe.FindStringSubmatchIndex(content[offset:])
			if m == nil {
				return
			}
			raw := content[offset+m[0] : offset+m[1]]
			interior := content[offset+m[2] : offset+m[3]]
			if !yield(newReference(raw, interior)) {
				return
			}
			offset += m[1]
		}
	}
}

// Parse collects All(content). The result is empty, never nil, when content
// has no citations.
func Parse(content string) []Reference {
	out := []Reference{}
	for ref := range All(content) {
		out = append(out, ref)
	}
	return out
}

// Leading returns the citation that starts s, if any.
func Leading(s string) (Reference, bool) {
	if !strings.HasPrefix(s, Prefix) {
		return Reference{}, false
	}
	m := leadingRe.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, false
	}
	return newReference(m[0], m[1]), true
}

func newReference(raw, interior string) Reference {
	path, section, found := strings.Cut(interior, "#")
	ref := Reference{Raw: raw, Path: path}
	if found {
		ref.Section = &section
	}
	return ref
}
