// Package parser extracts frontmatter, a title and SOPRef citations from
// Markdown notes.
package parser

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/sopgate/internal/sopref"
)

const fence = "---"

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	References  []sopref.Reference
}

// Parse splits frontmatter from the body and collects citations. Citations
// inside frontmatter are ignored.
func Parse(data []byte) (*Result, error) {
	text := string(data)
	fm, body, ok := cutFrontmatter(text)
	if !ok {
		fm, body = nil, text
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		References:  sopref.Parse(body),
	}, nil
}

// cutFrontmatter splits a leading YAML block fenced by "---" lines. It
// reports false when the fence is unterminated or the YAML does not decode,
// in which case the whole note is body.
func cutFrontmatter(text string) (map[string]any, string, bool) {
	first, rest, _ := strings.Cut(strings.TrimLeft(text, "\r\n"), "\n")
	if strings.TrimRight(first, "\r") != fence {
		return nil, "", false
	}

	var block strings.Builder
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if strings.TrimRight(line, "\r") != fence {
			block.WriteString(line)
			block.WriteByte('\n')
			continue
		}
		var fm map[string]any
		if err := yaml.Unmarshal([]byte(block.String()), &fm); err != nil {
			return nil, "", false
		}
		return fm, strings.TrimLeft(rest, "\r\n"), true
	}
	return nil, "", false
}

// deriveTitle prefers the frontmatter title, then the first H1.
func deriveTitle(fm map[string]any, body string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	for line := range strings.Lines(body) {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	return ""
}
