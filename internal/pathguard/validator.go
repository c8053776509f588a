// Package pathguard decides whether a client-supplied relative path may be
// written under the vault root.
package pathguard

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Rejection is a failed validation. Status is an HTTP status code.
type Rejection struct {
	Status int
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

// Target is a validated write destination.
type Target struct {
	// NormalizedPath is the relative path with forward slashes.
	NormalizedPath string
	// AbsPath is the resolved absolute path, strictly under the vault root.
	AbsPath string
}

// Validator checks paths against a fixed vault root and allowlist.
type Validator struct {
	root      string
	allowlist []string
}

// New returns a Validator. root is made absolute and cleaned.
func New(root string, allowlist []string) (*Validator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pathguard: resolve root: %w", err)
	}
	return &Validator{
		root:      filepath.Clean(abs),
		allowlist: append([]string(nil), allowlist...),
	}, nil
}

// Root returns the absolute vault root.
func (v *Validator) Root() string {
	return v.root
}

// Allowlist returns a copy of the allowlisted prefixes.
func (v *Validator) Allowlist() []string {
	return append([]string(nil), v.allowlist...)
}

// Validate runs every check, including the allowlist.
func (v *Validator) Validate(raw any) (Target, error) {
	return v.check(raw, true)
}

// Resolve runs every check except the allowlist. It is used for read-only
// access to arbitrary vault notes.
func (v *Validator) Resolve(raw any) (Target, error) {
	return v.check(raw, false)
}

func (v *Validator) check(raw any, allowlisted bool) (Target, error) {
	s, ok := raw.(string)
	if !ok {
		return Target{}, reject(http.StatusBadRequest, "path must be a string")
	}
	p := strings.TrimSpace(s)
	if p == "" {
		return Target{}, reject(http.StatusBadRequest, "path is required")
	}
	if strings.Contains(p, "..") {
		return Target{}, reject(http.StatusBadRequest, "path must not contain '..'")
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return Target{}, reject(http.StatusBadRequest, "path must be relative")
	}
	if hasDriveLetter(p) {
		return Target{}, reject(http.StatusBadRequest, "drive-letter paths are not allowed")
	}

	normalized := strings.ReplaceAll(p, `\`, "/")
	if allowlisted && !v.allowed(normalized) {
		return Target{}, reject(http.StatusForbidden, "path must start with one of: "+strings.Join(v.allowlist, ", "))
	}

	abs := filepath.Join(v.root, filepath.FromSlash(normalized))
	if abs == v.root || !strings.HasPrefix(abs, v.rootPrefix()) {
		return Target{}, reject(http.StatusForbidden, "path escapes vault root")
	}

	return Target{NormalizedPath: normalized, AbsPath: abs}, nil
}

func (v *Validator) rootPrefix() string {
	if strings.HasSuffix(v.root, string(os.PathSeparator)) {
		return v.root
	}
	return v.root + string(os.PathSeparator)
}

func (v *Validator) allowed(p string) bool {
	for _, prefix := range v.allowlist {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func reject(status int, reason string) *Rejection {
	return &Rejection{Status: status, Reason: reason}
}
