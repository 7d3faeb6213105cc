// Package security guards file access requested over HTTP or derived from
// user input.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when a path resolves outside its base directory.
var ErrPathEscapes = errors.New("path escapes base directory")

// ResolveWithinDirectory joins name onto baseDir and returns the canonical
// result, failing if it resolves outside baseDir. Symlinks are followed
// on both sides; for a path that does not exist yet, its nearest existing
// ancestor is resolved instead, so a link in a parent directory cannot be
// used to escape.
func ResolveWithinDirectory(baseDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathEscapes, name)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	canonicalBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory symlinks: %w", err)
	}

	canonical := canonicalize(filepath.Join(absBase, name))
	rel, err := filepath.Rel(canonicalBase, canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathEscapes, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is outside %s", ErrPathEscapes, name, baseDir)
	}
	return canonical, nil
}

// canonicalize resolves symlinks in the longest existing prefix of an
// absolute path and re-appends the rest.
func canonicalize(abs string) string {
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest)
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs
		}
	}
}

// SanitizeFilename reduces s to ASCII letters, digits, '.', '_' and '-',
// collapsing every other run of characters to one underscore. The result is
// at most 128 bytes and never empty.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	underscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			r == '.' || r == '_' || r == '-'
		switch {
		case ok:
			b.WriteRune(r)
			underscore = false
		case !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	if out := strings.Trim(b.String(), "._"); out != "" {
		return out
	}
	return "unknown"
}
