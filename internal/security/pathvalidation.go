// Package security guards the files written by the command line tools.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// canonical resolves symlinks in p. For a path that does not exist yet the
// nearest existing ancestor is resolved instead and the rest re-attached,
// so a new file under a symlinked directory is judged by its real location.
func canonical(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, p)
			return filepath.Join(resolved, rel)
		}
		if filepath.Dir(dir) == dir {
			return p
		}
	}
}

// ValidateOutputPath reports an error unless filePath resolves to a
// location inside outDir. outDir must exist.
func ValidateOutputPath(filePath, outDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	dir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(dir, canonical(absPath))
	if err != nil {
		return fmt.Errorf("path is outside output directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, outDir)
	}
	return nil
}

// SanitizeFilename keeps ASCII letters, digits, dot, underscore and dash,
// collapses every other run of characters into one underscore and caps the
// result at 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
