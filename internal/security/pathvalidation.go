// Package security guards the file names the viewer generates from caller
// supplied cloud and session names.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateWithinDirectory checks lexically that filePath stays inside dir
// once both are cleaned. It does not touch the filesystem, so it works the
// same for the in-memory filesystem used in tests.
func ValidateWithinDirectory(filePath, dir string) error {
	cleanDir := filepath.Clean(dir)
	cleanPath := filepath.Clean(filePath)
	if !filepath.IsAbs(cleanPath) && filepath.IsAbs(cleanDir) {
		cleanPath = filepath.Join(cleanDir, cleanPath)
	}

	rel, err := filepath.Rel(cleanDir, cleanPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}

// SanitizeFilename makes a safe file name component from an arbitrary
// string. Anything but ASCII letters, digits, dot, underscore or dash
// becomes a single underscore, leading and trailing dots and underscores
// are trimmed, and the result is capped at 128 bytes.
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
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
