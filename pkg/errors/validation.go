package errors

import (
	"strings"
	"unicode"
)

// ValidateLabel validates a note label for safety and correctness.
// Labels are vault-relative paths without extension, so the rules reject
// anything that could escape the vault root.
//
// The validation rules are intentionally conservative:
//   - No empty labels
//   - No control characters or null bytes
//   - No path traversal sequences (.., //)
//   - No absolute paths or backslashes
//   - Maximum length of 256 characters
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidLabel, "note label cannot be empty")
	}

	if len(label) > 256 {
		return New(ErrCodeInvalidLabel, "note label too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLabel, "note label contains invalid control characters")
		}
	}

	if strings.HasPrefix(label, "/") {
		return New(ErrCodeInvalidLabel, "note label must be vault-relative (cannot start with /)")
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(label, pattern) {
			return New(ErrCodeInvalidLabel, "note label contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// exportFormats are the supported export output formats.
var exportFormats = map[string]struct{}{
	"dot": {},
	"svg": {},
	"png": {},
}

// ValidateExportFormat validates an export format name.
func ValidateExportFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "export format cannot be empty")
	}
	if _, ok := exportFormats[strings.ToLower(format)]; !ok {
		return New(ErrCodeInvalidFormat, "unsupported export format: %q (supported: dot, svg, png)", format)
	}
	return nil
}
