package errors

import (
	"strings"
	"unicode"
)

// maxRequestLength bounds entry requests and import specifiers.
const maxRequestLength = 1024

// ValidateRequest validates an entry request before it is handed to a resolver.
//
// The validation rules are intentionally conservative:
//   - No empty requests
//   - No control characters or null bytes
//   - Maximum length of 1024 characters
//
// Relative, absolute and bare specifiers are all accepted; whether they
// resolve is the resolver's decision.
func ValidateRequest(request string) error {
	if strings.TrimSpace(request) == "" {
		return New(ErrCodeInvalidInput, "request cannot be empty")
	}

	if len(request) > maxRequestLength {
		return New(ErrCodeInvalidInput, "request too long (max %d characters)", maxRequestLength)
	}

	for _, r := range request {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "request %q contains invalid control characters", request)
		}
	}

	return nil
}

// ValidateContext validates the directory that entry requests are resolved
// against.
//
// Validation rules:
//   - Path cannot be empty
//   - Must be absolute (start with /)
//   - No null bytes or control characters
//   - No backslashes (Windows-style paths)
func ValidateContext(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "context path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "context path contains invalid characters")
		}
	}

	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "context path must be absolute: %q", path)
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "context path cannot contain backslashes")
	}

	return nil
}

// ValidateEntries validates every entry request and rejects an empty set.
func ValidateEntries(entries []string) error {
	if len(entries) == 0 {
		return New(ErrCodeInvalidInput, "at least one entry is required")
	}
	for _, e := range entries {
		if err := ValidateRequest(e); err != nil {
			return err
		}
	}
	return nil
}
