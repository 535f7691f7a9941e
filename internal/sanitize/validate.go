package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors for storage key checks.
var (
	// ErrInvalidCollectionName indicates a collection name fails the
	// storage-safe format check.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrInvalidUserID indicates the user ID is empty or contains path
	// characters.
	ErrInvalidUserID = errors.New("invalid user ID")
)

// collectionNamePattern matches valid collection names: alphanumeric with
// underscores, 1-128 chars. Names longer than typical index limits are
// rejected before reaching the backend.
var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,128}$`)

// ValidateCollectionName checks that a name is safe to use as a collection
// name and as a directory component under the store base path.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must be alphanumeric with underscores (1-128 chars)", ErrInvalidCollectionName, name)
	}
	return nil
}

// ValidateUserID checks a raw user ID before sanitization. Raw IDs may carry
// arbitrary punctuation (email addresses), but path traversal sequences are
// rejected outright rather than silently sanitized away.
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, "\\\x00") {
		return fmt.Errorf("%w: contains path characters", ErrInvalidUserID)
	}
	return nil
}
