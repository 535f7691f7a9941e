// Package sanitize provides shared identifier sanitization for storage keys.
//
// Collection names and document IDs are derived from user-supplied strings
// (email addresses, topics, URLs) and must match: ^[A-Za-z0-9_]+$
// This package ensures all derived key fragments conform to that requirement.
package sanitize

import "strings"

const (
	// DefaultIdentifier is used when sanitization produces an empty result.
	DefaultIdentifier = "default_table"

	// MaxTopicFragmentLength bounds the topic component of flashcard
	// document IDs.
	MaxTopicFragmentLength = 50
)

// Identifier sanitizes a string for use in collection and table names.
//
// Rules applied:
//   - Replaces separator punctuation (. @ : - /) with underscores
//   - Drops any remaining character outside [A-Za-z0-9_]
//   - Trims leading/trailing underscores
//   - Returns DefaultIdentifier if the result would be empty
//
// The function is pure, total, and idempotent. Distinct raw IDs that
// sanitize identically collide on the same collection; that is an accepted
// limitation for the small alphabet expected here.
//
// Examples:
//
//	"alice@example.com" -> "alice_example_com"
//	"Cell Biology"      -> "CellBiology"
//	"" or "!!!"         -> "default_table"
func Identifier(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '.' || r == '@' || r == ':' || r == '-' || r == '/':
			result.WriteByte('_')
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			result.WriteRune(r)
		}
	}

	sanitized := strings.Trim(result.String(), "_")
	if sanitized == "" {
		return DefaultIdentifier
	}
	return sanitized
}

// TopicFragment sanitizes a topic string for embedding in a document ID.
//
// Unlike Identifier, every disallowed character maps to an underscore (the
// fragment keeps positional structure for readability), the result is
// lowercased, and it is truncated to MaxTopicFragmentLength. The output is
// pure ASCII so byte truncation never splits a rune.
func TopicFragment(topic string) string {
	lower := strings.ToLower(topic)

	var result strings.Builder
	result.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteByte('_')
		}
	}

	fragment := result.String()
	if len(fragment) > MaxTopicFragmentLength {
		fragment = fragment[:MaxTopicFragmentLength]
	}
	return fragment
}
