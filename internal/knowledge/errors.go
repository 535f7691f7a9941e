package knowledge

import "errors"

// Sentinel errors for document store operations.
var (
	// ErrUnavailable indicates the backing index for a collection could
	// not be constructed (storage I/O error, invalid path). Distinct from
	// degraded mode, which is not an error.
	ErrUnavailable = errors.New("knowledge store unavailable")

	// ErrNoEmbedder is returned by precondition-checked writes on a
	// collection opened without an embedding capability.
	ErrNoEmbedder = errors.New("collection has no embedder")

	// ErrStoreFailed indicates the backend rejected an add operation
	// (rate limiting, I/O, schema).
	ErrStoreFailed = errors.New("backend store operation failed")

	// ErrEmptyContent indicates an ingestion attempt with empty content.
	ErrEmptyContent = errors.New("document content is empty")
)
