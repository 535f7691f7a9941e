package knowledge

import "context"

// Document represents a document stored in a user collection.
//
// Identity is the ID; Content is the unit of embedding and search; Metadata
// carries structured tags. Documents are immutable after creation: there is
// no update operation, and re-adding with the same ID upserts in the backend.
type Document struct {
	// ID is the unique identifier for the document within its collection.
	ID string

	// Content is the text content of the document.
	Content string

	// Metadata contains additional key-value tags for post-filtering.
	// Common fields: doc_type, topic, creation_date, source, user_id.
	Metadata map[string]string
}

// Embedder generates vector embeddings from text.
//
// Its absence on a collection puts the collection in degraded mode.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Collection is a user-scoped document store handle.
//
// Implementations: userCollection (chromem-go backed, production) and
// MemCollection (in-memory, selected at composition time for tests).
type Collection interface {
	// Name returns the sanitized collection name (user_<sanitized-id>).
	Name() string

	// Degraded reports whether the collection lacks an embedding
	// capability. Callers must check this before relying on search.
	Degraded() bool

	// Add stores a document. It fails with ErrNoEmbedder on degraded
	// collections: the backing index requires a vector for every document
	// once an embedder was configured, so the write precondition is hard.
	// An empty doc.ID is replaced by a content-derived identifier, making
	// re-adds of identical content an upsert.
	Add(ctx context.Context, doc Document) error

	// AddBestEffort stores a document without the embedder precondition,
	// letting the backend accept or reject the write. On a degraded
	// collection the write may fail at embedding time; the stored document
	// is never retrievable through Search either way.
	AddBestEffort(ctx context.Context, doc Document) error

	// AddText ingests raw text content with a content-derived document ID
	// and source tagging. Empty content is rejected. Returns the document
	// ID used.
	AddText(ctx context.Context, content, source string) (string, error)

	// Search performs semantic search and returns up to limit documents.
	// It fails closed: degraded collections and backend query failures
	// both yield an empty slice, never an error. An empty or "*" query
	// requests broad recall (a diverse sample) rather than topical
	// matches.
	Search(ctx context.Context, query string, limit int) []Document

	// Count returns the number of documents in the collection.
	Count() int
}
