package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("kompow.knowledge")

// broadRecallProbe substitutes for an empty query string. The backing index
// rejects empty query text, so broad recall ("give me a diverse sample") is
// expressed as a fixed generic probe instead.
const broadRecallProbe = "notes documents knowledge topics content"

// userCollection is the chromem-go backed Collection implementation.
type userCollection struct {
	name     string
	userID   string
	embedder Embedder
	backing  *chromem.Collection
	logger   *zap.Logger
}

var _ Collection = (*userCollection)(nil)

// embeddingFunc adapts the Embedder to chromem's callback. On degraded
// collections the callback reports the missing capability, so the backend
// decides the fate of best-effort writes.
func (c *userCollection) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if c.embedder == nil {
			return nil, ErrNoEmbedder
		}
		return c.embedder.EmbedQuery(ctx, text)
	}
}

func (c *userCollection) Name() string { return c.name }

func (c *userCollection) Degraded() bool { return c.embedder == nil }

func (c *userCollection) Count() int { return c.backing.Count() }

// Add stores one document, enforcing the embedder precondition.
func (c *userCollection) Add(ctx context.Context, doc Document) error {
	if c.Degraded() {
		DocumentsAdded.WithLabelValues("no_embedder").Inc()
		return fmt.Errorf("adding to %s: %w", c.name, ErrNoEmbedder)
	}
	return c.put(ctx, doc)
}

// AddBestEffort stores one document without the embedder precondition.
func (c *userCollection) AddBestEffort(ctx context.Context, doc Document) error {
	if c.Degraded() {
		c.logger.Warn("best-effort add on degraded collection; document will not be retrievable through search",
			zap.String("id", doc.ID),
		)
	}
	return c.put(ctx, doc)
}

func (c *userCollection) put(ctx context.Context, doc Document) error {
	ctx, span := tracer.Start(ctx, "Collection.Add")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", doc.ID),
	)

	if doc.ID == "" {
		doc.ID = ContentID(doc.Content)
	}

	err := c.backing.AddDocument(ctx, chromem.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		DocumentsAdded.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: adding document %s to %s: %v", ErrStoreFailed, doc.ID, c.name, err)
	}

	span.SetStatus(codes.Ok, "success")
	DocumentsAdded.WithLabelValues("success").Inc()

	c.logger.Debug("added document",
		zap.String("id", doc.ID),
		zap.Int("content_bytes", len(doc.Content)),
	)
	return nil
}

// AddText ingests raw text with a content-derived ID, so re-ingesting the
// same content upserts instead of duplicating.
func (c *userCollection) AddText(ctx context.Context, content, source string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}

	doc := Document{
		ID:      ContentID(content),
		Content: content,
		Metadata: map[string]string{
			"source":      source,
			"user_id":     c.userID,
			"ingested_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := c.Add(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Search performs semantic search, failing closed on any obstacle.
func (c *userCollection) Search(ctx context.Context, query string, limit int) []Document {
	ctx, span := tracer.Start(ctx, "Collection.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.Int("limit", limit),
	)

	if c.Degraded() {
		SearchesTotal.WithLabelValues("degraded").Inc()
		span.SetStatus(codes.Ok, "degraded")
		return nil
	}
	if limit <= 0 {
		return nil
	}

	if query == "" || query == "*" {
		query = broadRecallProbe
	}

	// chromem requires nResults <= document count.
	count := c.backing.Count()
	if count == 0 {
		SearchesTotal.WithLabelValues("empty").Inc()
		return nil
	}
	if limit > count {
		limit = count
	}

	results, err := c.backing.Query(ctx, query, limit, nil, nil)
	if err != nil {
		// Search failures are non-fatal and local: callers see an empty
		// result set, not an error.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		SearchesTotal.WithLabelValues("error").Inc()
		c.logger.Warn("search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
		}
	}

	span.SetAttributes(attribute.Int("results", len(docs)))
	span.SetStatus(codes.Ok, "success")
	SearchesTotal.WithLabelValues("success").Inc()
	return docs
}

// ContentID derives a stable document identifier from content.
func ContentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "doc_" + hex.EncodeToString(sum[:])[:16]
}
