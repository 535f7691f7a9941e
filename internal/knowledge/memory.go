package knowledge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vaibhavp4/kompow/internal/sanitize"
)

// MemCollection is an in-memory Collection implementation.
//
// It is selected at composition time in place of the chromem-backed
// collection for tests and offline tooling. Search returns documents in
// insertion order, standing in for backend relevance order, optionally
// truncated to SearchWindow to model candidates ranking outside a semantic
// search window.
type MemCollection struct {
	// SearchWindow caps how many candidates Search can see regardless of
	// the requested limit. Zero means unlimited.
	SearchWindow int

	name     string
	userID   string
	degraded bool

	mu    sync.Mutex
	order []string
	docs  map[string]Document
}

var _ Collection = (*MemCollection)(nil)

// NewMemCollection creates an in-memory collection for userID. A degraded
// collection mirrors the production degraded mode: best-effort writes are
// accepted (this backend tolerates vectorless content) but search always
// returns empty.
func NewMemCollection(userID string, degraded bool) *MemCollection {
	return &MemCollection{
		name:     collectionPrefix + sanitize.Identifier(userID),
		userID:   userID,
		degraded: degraded,
		docs:     make(map[string]Document),
	}
}

func (c *MemCollection) Name() string { return c.name }

func (c *MemCollection) Degraded() bool { return c.degraded }

func (c *MemCollection) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *MemCollection) Add(ctx context.Context, doc Document) error {
	if c.degraded {
		return fmt.Errorf("adding to %s: %w", c.name, ErrNoEmbedder)
	}
	return c.AddBestEffort(ctx, doc)
}

func (c *MemCollection) AddBestEffort(_ context.Context, doc Document) error {
	if doc.ID == "" {
		doc.ID = ContentID(doc.Content)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[doc.ID]; !exists {
		c.order = append(c.order, doc.ID)
	}
	c.docs[doc.ID] = doc
	return nil
}

func (c *MemCollection) AddText(ctx context.Context, content, source string) (string, error) {
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

func (c *MemCollection) Search(_ context.Context, _ string, limit int) []Document {
	if c.degraded || limit <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	window := len(c.order)
	if c.SearchWindow > 0 && c.SearchWindow < window {
		window = c.SearchWindow
	}
	if limit > window {
		limit = window
	}

	out := make([]Document, 0, limit)
	for _, id := range c.order[:window] {
		if len(out) == limit {
			break
		}
		out = append(out, c.docs[id])
	}
	return out
}
