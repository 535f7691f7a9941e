// Package flashcards encodes flashcard-set semantics over the generic
// knowledge store.
//
// A flashcard set is a document by convention: content is a JSON array of
// question/answer objects, metadata tags it with doc_type, topic, creation
// date, source, and owner. Retrieval is metadata filtering simulated through
// semantic search: the store exposes no metadata-only queries, so the
// repository overfetches semantic candidates and post-filters locally. A set
// that ranks outside the overfetch window is invisible to retrieval; that
// approximation is a documented contract risk, not a bug to fix here.
package flashcards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/knowledge"
	"github.com/vaibhavp4/kompow/internal/sanitize"
)

// DocType tags flashcard-set documents in metadata.
const DocType = "flashcard_set"

const (
	// overfetchMultiplier inflates the semantic search limit to compensate
	// for the loose coupling between query relevance and the exact
	// metadata filter applied afterwards.
	overfetchMultiplier = 10

	// listTopicsLimit is the effectively-all limit used for topic listing.
	listTopicsLimit = 1000

	// DefaultRetrieveLimit is the retrieval limit when callers pass <= 0.
	DefaultRetrieveLimit = 20
)

// ErrInvalidPayload indicates a flashcards payload that is not a JSON array.
var ErrInvalidPayload = errors.New("flashcards payload must be a JSON array")

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// Repository is a typed layer over the knowledge store for flashcard sets.
type Repository struct {
	logger *zap.Logger
}

// NewRepository creates a flashcard repository. A nil logger is replaced
// with a no-op logger.
func NewRepository(logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{logger: logger}
}

// StoreSet validates and stores one flashcard set for userID under topic.
//
// The payload must be a JSON array; anything else fails with
// ErrInvalidPayload before any storage is attempted. The document ID embeds
// the sanitized user, the truncated topic fragment, and a millisecond
// timestamp, which keeps rapid successive stores for the same user and topic
// unique.
//
// The write is best-effort with respect to degraded collections: the backend
// decides whether a vectorless document is acceptable, and a set stored on a
// degraded collection is never retrievable through RetrieveSets. That
// asymmetry is intentional.
func (r *Repository) StoreSet(ctx context.Context, col knowledge.Collection, userID, topic string, payload []byte, source string) error {
	var cards []any
	if err := json.Unmarshal(payload, &cards); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	now := timeNow().UTC()
	docID := fmt.Sprintf("flashcards_%s_%s_%d",
		sanitize.Identifier(userID),
		sanitize.TopicFragment(topic),
		now.UnixMilli(),
	)

	doc := knowledge.Document{
		ID:      docID,
		Content: string(payload),
		Metadata: map[string]string{
			"doc_type":      DocType,
			"topic":         topic,
			"creation_date": now.Format(time.RFC3339),
			"source":        source,
			"user_id":       userID,
		},
	}

	if err := col.AddBestEffort(ctx, doc); err != nil {
		return fmt.Errorf("storing flashcard set %s: %w", docID, err)
	}

	r.logger.Info("stored flashcard set",
		zap.String("id", docID),
		zap.String("topic", topic),
		zap.Int("cards", len(cards)),
	)
	return nil
}

// RetrieveSets returns up to limit stored sets for userID, newest first,
// optionally filtered to one topic (empty topic means all topics).
//
// Degraded collections yield an empty result, never an error. The semantic
// query loosely encodes the owner and topic; exactness comes from the local
// metadata filter over the overfetched candidates.
func (r *Repository) RetrieveSets(ctx context.Context, col knowledge.Collection, userID, topic string, limit int) []Set {
	if col.Degraded() {
		return nil
	}
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	query := fmt.Sprintf("flashcard sets related to user %s", userID)
	if topic != "" {
		query = fmt.Sprintf("flashcards by %s about %s", userID, topic)
	}

	candidates := col.Search(ctx, query, limit*overfetchMultiplier)

	var sets []Set
	for _, doc := range candidates {
		meta := doc.Metadata
		if meta["doc_type"] != DocType || meta["user_id"] != userID {
			continue
		}
		if topic != "" && meta["topic"] != topic {
			continue
		}

		cards, ok := r.decodeCards(doc.ID, doc.Content)
		if !ok {
			continue
		}

		sets = append(sets, Set{
			DocumentID:   doc.ID,
			UserID:       userID,
			Topic:        meta["topic"],
			CreationDate: meta["creation_date"],
			Source:       meta["source"],
			Cards:        cards,
		})
	}

	// Newest first; ties keep backend order (no secondary key is defined).
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].CreationDate > sets[j].CreationDate
	})

	if len(sets) > limit {
		sets = sets[:limit]
	}
	return sets
}

// ListTopics returns the distinct non-empty topics of the user's stored
// sets, sorted lexicographically. It inherits the approximate-retrieval risk
// of RetrieveSets.
func (r *Repository) ListTopics(ctx context.Context, col knowledge.Collection, userID string) []string {
	sets := r.RetrieveSets(ctx, col, userID, "", listTopicsLimit)

	seen := make(map[string]struct{})
	var topics []string
	for _, s := range sets {
		if s.Topic == "" {
			continue
		}
		if _, dup := seen[s.Topic]; dup {
			continue
		}
		seen[s.Topic] = struct{}{}
		topics = append(topics, s.Topic)
	}

	sort.Strings(topics)
	return topics
}

// decodeCards decodes a stored content payload, dropping elements that lack
// a question or answer. A payload that is not a JSON array at all marks the
// document as corrupt and skips it.
func (r *Repository) decodeCards(docID, content string) ([]Card, bool) {
	var cards []Card
	if err := json.Unmarshal([]byte(content), &cards); err != nil {
		r.logger.Warn("skipping flashcard set with undecodable content",
			zap.String("id", docID),
			zap.Error(err),
		)
		return nil, false
	}

	valid := cards[:0]
	dropped := 0
	for _, c := range cards {
		if c.Question == "" || c.Answer == "" {
			dropped++
			continue
		}
		valid = append(valid, c)
	}
	if dropped > 0 {
		r.logger.Warn("dropped cards missing question or answer",
			zap.String("id", docID),
			zap.Int("dropped", dropped),
		)
	}
	return valid, true
}
