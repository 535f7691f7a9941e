package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/sanitize"
)

// collectionPrefix namespaces user collections in the backing store.
const collectionPrefix = "user_"

// Config holds configuration for the document store.
type Config struct {
	// Path is the base directory for persistent storage. One directory is
	// created per sanitized user identifier underneath it.
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "data/knowledge"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: store path is required", ErrUnavailable)
	}
	return nil
}

// Store owns the lifecycle of one semantic-search collection per user and
// mediates all reads and writes through it.
//
// The embedder is optional: a nil embedder opens every collection in degraded
// mode rather than failing. Opened collections are cached process-wide;
// concurrent first-open for the same user races with last-writer-wins on the
// cached handle, which is acceptable because handles are interchangeable.
type Store struct {
	config   Config
	embedder Embedder
	logger   *zap.Logger

	// collections caches opened handles by collection name.
	collections sync.Map
}

// NewStore creates a document store rooted at cfg.Path.
//
// The base directory is created if missing (idempotent). A nil embedder is
// permitted and puts all collections in degraded mode; a nil logger is
// replaced with a no-op logger.
func NewStore(cfg Config, embedder Embedder, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating base directory %s: %v", ErrUnavailable, cfg.Path, err)
	}

	logger.Info("knowledge store initialized",
		zap.String("path", cfg.Path),
		zap.Bool("embedder", embedder != nil),
	)

	return &Store{
		config:   cfg,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Degraded reports whether the store was constructed without an embedder.
// All collections opened from a degraded store are degraded.
func (s *Store) Degraded() bool {
	return s.embedder == nil
}

// Open returns the collection for userID, creating its backing storage on
// first access.
//
// The collection name is derived deterministically from the sanitized user
// ID. Construction failures of the underlying index are reported as
// ErrUnavailable; a missing embedder is not a failure and yields a degraded
// handle instead.
func (s *Store) Open(userID string) (Collection, error) {
	if err := sanitize.ValidateUserID(userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	name := collectionPrefix + sanitize.Identifier(userID)
	if err := sanitize.ValidateCollectionName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if cached, ok := s.collections.Load(name); ok {
		return cached.(*userCollection), nil
	}

	dir := filepath.Join(s.config.Path, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		CollectionsOpened.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: creating collection directory %s: %v", ErrUnavailable, dir, err)
	}

	db, err := chromem.NewPersistentDB(dir, s.config.Compress)
	if err != nil {
		CollectionsOpened.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: opening index at %s: %v", ErrUnavailable, dir, err)
	}

	col := &userCollection{
		name:     name,
		userID:   userID,
		embedder: s.embedder,
		logger:   s.logger.With(zap.String("collection", name)),
	}

	backing, err := db.GetOrCreateCollection(name, nil, col.embeddingFunc())
	if err != nil {
		CollectionsOpened.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: creating collection %s: %v", ErrUnavailable, name, err)
	}
	col.backing = backing

	mode := "ready"
	if col.Degraded() {
		mode = "degraded"
	}
	CollectionsOpened.WithLabelValues(mode).Inc()

	s.collections.Store(name, col)
	s.logger.Debug("opened collection",
		zap.String("collection", name),
		zap.String("mode", mode),
		zap.Int("documents", backing.Count()),
	)

	return col, nil
}
