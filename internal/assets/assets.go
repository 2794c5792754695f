// Package assets loads basis models and keeps them for the life of the process.
package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/morphface/internal/logger"
	"github.com/Faultbox/morphface/pkg/formats"
	"github.com/Faultbox/morphface/pkg/morph"
)

// Store loads basis model containers, parsing each path at most once.
type Store struct {
	cache *Cache
	mu    sync.Mutex // serializes parsing so concurrent misses share one load
}

// NewStore creates an empty model store.
func NewStore() *Store {
	return &Store{
		cache: NewCache(),
	}
}

// Load returns the model stored at path, parsing and validating it on first use.
func (s *Store) Load(path string) (*morph.Model, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving model path %s: %w", path, err)
	}

	if m, ok := s.cache.Get(key); ok {
		return m, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have loaded it while we waited.
	if m, ok := s.cache.Peek(key); ok {
		return m, nil
	}

	m, err := formats.ParseModelFile(key)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}

	logger.Debug("basis model loaded",
		zap.String("path", key),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("faces", m.NumFaces()),
		zap.Bool("expression", m.HasExpression()))

	s.cache.Set(key, m)
	return m, nil
}

// Stats returns cache statistics.
func (s *Store) Stats() (hits, misses int) {
	return s.cache.Stats()
}

// Close drops every cached model.
func (s *Store) Close() {
	s.cache.Clear()
}

// Cache is an in-memory map of loaded models keyed by absolute path.
type Cache struct {
	data map[string]*morph.Model
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*morph.Model),
	}
}

// Get retrieves a model and records a hit or miss.
func (c *Cache) Get(key string) (*morph.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

// Peek retrieves a model without touching the statistics.
func (c *Cache) Peek(key string) (*morph.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.data[key]
	return m, ok
}

// Set stores a model in the cache.
func (c *Cache) Set(key string, m *morph.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = m
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*morph.Model)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
