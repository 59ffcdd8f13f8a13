package application

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/metrics"
	"github.com/mkrv/qabot/internal/ports"
	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces a fresh embedding for normalized text on a cache
// miss.
type ComputeFunc func(ctx context.Context, text string) (domain.Vector, error)

// VectorCache maps fingerprints of normalized question text to vectors for
// one embedding model. Entries persist through the store before the caller
// sees them, and at most one compute per fingerprint is in flight at a time;
// concurrent callers for the same text wait for the first result.
type VectorCache struct {
	store ports.VectorCacheStore
	model string

	mu     sync.Mutex
	file   domain.VectorCacheFile
	loaded bool

	// saveMu serializes snapshot writes. A clone is only taken once the
	// previous save landed, so a later write never persists an earlier,
	// smaller snapshot over a newer one.
	saveMu sync.Mutex

	flight  singleflight.Group
	metrics *metrics.Set
}

func NewVectorCache(store ports.VectorCacheStore, model string, set *metrics.Set) *VectorCache {
	return &VectorCache{
		store:   store,
		model:   model,
		metrics: set,
	}
}

// GetOrCompute returns the cached vector for text, or invokes compute and
// persists the result keyed by the text's fingerprint.
func (c *VectorCache) GetOrCompute(ctx context.Context, text string, compute ComputeFunc) (domain.Vector, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeText(text)
	fingerprint := domain.Fingerprint(normalized)

	if vector, ok := c.lookup(fingerprint); ok {
		c.metrics.RecordCacheHit(true)
		return vector, nil
	}
	c.metrics.RecordCacheHit(false)

	result, err, _ := c.flight.Do(fingerprint, func() (any, error) {
		// A concurrent caller may have stored the entry while this one
		// waited on the flight group.
		if vector, ok := c.lookup(fingerprint); ok {
			return vector, nil
		}

		log.Printf("Vector cache miss for %q, computing embedding", truncate(normalized, 40))
		vector, err := compute(ctx, normalized)
		if err != nil {
			return nil, err
		}

		if err := c.storeEntry(ctx, fingerprint, vector); err != nil {
			return nil, err
		}
		return vector, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(domain.Vector), nil
}

// SetContentHash compares the aggregate knowledge-base hash against the one
// the cache was computed under. On mismatch the whole cache for this model
// is discarded: coarser than per-entry invalidation, but immune to
// partial-cache staleness.
func (c *VectorCache) SetContentHash(ctx context.Context, hash string) error {
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.file.ContentHash == hash {
		c.mu.Unlock()
		return nil
	}

	if len(c.file.Entries) > 0 {
		log.Printf("Knowledge base content changed, discarding %d cached vector(s) for model %s", len(c.file.Entries), c.model)
	}
	c.file = domain.VectorCacheFile{Model: c.model, ContentHash: hash}
	c.file.ApplyDefaults()
	file := c.cloneLocked()
	c.mu.Unlock()

	if err := c.store.Save(ctx, c.model, file); err != nil {
		return fmt.Errorf("persist cache invalidation: %w", err)
	}
	return nil
}

func (c *VectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.file.Entries)
}

func (c *VectorCache) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	file, err := c.store.Load(ctx, c.model)
	if err != nil {
		return fmt.Errorf("load vector cache for model %s: %w", c.model, err)
	}
	file.Model = c.model
	file.ApplyDefaults()

	c.file = file
	c.loaded = true
	return nil
}

func (c *VectorCache) lookup(fingerprint string) (domain.Vector, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vector, ok := c.file.Entries[fingerprint]
	return vector, ok
}

func (c *VectorCache) storeEntry(ctx context.Context, fingerprint string, vector domain.Vector) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	c.file.Entries[fingerprint] = vector
	file := c.cloneLocked()
	c.mu.Unlock()

	if err := c.store.Save(ctx, c.model, file); err != nil {
		return fmt.Errorf("persist cache entry: %w", err)
	}
	return nil
}

func (c *VectorCache) cloneLocked() domain.VectorCacheFile {
	clone := domain.VectorCacheFile{
		Model:       c.file.Model,
		ContentHash: c.file.ContentHash,
		Entries:     make(map[string]domain.Vector, len(c.file.Entries)),
	}
	for k, v := range c.file.Entries {
		clone.Entries[k] = v
	}
	return clone
}
