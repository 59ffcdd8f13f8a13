package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/ports"
)

// CacheRepository persists one embedding cache file per model under dir. A
// cache file that fails to decode is discarded rather than fatal: the cache
// is derived data and rebuilds itself.
type CacheRepository struct {
	dir string
	mu  *sync.RWMutex
}

var _ ports.VectorCacheStore = (*CacheRepository)(nil)

func NewCacheRepository(dir string) (*CacheRepository, error) {
	normalized, err := normalizePath(dir)
	if err != nil {
		return nil, err
	}

	return &CacheRepository{dir: normalized, mu: lockForPath(normalized)}, nil
}

func (r *CacheRepository) Load(ctx context.Context, model string) (domain.VectorCacheFile, error) {
	empty := domain.VectorCacheFile{Model: model}
	empty.ApplyDefaults()

	if err := ctx.Err(); err != nil {
		return empty, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filePath(model))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return empty, fmt.Errorf("read cache file: %w", err)
	}

	var file domain.VectorCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("Discarding unreadable cache file for model %s: %v", model, err)
		return empty, nil
	}
	file.Model = model
	file.ApplyDefaults()

	return file, nil
}

func (r *CacheRepository) Save(ctx context.Context, model string, file domain.VectorCacheFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file.Model = model
	file.ApplyDefaults()

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	return writeAtomic(r.filePath(model), data, ".embeddings-*.json.tmp")
}

func (r *CacheRepository) filePath(model string) string {
	return filepath.Join(r.dir, "embeddings_"+sanitizeModel(model)+".json")
}

// sanitizeModel keeps cache file names filesystem-safe regardless of the
// model identifier's punctuation.
func sanitizeModel(model string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, model)
}
