package ports

import (
	"context"

	"github.com/mkrv/qabot/internal/domain"
)

// VectorCacheStore persists one embedding cache file per model. Load returns
// an empty file when none exists yet.
type VectorCacheStore interface {
	Load(ctx context.Context, model string) (domain.VectorCacheFile, error)
	Save(ctx context.Context, model string, file domain.VectorCacheFile) error
}
