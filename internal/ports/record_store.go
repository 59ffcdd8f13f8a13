package ports

import (
	"context"

	"github.com/mkrv/qabot/internal/domain"
)

// RecordStore persists the ordered knowledge-base record list. Save must be
// atomic: readers never observe a partial write.
type RecordStore interface {
	Load(ctx context.Context) ([]domain.QARecord, error)
	Save(ctx context.Context, records []domain.QARecord) error
}
