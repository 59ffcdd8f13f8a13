package ports

import (
	"context"

	"github.com/mkrv/qabot/internal/domain"
)

// Embedder issues one outbound embedding call with the given credential
// secret. Implementations classify remote failures into
// domain.QuotaRejectedError, domain.ErrRemoteRejected, or
// domain.ErrRemoteUnavailable.
type Embedder interface {
	Embed(ctx context.Context, secret, text string) (domain.Vector, error)
}
