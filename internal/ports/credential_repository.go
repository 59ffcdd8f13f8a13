package ports

import (
	"context"

	"github.com/mkrv/qabot/internal/domain"
)

// CredentialRepository loads the configured credential set at startup.
// Runtime quota state lives in the pool, never in the file.
type CredentialRepository interface {
	Load(ctx context.Context) ([]domain.Credential, error)
	Save(ctx context.Context, credentials []domain.Credential) error
}
