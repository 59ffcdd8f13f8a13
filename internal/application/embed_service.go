package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/metrics"
	"github.com/mkrv/qabot/internal/ports"
)

const defaultEmbedTimeout = 10 * time.Second

// EmbedService is the quota-respecting transport around one embedding call:
// normalize, pick a credential, call out, classify the failure. It never
// caches; that stays the vector cache's concern.
type EmbedService struct {
	pool    *CredentialPool
	backend ports.Embedder
	timeout time.Duration
	metrics *metrics.Set
}

func NewEmbedService(pool *CredentialPool, backend ports.Embedder, timeout time.Duration, set *metrics.Set) *EmbedService {
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}

	return &EmbedService{
		pool:    pool,
		backend: backend,
		timeout: timeout,
		metrics: set,
	}
}

// Embed returns the vector for text. A quota-style rejection suspends the
// offending credential and retries exactly once on a different one; a second
// rejection surfaces as domain.ErrExhausted.
func (s *EmbedService) Embed(ctx context.Context, text string) (domain.Vector, error) {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		return nil, fmt.Errorf("empty input: %w", domain.ErrRemoteRejected)
	}

	// The pool's eligibility only moves inside this call, so the gauge is
	// refreshed on every exit path.
	defer func() {
		s.metrics.SetEligibleCredentials(s.pool.EligibleCount())
	}()

	const attempts = 2
	for attempt := 0; attempt < attempts; attempt++ {
		credential, err := s.pool.Acquire()
		if err != nil {
			s.metrics.RecordExhausted()
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		vector, err := s.backend.Embed(callCtx, credential.Secret, normalized)
		cancel()

		if err == nil {
			s.pool.ReportSuccess(credential.ID)
			s.metrics.RecordEmbed("success")
			return vector, nil
		}

		var quotaErr *domain.QuotaRejectedError
		if errors.As(err, &quotaErr) {
			s.pool.ReportQuotaRejected(credential.ID, quotaErr.Scope, quotaErr.RetryAfter)
			s.metrics.RecordEmbed("quota_rejected")
			continue
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrRemoteUnavailable) {
			s.metrics.RecordEmbed("unavailable")
			return nil, fmt.Errorf("embed %q: %w", truncate(normalized, 40), domain.ErrRemoteUnavailable)
		}

		s.metrics.RecordEmbed("rejected")
		return nil, fmt.Errorf("embed %q: %w", truncate(normalized, 40), errors.Join(domain.ErrRemoteRejected, err))
	}

	s.metrics.RecordExhausted()
	return nil, domain.ErrExhausted
}

// truncate shortens s to max runes. Cutting on rune boundaries keeps
// multi-byte text valid in log lines and replies.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
