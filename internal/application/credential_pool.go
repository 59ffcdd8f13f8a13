package application

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/ports"
)

// CredentialPool owns the runtime quota state of every configured
// credential. Selection is round-robin over eligible credentials starting
// after the last one handed out, so usage spreads evenly and the least
// recently used credential wins ties.
//
// Acquire never blocks beyond its critical section: when nothing is
// eligible it returns domain.ErrExhausted immediately and leaves backoff to
// the caller.
type CredentialPool struct {
	mu          sync.Mutex
	credentials []*domain.Credential
	lastUsed    int
	clock       ports.Clock
}

func NewCredentialPool(credentials []domain.Credential, clock ports.Clock) (*CredentialPool, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	owned := make([]*domain.Credential, 0, len(credentials))
	seen := make(map[domain.CredentialID]struct{}, len(credentials))
	for _, credential := range credentials {
		if err := credential.Validate(); err != nil {
			return nil, fmt.Errorf("credential %q: %w", credential.ID, err)
		}
		if _, ok := seen[credential.ID]; ok {
			return nil, fmt.Errorf("duplicate credential id %q", credential.ID)
		}
		seen[credential.ID] = struct{}{}

		c := credential
		owned = append(owned, &c)
	}

	return &CredentialPool{
		credentials: owned,
		lastUsed:    len(owned) - 1,
		clock:       clock,
	}, nil
}

// Acquire returns a copy of the next eligible credential without touching
// its counters; the caller reports the outcome afterwards.
func (p *CredentialPool) Acquire() (domain.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	p.refreshLocked(now)

	if len(p.credentials) == 0 {
		return domain.Credential{}, domain.ErrExhausted
	}

	start := (p.lastUsed + 1) % len(p.credentials)
	for i := 0; i < len(p.credentials); i++ {
		idx := (start + i) % len(p.credentials)
		if p.credentials[idx].Eligible(now) {
			p.lastUsed = idx
			return *p.credentials[idx], nil
		}
	}

	return domain.Credential{}, domain.ErrExhausted
}

// ReportSuccess counts one completed call against both quota windows.
func (p *CredentialPool) ReportSuccess(id domain.CredentialID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if credential := p.findLocked(id); credential != nil {
		credential.RecordUse(p.clock.Now())
	}
}

// ReportQuotaRejected suspends the credential until the remote's retry-after
// when given, or until the relevant window boundary otherwise. The
// suspension lifts on its own at the next Acquire past that instant.
func (p *CredentialPool) ReportQuotaRejected(id domain.CredentialID, scope domain.QuotaScope, retryAfter time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	credential := p.findLocked(id)
	if credential == nil {
		return
	}

	now := p.clock.Now()
	until := domain.NextWindowBoundary(now, scope)
	if retryAfter > 0 {
		until = now.Add(retryAfter)
	}

	credential.Suspend(until)
	log.Printf("Suspending credential %s (%s) until %s", credential.ID, credential.Redacted(), until.Format(time.RFC3339))
}

// Snapshot returns copies of every credential with windows rolled to now,
// for the status renderer and metrics.
func (p *CredentialPool) Snapshot() []domain.Credential {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.refreshLocked(p.clock.Now())

	out := make([]domain.Credential, 0, len(p.credentials))
	for _, credential := range p.credentials {
		out = append(out, *credential)
	}
	return out
}

func (p *CredentialPool) EligibleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	p.refreshLocked(now)

	count := 0
	for _, credential := range p.credentials {
		if credential.Eligible(now) {
			count++
		}
	}
	return count
}

func (p *CredentialPool) refreshLocked(now time.Time) {
	for _, credential := range p.credentials {
		if credential.Refresh(now) {
			log.Printf("Re-enabling credential %s (%s)", credential.ID, credential.Redacted())
		}
	}
}

func (p *CredentialPool) findLocked(id domain.CredentialID) *domain.Credential {
	for _, credential := range p.credentials {
		if credential.ID == id {
			return credential
		}
	}
	return nil
}
