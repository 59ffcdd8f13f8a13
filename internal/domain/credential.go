package domain

import (
	"fmt"
	"strings"
	"time"
)

type CredentialID string

type QuotaScope string

const (
	ScopeMinute QuotaScope = "minute"
	ScopeDay    QuotaScope = "day"
)

// QuotaWindow counts calls since Start. Windows reset wholesale rather than
// decrementing individual calls, so the count never drifts.
type QuotaWindow struct {
	Count int
	Start time.Time
}

type Credential struct {
	ID            CredentialID
	Secret        string
	RPM           int
	RPD           int
	Minute        QuotaWindow
	Day           QuotaWindow
	DisabledUntil time.Time
}

func (c Credential) Validate() error {
	if strings.TrimSpace(string(c.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("secret is required")
	}
	if c.RPM <= 0 {
		return fmt.Errorf("rpm limit must be positive")
	}
	if c.RPD <= 0 {
		return fmt.Errorf("rpd limit must be positive")
	}

	return nil
}

// Refresh rolls over stale quota windows and lifts an elapsed suspension.
// It reports whether the credential was re-enabled by this call.
func (c *Credential) Refresh(now time.Time) bool {
	if now.Sub(c.Minute.Start) > time.Minute {
		c.Minute = QuotaWindow{Start: now}
	}
	if !sameUTCDate(c.Day.Start, now) {
		c.Day = QuotaWindow{Start: now}
	}

	if !c.DisabledUntil.IsZero() && !now.Before(c.DisabledUntil) {
		c.DisabledUntil = time.Time{}
		return true
	}

	return false
}

// Eligible assumes Refresh has already run for now.
func (c Credential) Eligible(now time.Time) bool {
	if !c.DisabledUntil.IsZero() && now.Before(c.DisabledUntil) {
		return false
	}

	return c.Minute.Count < c.RPM && c.Day.Count < c.RPD
}

func (c *Credential) RecordUse(now time.Time) {
	c.Refresh(now)
	c.Minute.Count++
	c.Day.Count++
}

func (c *Credential) Suspend(until time.Time) {
	c.DisabledUntil = until
}

// Redacted returns the last four characters of the secret for log lines.
func (c Credential) Redacted() string {
	if len(c.Secret) <= 4 {
		return "..." + c.Secret
	}
	return "..." + c.Secret[len(c.Secret)-4:]
}

// NextWindowBoundary is the suspension target when the remote rejects for
// quota reasons without saying when to retry: the next minute boundary for
// per-minute limits, the next UTC midnight for per-day limits.
func NextWindowBoundary(now time.Time, scope QuotaScope) time.Time {
	if scope == ScopeDay {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	}

	return now.Truncate(time.Minute).Add(time.Minute)
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
