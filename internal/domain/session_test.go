package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEditSessionExpired(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := EditSession{CreatedAt: start}

	assert.False(t, session.Expired(start.Add(600*time.Second), 600*time.Second))
	assert.True(t, session.Expired(start.Add(601*time.Second), 600*time.Second))

	// Zero timeout disables expiry entirely.
	assert.False(t, session.Expired(start.Add(240*time.Hour), 0))
}
