package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialValidate(t *testing.T) {
	t.Parallel()

	valid := Credential{ID: "k1", Secret: "sk-test", RPM: 15, RPD: 1500}
	require.NoError(t, valid.Validate())

	missingID := valid
	missingID.ID = " "
	assert.Error(t, missingID.Validate())

	missingSecret := valid
	missingSecret.Secret = ""
	assert.Error(t, missingSecret.Validate())

	zeroRPM := valid
	zeroRPM.RPM = 0
	assert.Error(t, zeroRPM.Validate())
}

func TestCredentialEligibility(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	credential := Credential{
		ID: "k1", Secret: "sk-test", RPM: 2, RPD: 10,
		Minute: QuotaWindow{Count: 1, Start: now.Add(-10 * time.Second)},
		Day:    QuotaWindow{Count: 5, Start: now.Add(-time.Hour)},
	}
	assert.True(t, credential.Eligible(now))

	credential.Minute.Count = 2
	assert.False(t, credential.Eligible(now))

	credential.Minute.Count = 1
	credential.Day.Count = 10
	assert.False(t, credential.Eligible(now))

	credential.Day.Count = 5
	credential.DisabledUntil = now.Add(time.Minute)
	assert.False(t, credential.Eligible(now))
}

func TestCredentialRefreshResetsStaleWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	credential := Credential{
		ID: "k1", Secret: "sk-test", RPM: 2, RPD: 10,
		Minute: QuotaWindow{Count: 2, Start: now.Add(-61 * time.Second)},
		Day:    QuotaWindow{Count: 10, Start: now.Add(-25 * time.Hour)},
	}

	credential.Refresh(now)

	assert.Equal(t, 0, credential.Minute.Count)
	assert.Equal(t, now, credential.Minute.Start)
	assert.Equal(t, 0, credential.Day.Count)
	assert.True(t, credential.Eligible(now))
}

func TestCredentialRefreshKeepsLiveWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	credential := Credential{
		ID: "k1", Secret: "sk-test", RPM: 5, RPD: 10,
		Minute: QuotaWindow{Count: 3, Start: now.Add(-30 * time.Second)},
		Day:    QuotaWindow{Count: 7, Start: now.Add(-6 * time.Hour)},
	}

	credential.Refresh(now)

	assert.Equal(t, 3, credential.Minute.Count)
	assert.Equal(t, 7, credential.Day.Count)
}

func TestCredentialRefreshLiftsElapsedSuspension(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	credential := Credential{ID: "k1", Secret: "sk-test", RPM: 5, RPD: 10}
	credential.Suspend(now.Add(-time.Second))

	assert.True(t, credential.Refresh(now))
	assert.True(t, credential.DisabledUntil.IsZero())

	credential.Suspend(now.Add(time.Minute))
	assert.False(t, credential.Refresh(now))
	assert.False(t, credential.DisabledUntil.IsZero())
}

func TestNextWindowBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 1, 12, 31, 0, 0, time.UTC), NextWindowBoundary(now, ScopeMinute))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), NextWindowBoundary(now, ScopeDay))
}

func TestCredentialRedacted(t *testing.T) {
	t.Parallel()

	credential := Credential{Secret: "sk-abcdef1234"}
	assert.Equal(t, "...1234", credential.Redacted())
}
