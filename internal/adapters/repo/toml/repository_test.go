package toml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrv/qabot/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	credentialsPath := filepath.Join(t.TempDir(), "credentials.toml")
	config := viper.New()
	config.Set("credentials.path", credentialsPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo, credentialsPath
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()

	// A missing file is an empty credential set.
	credentials, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, credentials)

	want := []domain.Credential{
		{ID: "k1", Secret: "sk-first", RPM: 15, RPD: 1500},
		{ID: "k2", Secret: "sk-second", RPM: 60, RPD: 5000},
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepositoryAppliesPoolDefaults(t *testing.T) {
	t.Parallel()

	repo, credentialsPath := newTestRepository(t)
	require.NoError(t, os.WriteFile(credentialsPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[limits]",
		"rpm = 30",
		"rpd = 3000",
		"",
		"[[credentials]]",
		"id = \"k1\"",
		"secret = \"sk-first\"",
		"",
		"[[credentials]]",
		"id = \"k2\"",
		"secret = \"sk-second\"",
		"rpm = 5",
		"",
	}, "\n")), 0o600))

	credentials, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, credentials, 2)

	// k1 inherits both pool limits; k2 overrides rpm only.
	assert.Equal(t, 30, credentials[0].RPM)
	assert.Equal(t, 3000, credentials[0].RPD)
	assert.Equal(t, 5, credentials[1].RPM)
	assert.Equal(t, 3000, credentials[1].RPD)
}

func TestRepositoryBuiltInDefaultsWhenLimitsMissing(t *testing.T) {
	t.Parallel()

	repo, credentialsPath := newTestRepository(t)
	require.NoError(t, os.WriteFile(credentialsPath, []byte(strings.Join([]string{
		"[[credentials]]",
		"id = \"k1\"",
		"secret = \"sk-first\"",
		"",
	}, "\n")), 0o600))

	credentials, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.Equal(t, defaultRPM, credentials[0].RPM)
	assert.Equal(t, defaultRPD, credentials[0].RPD)
}

func TestRepositoryRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	repo, credentialsPath := newTestRepository(t)
	require.NoError(t, os.WriteFile(credentialsPath, []byte("version = 99\n"), 0o600))

	_, err := repo.Load(context.Background())
	assert.ErrorContains(t, err, "unsupported credentials schema version")
}

func TestRepositorySaveRestrictsFileMode(t *testing.T) {
	t.Parallel()

	repo, credentialsPath := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), []domain.Credential{
		{ID: "k1", Secret: "sk-first", RPM: 15, RPD: 1500},
	}))

	info, err := os.Stat(credentialsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositorySaveOmitsDefaultLimits(t *testing.T) {
	t.Parallel()

	repo, credentialsPath := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), []domain.Credential{
		{ID: "k1", Secret: "sk-first", RPM: defaultRPM, RPD: defaultRPD},
	}))

	data, err := os.ReadFile(credentialsPath)
	require.NoError(t, err)

	// Per-credential limits matching the pool defaults stay implicit.
	var file fileSchema
	require.NoError(t, toml.Unmarshal(data, &file))
	require.Len(t, file.Credentials, 1)
	assert.Zero(t, file.Credentials[0].RPM)
	assert.Zero(t, file.Credentials[0].RPD)
}
