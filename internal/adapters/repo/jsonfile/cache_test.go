package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrv/qabot/internal/domain"
)

func TestCacheRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, err := NewCacheRepository(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	const model = "text-embedding-3-small"

	// No file yet: an empty cache, not an error.
	file, err := repo.Load(ctx, model)
	require.NoError(t, err)
	assert.Equal(t, model, file.Model)
	assert.Empty(t, file.Entries)

	file.ContentHash = "hash-1"
	file.Entries[domain.Fingerprint("some question")] = domain.Vector{0.1, 0.2}
	require.NoError(t, repo.Save(ctx, model, file))

	got, err := repo.Load(ctx, model)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.ContentHash)
	assert.Equal(t, domain.Vector{0.1, 0.2}, got.Entries[domain.Fingerprint("some question")])
}

func TestCacheRepositoryFilesArePerModel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewCacheRepository(dir)
	require.NoError(t, err)

	ctx := context.Background()

	fileA := domain.VectorCacheFile{ContentHash: "a", Entries: map[string]domain.Vector{"fp": {1}}}
	require.NoError(t, repo.Save(ctx, "model-a", fileA))
	fileB := domain.VectorCacheFile{ContentHash: "b", Entries: map[string]domain.Vector{"fp": {2}}}
	require.NoError(t, repo.Save(ctx, "model-b", fileB))

	gotA, err := repo.Load(ctx, "model-a")
	require.NoError(t, err)
	assert.Equal(t, "a", gotA.ContentHash)

	gotB, err := repo.Load(ctx, "model-b")
	require.NoError(t, err)
	assert.Equal(t, "b", gotB.ContentHash)
}

func TestCacheRepositoryDiscardsCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewCacheRepository(dir)
	require.NoError(t, err)

	const model = "broken-model"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "embeddings_broken_model.json"), []byte("{truncated"), 0o600))

	// Derived data: a corrupt cache resets to empty instead of failing.
	file, err := repo.Load(context.Background(), model)
	require.NoError(t, err)
	assert.Empty(t, file.Entries)
	assert.Empty(t, file.ContentHash)
}

func TestCacheRepositorySanitizesModelNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewCacheRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), "org/model:v1.2", domain.VectorCacheFile{}))

	_, err = os.Stat(filepath.Join(dir, "embeddings_org_model_v1_2.json"))
	assert.NoError(t, err)
}
