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

func TestRecordRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "qa.json")
	repo, err := NewRecordRepository(path)
	require.NoError(t, err)

	ctx := context.Background()

	// A missing file is an empty knowledge base, not an error.
	records, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	want := []domain.QARecord{
		{ID: 1, Question: "how do I reset my password", Answer: "use the portal"},
		{ID: 2, Question: "what are the office hours", Answer: "9 to 5"},
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRecordRepositorySaveNilWritesEmptyArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "qa.json")
	repo, err := NewRecordRepository(path)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestRecordRepositoryCorruptFileIsAnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "qa.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	repo, err := NewRecordRepository(path)
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	assert.ErrorContains(t, err, "decode records file")
}

func TestRecordRepositoryCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "qa.json")
	repo, err := NewRecordRepository(path)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), []domain.QARecord{{ID: 1, Question: "q", Answer: "a"}}))

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordRepositorySaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewRecordRepository(filepath.Join(dir, "qa.json"))
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), []domain.QARecord{{ID: 1, Question: "q", Answer: "a"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "qa.json", entries[0].Name())
}

func TestRecordRepositoryHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	repo, err := NewRecordRepository(filepath.Join(t.TempDir(), "qa.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Save(ctx, nil), context.Canceled)
}
