package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/ports"
)

const (
	dataFileMode = 0o600
	dataDirMode  = 0o700
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// RecordRepository persists the ordered knowledge-base record list as a JSON
// array. Writes go through a temp file and rename, so readers never observe
// a partial record list.
type RecordRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.RecordStore = (*RecordRepository)(nil)

func NewRecordRepository(path string) (*RecordRepository, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &RecordRepository{path: normalized, mu: lockForPath(normalized)}, nil
}

func (r *RecordRepository) Load(ctx context.Context) ([]domain.QARecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []domain.QARecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records file: %w", err)
	}

	return records, nil
}

func (r *RecordRepository) Save(ctx context.Context, records []domain.QARecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if records == nil {
		records = []domain.QARecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	return writeAtomic(r.path, data, ".qa-*.json.tmp")
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func writeAtomic(path string, data []byte, tempPattern string) error {
	if err := os.MkdirAll(filepath.Dir(path), dataDirMode); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Chmod(dataFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}

	cleanup = false
	return nil
}
