package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/ports"
)

const (
	configName          = "config"
	configType          = "toml"
	credentialsPathKey  = "credentials.path"
	credentialsFileMode = 0o600
	credentialsDirMode  = 0o700
	credentialsDir      = ".qabot"
	credentialsFile     = "credentials.toml"
	tempFilePattern     = ".credentials-*.toml.tmp"
)

// Repository reads and writes the credential definitions file. Only static
// configuration lives here; runtime quota state belongs to the pool and is
// never persisted.
type Repository struct {
	credentialsPath string
	mu              *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CredentialRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, credentialsDir, credentialsFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, credentialsDir))
	cfg.SetDefault(credentialsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	credentialsPath := cfg.GetString(credentialsPathKey)
	if credentialsPath == "" {
		return nil, errors.New("credentials path is empty")
	}
	credentialsPath, err = normalizeCredentialsPath(credentialsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{credentialsPath: credentialsPath, mu: lockForPath(credentialsPath)}, nil
}

func (r *Repository) Load(ctx context.Context) ([]domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	credentials := make([]domain.Credential, 0, len(file.Credentials))
	for _, entry := range file.Credentials {
		credentials = append(credentials, fromSchema(entry, file.Limits))
	}

	return credentials, nil
}

func (r *Repository) Save(ctx context.Context, credentials []domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	file.Credentials = file.Credentials[:0]
	for _, credential := range credentials {
		file.Credentials = append(file.Credentials, toSchema(credential, file.Limits))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.credentialsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read credentials file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode credentials file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.credentialsPath), credentialsDirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.credentialsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
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
		return fmt.Errorf("write temp credentials file: %w", err)
	}

	if err := tempFile.Chmod(credentialsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp credentials file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp credentials file: %w", err)
	}

	if err := os.Rename(tempName, r.credentialsPath); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.credentialsPath, credentialsFileMode); err != nil {
		return fmt.Errorf("chmod credentials file: %w", err)
	}

	return nil
}

func normalizeCredentialsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve credentials path: %w", err)
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
