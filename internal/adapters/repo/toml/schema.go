package toml

import (
	"fmt"

	"github.com/mkrv/qabot/internal/domain"
)

const currentSchemaVersion = 1

// Default free-tier limits, applied when the file sets no pool-level ones.
const (
	defaultRPM = 15
	defaultRPD = 1500
)

type fileSchema struct {
	Version     int                `toml:"version"`
	Limits      limitsSchema       `toml:"limits"`
	Credentials []credentialSchema `toml:"credentials"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Limits.RPM == 0 {
		s.Limits.RPM = defaultRPM
	}
	if s.Limits.RPD == 0 {
		s.Limits.RPD = defaultRPD
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported credentials schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type limitsSchema struct {
	RPM int `toml:"rpm"`
	RPD int `toml:"rpd"`
}

type credentialSchema struct {
	ID     string `toml:"id"`
	Secret string `toml:"secret"`
	RPM    int    `toml:"rpm,omitempty"`
	RPD    int    `toml:"rpd,omitempty"`
}

func fromSchema(entry credentialSchema, defaults limitsSchema) domain.Credential {
	credential := domain.Credential{
		ID:     domain.CredentialID(entry.ID),
		Secret: entry.Secret,
		RPM:    entry.RPM,
		RPD:    entry.RPD,
	}
	if credential.RPM == 0 {
		credential.RPM = defaults.RPM
	}
	if credential.RPD == 0 {
		credential.RPD = defaults.RPD
	}

	return credential
}

func toSchema(credential domain.Credential, defaults limitsSchema) credentialSchema {
	entry := credentialSchema{
		ID:     string(credential.ID),
		Secret: credential.Secret,
	}
	if credential.RPM != defaults.RPM {
		entry.RPM = credential.RPM
	}
	if credential.RPD != defaults.RPD {
		entry.RPD = credential.RPD
	}

	return entry
}
