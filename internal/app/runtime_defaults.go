package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	jwtSecretBytes            = 48
	defaultShutdownTimeout    = 15 * time.Second
	defaultAuditRetentionDays = 365
)

// ApplyRuntimeDefaults fills values a deployment may leave empty and returns
// the config keys whose secrets were generated. A generated JWT secret lives
// only as long as the process, so tokens signed with it expire on restart.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Maintenance.AuditRetentionDays <= 0 {
		cfg.Maintenance.AuditRetentionDays = defaultAuditRetentionDays
	}

	var generated []string
	if !cfg.Auth.UsesOIDC() && strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := randomHex(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated = append(generated, "auth.jwt.secret")
	}
	return generated, nil
}

func randomHex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("key length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
