package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// SecretReader reads versioned secrets from a KVv2 store
type SecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// SecretWatcher polls a Vault secret and hands every new version to onChange.
// A version is only recorded once onChange accepts it, so a rejected secret
// is retried on the next poll.
type SecretWatcher struct {
	mu sync.RWMutex

	client       SecretReader
	secretPath   string
	pollInterval time.Duration
	onChange     func(*config.VaultSecret) error
	logger       *errors.Logger

	lastVersion int64
}

// NewSecretWatcher creates a watcher for secretPath
func NewSecretWatcher(client SecretReader, secretPath string, pollInterval time.Duration, onChange func(*config.VaultSecret) error, logger *errors.Logger) *SecretWatcher {
	return &SecretWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onChange:     onChange,
		logger:       logger,
	}
}

// Prime records the current version without applying it, for secrets that
// were already applied at startup.
func (vw *SecretWatcher) Prime() error {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	vw.mu.Lock()
	vw.lastVersion = secret.Version
	vw.mu.Unlock()
	return nil
}

// Run polls until ctx is cancelled
func (vw *SecretWatcher) Run(ctx context.Context) {
	vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)

	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := vw.CheckForUpdates(); err != nil {
				vw.logger.LogError(err, "Failed to refresh secret from Vault", "secret_path", vw.secretPath)
			}
		case <-ctx.Done():
			vw.logger.Info("Vault watcher stopped", "secret_path", vw.secretPath)
			return
		}
	}
}

// CheckForUpdates applies the secret if its version changed since the last
// applied one and reports whether it did.
func (vw *SecretWatcher) CheckForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()

	if secret.Version <= vw.lastVersion {
		return false, nil
	}
	if err := vw.onChange(secret); err != nil {
		return false, fmt.Errorf("failed to apply secret version %d: %w", secret.Version, err)
	}
	vw.lastVersion = secret.Version
	vw.logger.Info("Vault secret changed, reloaded", "secret_path", vw.secretPath, "version", secret.Version)
	return true, nil
}

// Status returns the current status of the watcher for health reporting
func (vw *SecretWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}
