package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// certDebounceDelay collapses the several events a certificate rotation emits
const certDebounceDelay = time.Second

// CertReloader serves the current TLS configuration and rebuilds it when the
// certificate files or the Vault TLS secret change. A failed reload keeps the
// previous configuration.
type CertReloader struct {
	mu sync.RWMutex

	source  config.TLSConfig
	current *tls.Config
	reloads int64

	logger *errors.Logger
}

// NewCertReloader builds the initial configuration from source. It returns
// nil without error when TLS is disabled.
func NewCertReloader(source config.TLSConfig, logger *errors.Logger) (*CertReloader, error) {
	initial, err := buildServerTLS(source)
	if err != nil || initial == nil {
		return nil, err
	}
	return &CertReloader{source: source, current: initial, logger: logger}, nil
}

func buildServerTLS(source config.TLSConfig) (*tls.Config, error) {
	cfg, err := source.BuildTLSConfig()
	if err != nil || cfg == nil {
		return nil, err
	}
	cfg.NextProtos = []string{"h2", "http/1.1"}
	return cfg, nil
}

// ServerConfig returns the configuration to hand to http.Server. Every
// handshake picks up the latest certificate and client CA pool.
func (c *CertReloader) ServerConfig() *tls.Config {
	c.mu.RLock()
	base := c.current.Clone()
	c.mu.RUnlock()

	base.Certificates = nil
	base.GetCertificate = c.getCertificate
	base.GetConfigForClient = c.configForClient
	return base
}

func (c *CertReloader) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &c.current.Certificates[0], nil
}

func (c *CertReloader) configForClient(*tls.ClientHelloInfo) (*tls.Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, nil
}

// Reload rebuilds the configuration from the certificate files or content
func (c *CertReloader) Reload() error {
	return c.reload(nil)
}

// ApplySecret swaps in the PEM content of a Vault TLS secret
func (c *CertReloader) ApplySecret(secret *config.VaultSecret) error {
	return c.reload(func(t *config.TLSConfig) {
		t.ApplySecret(secret)
	})
}

func (c *CertReloader) reload(update func(*config.TLSConfig)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.source
	if update != nil {
		update(&next)
	}
	cfg, err := buildServerTLS(next)
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("TLS is disabled")
	}

	c.source, c.current = next, cfg
	c.reloads++
	c.logger.Info("TLS certificates reloaded", "reloads", c.reloads)
	return nil
}

// Certificate returns the certificate currently served
func (c *CertReloader) Certificate() tls.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Certificates[0]
}

// watchedFiles lists the certificate files on disk
func (c *CertReloader) watchedFiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var files []string
	for _, f := range []string{c.source.CertFile, c.source.KeyFile, c.source.CAFile} {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			files = append(files, abs)
		}
	}
	return files
}

// Watch reloads whenever a certificate file changes, until ctx is cancelled.
// Directories are watched so that files replaced by rename are noticed.
func (c *CertReloader) Watch(ctx context.Context) error {
	files := c.watchedFiles()
	if len(files) == 0 {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	var dirs []string
	for _, f := range files {
		if dir := filepath.Dir(f); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			if closeErr := fsWatcher.Close(); closeErr != nil {
				c.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
			}
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	c.logger.Info("Certificate watcher started", "files", files)
	go c.watchLoop(ctx, fsWatcher, files)
	return nil
}

func (c *CertReloader) watchLoop(ctx context.Context, fsWatcher *fsnotify.Watcher, files []string) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		if err := fsWatcher.Close(); err != nil {
			c.logger.LogError(err, "Failed to close certificate file watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Certificate watcher stopped")
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if !slices.Contains(files, filepath.Clean(event.Name)) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(certDebounceDelay, func() {
				if err := c.Reload(); err != nil {
					c.logger.LogError(err, "Certificate reload failed, keeping previous certificate")
				}
			})
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			c.logger.LogError(err, "Certificate file watcher error")
		}
	}
}

// Status returns reload statistics for /stats
func (c *CertReloader) Status() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]any{
		"reloads":     c.reloads,
		"from_files":  c.source.CertFile != "",
		"client_auth": c.current.ClientAuth.String(),
	}
}
