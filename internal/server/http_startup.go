package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests
const shutdownTimeout = 30 * time.Second

// Handler returns the fully wired HTTP handler, including otelhttp instrumentation
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return om.HTTPMiddleware()(s.setupRoutes(om))
}

// Start serves HTTP until ctx is cancelled or a termination signal arrives
func (s *Server) Start(ctx context.Context, om *observability.ObservabilityManager) error {
	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	reloadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startReloaders(reloadCtx)

	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) (*http.Server, error) {
	certs, err := NewCertReloader(s.TLSConfig, s.Logger)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to configure TLS", err)
	}
	s.Certs = certs

	var tlsConfig *tls.Config
	if certs != nil {
		tlsConfig = certs.ServerConfig()
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(om),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}, nil
}

// startReloaders rotates certificates and API keys while the server runs.
// Failures are logged and leave the startup values in place.
func (s *Server) startReloaders(ctx context.Context) {
	if s.Certs != nil && s.TLSConfig.Watch {
		if err := s.Certs.Watch(ctx); err != nil {
			s.Logger.LogError(err, "Certificate file watching disabled")
		}
	}

	if s.Secrets == nil || s.SecretRefresh <= 0 {
		return
	}
	if path := s.VaultSecrets.APIKeys; path != "" {
		s.watchSecret(ctx, path, s.applyAPIKeySecret(path))
	}
	if path := s.VaultSecrets.TLSCerts; path != "" && s.Certs != nil {
		s.watchSecret(ctx, path, s.Certs.ApplySecret)
	}
}

func (s *Server) watchSecret(ctx context.Context, path string, apply func(*config.VaultSecret) error) {
	watcher := NewSecretWatcher(s.Secrets, path, s.SecretRefresh, apply, s.Logger)
	if err := watcher.Prime(); err != nil {
		s.Logger.LogError(err, "Failed to read initial secret version", "secret_path", path)
	}
	s.secretWatchers = append(s.secretWatchers, watcher)
	go watcher.Run(ctx)
}

// applyAPIKeySecret replaces the accepted API keys. An empty list is refused
// since it would disable authentication.
func (s *Server) applyAPIKeySecret(path string) func(*config.VaultSecret) error {
	return func(secret *config.VaultSecret) error {
		keys, err := config.APIKeysFromSecret(secret, path)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return fmt.Errorf("secret %s holds no API keys, keeping current keys", path)
		}
		s.APIKeys.Replace(keys)
		s.Logger.Info("API keys reloaded from Vault", "count", len(keys), "version", secret.Version)
		return nil
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already loaded into the TLS config
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
	case <-ctx.Done():
		s.Logger.Info("Context cancelled, starting graceful shutdown")
	}

	return s.performGracefulShutdown(server)
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
