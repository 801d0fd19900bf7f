package server

import (
	"time"

	"resumatch/internal/analysis"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/source"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Scoring engine and the document loader used for stats
	Engine *analysis.Engine
	Loader *source.Loader

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys *APIKeySet

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit, also the upload limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Runtime rotation of certificates and API keys. Secrets is nil unless
	// Vault is enabled.
	Certs          *CertReloader
	Secrets        SecretReader
	VaultSecrets   config.VaultSecrets
	SecretRefresh  time.Duration
	secretWatchers []*SecretWatcher

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	VaultSecrets   config.VaultSecrets
	SecretRefresh  time.Duration
}

// NewServerConfig derives a ServerConfig from the application configuration.
func NewServerConfig(cfg *config.Config, version string) ServerConfig {
	rateLimit := cfg.Server.RateLimit
	sc := ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &rateLimit,
	}
	if cfg.Vault.Enabled {
		sc.VaultSecrets = cfg.Vault.Secrets
		sc.SecretRefresh = cfg.Vault.RefreshInterval
	}
	return sc
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, engine *analysis.Engine, loader *source.Loader, logger *errors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Engine:         engine,
		Loader:         loader,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        NewAPIKeySet(cfg.APIKeys),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		VaultSecrets:   cfg.VaultSecrets,
		SecretRefresh:  cfg.SecretRefresh,
		Logger:         logger,
	}
}
