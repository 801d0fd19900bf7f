package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"resumatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// RefreshInterval is how often the server polls the API key and TLS
	// secrets for new versions. Zero disables polling.
	RefreshInterval time.Duration `mapstructure:"refreshInterval"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines KVv2 paths of secrets in Vault. Empty paths are skipped.
type VaultSecrets struct {
	// APIKeys secret holds "keys": a comma-separated list
	APIKeys string `mapstructure:"apiKeys"`
	// Storage secret holds "accessKeyId" and "secretAccessKey" for S3
	Storage string `mapstructure:"storage"`
	// Queue secret holds "url", the AMQP connection URL
	Queue string `mapstructure:"queue"`
	// TLSCerts secret holds "cert", "key" and "ca" PEM content
	TLSCerts string `mapstructure:"tlsCerts"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration.
// It returns nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	logger.Info("Successfully connected to Vault",
		"address", vaultConfig.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}

	version, err := extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

func extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}

	switch v := metadata["version"].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		// The vault client decodes numbers as json.Number
		if n, ok := v.(interface{ Int64() (int64, error) }); ok {
			return n.Int64()
		}
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, v)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize vault client", err)
	}

	return client.applySecrets(config)
}

func (vc *VaultClient) applySecrets(config *Config) error {
	secrets := vc.config.Secrets

	if secrets.APIKeys != "" {
		secret, err := vc.GetSecretV2(secrets.APIKeys)
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		keys, err := APIKeysFromSecret(secret, secrets.APIKeys)
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if len(keys) > 0 {
			config.Server.APIKeys = keys
		}
		vc.logger.Info("API keys loaded from Vault", "count", len(keys))
	}

	if secrets.Storage != "" {
		secret, err := vc.GetSecretV2(secrets.Storage)
		if err != nil {
			return fmt.Errorf("failed to load storage credentials from vault: %w", err)
		}
		if config.Storage.S3.AccessKeyID, err = stringField(secret, secrets.Storage, "accessKeyId"); err != nil {
			return err
		}
		if config.Storage.S3.SecretAccessKey, err = stringField(secret, secrets.Storage, "secretAccessKey"); err != nil {
			return err
		}
		vc.logger.Info("Storage credentials loaded from Vault", "version", secret.Version)
	}

	if secrets.Queue != "" {
		url, err := vc.GetStringSecret(secrets.Queue, "url")
		if err != nil {
			return fmt.Errorf("failed to load queue URL from vault: %w", err)
		}
		config.Queue.URL = url
		vc.logger.Info("Queue URL loaded from Vault")
	}

	if secrets.TLSCerts != "" {
		secret, err := vc.GetSecretV2(secrets.TLSCerts)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		loaded := config.Server.TLS.ApplySecret(secret)
		vc.logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}

	return nil
}

// APIKeysFromSecret reads the comma-separated "keys" field of an API key secret
func APIKeysFromSecret(secret *VaultSecret, path string) ([]string, error) {
	value, err := stringField(secret, path, "keys")
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

// ApplySecret copies the "cert", "key" and "ca" PEM fields of secret into t
// and returns how many were present.
func (t *TLSConfig) ApplySecret(secret *VaultSecret) int {
	loaded := 0
	for key, target := range map[string]*string{
		"cert": &t.CertContent,
		"key":  &t.KeyContent,
		"ca":   &t.CAContent,
	} {
		if content, ok := secret.Data[key].(string); ok && content != "" {
			*target = content
			loaded++
		}
	}
	return loaded
}
