package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	if err := validateTLSMode(c.Server.TLS); err != nil {
		return err
	}
	return validateTLSVersion(c.Server.TLS)
}

func validateTLSMode(t TLSConfig) error {
	switch t.Mode {
	case "disabled":
		return nil
	case "server":
		return validateCertSources(t, "server mode")
	case "mutual":
		if err := validateCertSources(t, "mutual mode"); err != nil {
			return err
		}
		if t.CAFile == "" && t.CAContent == "" {
			return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
		}
		if t.CAFile != "" && t.CAContent != "" {
			return fmt.Errorf("cannot specify both caFile and caContent - choose one")
		}
		return validateClientAuthPolicy(t)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", t.Mode)
	}
}

func validateCertSources(t TLSConfig, mode string) error {
	if (t.CertFile == "" && t.CertContent == "") || (t.KeyFile == "" && t.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	if t.CertFile != "" && t.CertContent != "" {
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	}
	if t.KeyFile != "" && t.KeyContent != "" {
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}
	return nil
}

func validateClientAuthPolicy(t TLSConfig) error {
	switch t.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", t.ClientAuthPolicy)
	}
}

func validateTLSVersion(t TLSConfig) error {
	switch t.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion)
	}
}

// BuildTLSConfig creates a *tls.Config for the configured mode. It returns nil
// when TLS is disabled.
func (t TLSConfig) BuildTLSConfig() (*tls.Config, error) {
	if t.Mode == "disabled" || t.Mode == "" {
		return nil, nil
	}

	cert, err := t.loadCertificate()
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		ClientAuth:   tls.NoClientCert,
	}
	if t.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	for _, name := range t.CipherSuites {
		if id, ok := cipherSuiteIDs[name]; ok {
			tlsConfig.CipherSuites = append(tlsConfig.CipherSuites, id)
		}
	}

	if t.Mode == "mutual" {
		pool, err := t.loadCAPool()
		if err != nil {
			return nil, err
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = clientAuthPolicies[t.ClientAuthPolicy]
	}

	return tlsConfig, nil
}

func (t TLSConfig) loadCertificate() (tls.Certificate, error) {
	if t.CertContent != "" && t.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(t.CertContent), []byte(t.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
	}
	return cert, nil
}

func (t TLSConfig) loadCAPool() (*x509.CertPool, error) {
	caPEM := []byte(t.CAContent)
	if len(caPEM) == 0 {
		var err error
		caPEM, err = os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

var clientAuthPolicies = map[string]tls.ClientAuthType{
	"":        tls.RequireAndVerifyClientCert,
	"require": tls.RequireAndVerifyClientCert,
	"request": tls.RequestClientCert,
	"verify":  tls.VerifyClientCertIfGiven,
}

var cipherSuiteIDs = map[string]uint16{
	"TLS_AES_128_GCM_SHA256":                  tls.TLS_AES_128_GCM_SHA256,
	"TLS_AES_256_GCM_SHA384":                  tls.TLS_AES_256_GCM_SHA384,
	"TLS_CHACHA20_POLY1305_SHA256":            tls.TLS_CHACHA20_POLY1305_SHA256,
	"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256": tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384": tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":   tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":   tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305":  tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305":    tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}
