package cli

import (
	"fmt"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume analysis",
	Long: `Start an HTTP server that provides REST API endpoints for resume analysis.

Available endpoints:
- POST /analyze: Analyze resume text against a role
- POST /analyze/upload: Analyze an uploaded resume document (multipart)
- POST /recommend: Recommend the best fitting role
- GET /roles: List the roles of the catalog
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

The role catalog is reloaded on change when catalog.watch is enabled.
Certificate files are reloaded on change when server.tls.watch is enabled,
and with Vault enabled the API key and TLS secrets are polled every
vault.refreshInterval.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded config
func applyServeFlags(cmd *cobra.Command) {
	cfg := getConfigFromContext(cmd.Context())
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := newObservability(cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability(om, logger)

	rt, err := openCatalog(cfg, logger, true)
	if err != nil {
		return err
	}
	defer rt.stop()
	rt.observeReloads(om)

	loader, err := newLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg, server.NewServerConfig(cfg, Version), rt.engine(), loader, logger)
	if srv.SecretRefresh > 0 && (srv.VaultSecrets.APIKeys != "" || srv.VaultSecrets.TLSCerts != "") {
		client, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize vault client", err)
		}
		srv.Secrets = client
	}
	return srv.Start(ctx, om)
}
