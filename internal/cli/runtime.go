package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"resumatch/internal/analysis"
	"resumatch/internal/catalog"
	"resumatch/internal/common"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/source"
)

type commandOutput = common.CommandConfig

// resolveOutput applies the configured default format and validates it
func resolveOutput(cfg *config.Config, out commandOutput) (commandOutput, error) {
	format, err := common.ResolveOutputFormat(out.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
	if err != nil {
		return out, errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), nil)
	}
	out.OutputFormat = format
	return out, nil
}

// catalogRuntime is the catalog a command scores against, optionally hot-reloaded
type catalogRuntime struct {
	source  catalog.Source
	watcher *catalog.Watcher
}

// openCatalog loads the configured catalog. Long-running commands pass
// watch=true to follow file changes when catalog.watch is set.
func openCatalog(cfg *config.Config, logger *errors.Logger, watch bool) (*catalogRuntime, error) {
	path := cfg.Catalog.File
	if catalogFile != "" {
		path = catalogFile
	}
	if path == "" {
		return &catalogRuntime{source: catalog.Default()}, nil
	}

	if !watch || !cfg.Catalog.Watch {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return nil, catalogError(path, err)
		}
		logger.Debug("Catalog loaded", "file", path, "roles", cat.Len())
		return &catalogRuntime{source: cat}, nil
	}

	watcher, err := catalog.NewWatcher(path, cfg.Catalog.DebounceDelay, logger)
	if err != nil {
		return nil, catalogError(path, err)
	}
	if err := watcher.Start(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to watch role catalog", err).
			WithContext("file", path)
	}
	return &catalogRuntime{source: watcher, watcher: watcher}, nil
}

func catalogError(path string, err error) error {
	code := errors.ErrCodeInvalidConfig
	var schemaErr *catalog.SchemaError
	switch {
	case stderrors.As(err, &schemaErr):
		code = errors.ErrCodeCatalogSchema
	case errors.Is(err, catalog.ErrInvalidRole):
		code = errors.ErrCodeInvalidRole
	}
	return errors.NewConfigError(code, "Failed to load role catalog", err).WithContext("file", path)
}

// observeReloads counts catalog reloads in the catalog reload metric
func (c *catalogRuntime) observeReloads(om *observability.ObservabilityManager) {
	if c.watcher == nil {
		return
	}
	c.watcher.OnReload(func(success bool, _ error) {
		om.GetMetrics().RecordBusinessMetric(context.Background(), observability.MetricCatalogReload, success, om)
	})
}

func (c *catalogRuntime) engine() *analysis.Engine {
	return analysis.NewEngine(c.source)
}

func (c *catalogRuntime) stop() {
	if c.watcher != nil {
		_ = c.watcher.Stop()
	}
}

// newObservability builds the observability manager from config
func newObservability(cfg *config.Config) (*observability.ObservabilityManager, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

func shutdownObservability(om *observability.ObservabilityManager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}

// newLoader creates the document loader with S3 support
func newLoader(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*source.Loader, error) {
	loader, err := source.NewLoader(ctx, cfg.Storage, cfg.App.MaxFileSize, logger)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to configure S3 storage", err)
	}
	return loader, nil
}

// loaderFor returns a size-limited loader for ref, S3 capable only when ref
// needs it
func loaderFor(ctx context.Context, cfg *config.Config, logger *errors.Logger, ref string) (*source.Loader, error) {
	if !strings.HasPrefix(ref, "s3://") {
		return source.NewLoaderWithClient(nil, nil, cfg.App.MaxFileSize, logger), nil
	}
	return newLoader(ctx, cfg, logger)
}
