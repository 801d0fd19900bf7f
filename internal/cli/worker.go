package cli

import (
	"resumatch/internal/errors"
	"resumatch/internal/queue"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from a RabbitMQ queue",
	Long: `Consume analysis jobs from the configured AMQP queue and publish one
result per job to the configured exchange.

A job carries resume text or an s3:// source and an optional role. Jobs
without a role are analyzed against the best fitting role. Results are
routed as <routingKey>.completed or <routingKey>.failed.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

var workerConcurrency int

func init() {
	workerCmd.Flags().IntVarP(&workerConcurrency, "concurrency", "c", 0, "Number of concurrent consumers (default from config)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if cfg.Queue.URL == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "queue.url is required to run the worker", nil)
	}
	queueCfg := cfg.Queue
	if workerConcurrency > 0 {
		queueCfg.Concurrency = workerConcurrency
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

	processor := queue.NewProcessor(rt.engine(), loader, om, logger)
	return queue.NewWorker(queueCfg, processor, logger).Run(ctx)
}
