package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// Publisher delivers job results
type Publisher interface {
	Publish(ctx context.Context, result types.JobResult) error
}

// Worker consumes analysis jobs with a fixed number of concurrent consumers
type Worker struct {
	cfg       config.QueueConfig
	processor *Processor
	logger    *errors.Logger
}

// NewWorker creates a worker for the configured queue
func NewWorker(cfg config.QueueConfig, processor *Processor, logger *errors.Logger) *Worker {
	return &Worker{cfg: cfg, processor: processor, logger: logger}
}

// Run connects to the broker and consumes until ctx is cancelled or a
// consumer fails.
func (w *Worker) Run(ctx context.Context) error {
	conn, err := amqp.Dial(w.cfg.URL)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to connect to message broker", err)
	}
	defer func() {
		if err := conn.Close(); err != nil && err != amqp.ErrClosed {
			w.logger.Warn("Failed to close broker connection", "error", err)
		}
	}()

	if err := w.declareTopology(conn); err != nil {
		return err
	}

	w.logger.Info("Queue worker started",
		"queue", w.cfg.Queue,
		"exchange", w.cfg.Exchange,
		"concurrency", w.cfg.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := range w.cfg.Concurrency {
		g.Go(func() error {
			return w.consume(gctx, conn, i+1)
		})
	}

	err = g.Wait()
	w.logger.Info("Queue worker stopped")
	return err
}

// declareTopology declares the durable job queue and the result exchange
func (w *Worker) declareTopology(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to open channel", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		w.cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to declare queue", err).
			WithContext("queue", w.cfg.Queue)
	}

	if err := ch.ExchangeDeclare(
		w.cfg.Exchange,
		w.cfg.ExchangeType,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to declare exchange", err).
			WithContext("exchange", w.cfg.Exchange)
	}
	return nil
}

// consume runs one consumer on its own channel
func (w *Worker) consume(ctx context.Context, conn *amqp.Connection, id int) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to open channel", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(w.cfg.Prefetch, 0, false); err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to set prefetch", err)
	}

	tag := fmt.Sprintf("resumatch-worker-%d", id)
	deliveries, err := ch.Consume(
		w.cfg.Queue,
		tag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Failed to start consuming", err).
			WithContext("consumer", tag)
	}

	publisher := &channelPublisher{ch: ch, exchange: w.cfg.Exchange, routingKey: w.cfg.RoutingKey}
	logger := w.logger.With("consumer", tag)
	logger.Debug("Consumer started")

	for {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(tag, false); err != nil {
				logger.Debug("Failed to cancel consumer", "error", err)
			}
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.NewNetworkError(errors.ErrCodeQueueFailed, "Delivery channel closed by broker", nil).
					WithContext("consumer", tag)
			}
			handleDelivery(ctx, d, w.processor, publisher, logger)
		}
	}
}

// handleDelivery processes one delivery, publishes its result and settles it:
// ack once the result is published, nack without requeue for malformed jobs,
// nack with requeue when the result could not be published. A job whose
// document could not be fetched is requeued once without publishing; on
// redelivery its failed result is published and acked.
func handleDelivery(ctx context.Context, d amqp.Delivery, processor *Processor, publisher Publisher, logger *errors.Logger) {
	result, procErr := processor.Process(ctx, d.Body)
	malformed := errors.Is(procErr, ErrMalformedJob)

	if errors.Is(procErr, ErrTransientFailure) && !d.Redelivered {
		logger.Warn("Requeueing job after transient failure", "job_id", result.JobID, "error", procErr.Error())
		if err := d.Nack(false, true); err != nil {
			logger.LogError(err, "Failed to nack delivery", "job_id", result.JobID)
		}
		return
	}

	if err := publisher.Publish(ctx, result); err != nil {
		logger.LogError(err, "Failed to publish job result", "job_id", result.JobID)
		if nackErr := d.Nack(false, !malformed); nackErr != nil {
			logger.LogError(nackErr, "Failed to nack delivery", "job_id", result.JobID)
		}
		return
	}

	if malformed {
		logger.Warn("Rejected malformed job", "job_id", result.JobID, "error", procErr.Error())
		if err := d.Nack(false, false); err != nil {
			logger.LogError(err, "Failed to nack delivery", "job_id", result.JobID)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.LogError(err, "Failed to ack delivery", "job_id", result.JobID)
	}
}

// channelPublisher publishes results to the result exchange under
// <routingKey>.<status>
type channelPublisher struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func (p *channelPublisher) Publish(_ context.Context, result types.JobResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeQueueFailed, "Failed to marshal job result", err).
			WithContext("job_id", result.JobID)
	}

	return p.ch.Publish(
		p.exchange,
		ResultRoutingKey(p.routingKey, result.Status),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: result.JobID,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
}

// ResultRoutingKey is the routing key a result with status is published under
func ResultRoutingKey(prefix, status string) string {
	if prefix == "" {
		return status
	}
	return prefix + "." + status
}
