package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/repository"
	"github.com/arjul1989/gradanegra-sub001/pkg/kafka"
	"github.com/arjul1989/gradanegra-sub001/pkg/logger"
)

// Publisher abstracts the Kafka producer so the worker can be tested
// without a broker.
type Publisher interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polls for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages fetched per poll
	BatchSize int
	// RetryInterval is the interval between retry sweeps over failed messages
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanup sweeps
	CleanupInterval time.Duration
	// Retention is how long published messages are kept
	Retention time.Duration
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:    100 * time.Millisecond,
		BatchSize:       100,
		RetryInterval:   5 * time.Second,
		CleanupInterval: 1 * time.Hour,
		Retention:       7 * 24 * time.Hour,
	}
}

// OutboxWorker polls the outbox table and publishes ticket lifecycle events
// to Kafka. Rows that keep failing stay in the table with their retry count
// and last error, so nothing is lost when the broker is down.
type OutboxWorker struct {
	outbox   repository.OutboxRepository
	producer Publisher
	config   *OutboxWorkerConfig
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(outbox repository.OutboxRepository, producer Publisher, config *OutboxWorkerConfig) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}
	return &OutboxWorker{
		outbox:   outbox,
		producer: producer,
		config:   config,
		log:      logger.Get(),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the poll, retry and cleanup loops
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("starting outbox worker")

	w.loop(ctx, w.config.PollInterval, func(ctx context.Context) {
		w.ProcessPending(ctx)
	})
	w.loop(ctx, w.config.RetryInterval, func(ctx context.Context) {
		w.ProcessFailed(ctx)
	})
	w.loop(ctx, w.config.CleanupInterval, func(ctx context.Context) {
		w.Cleanup(ctx)
	})

	return nil
}

// Stop stops the worker and waits for its loops to drain
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox worker stopped")
}

func (w *OutboxWorker) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// ProcessPending publishes one batch of pending messages. Exported so a
// deployment without the background loops can drive it on its own schedule.
func (w *OutboxWorker) ProcessPending(ctx context.Context) int {
	messages, err := w.outbox.GetPendingMessages(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("failed to fetch pending outbox messages", zap.Error(err))
		return 0
	}
	return w.publishBatch(ctx, messages)
}

// ProcessFailed retries one batch of failed messages that still have
// retries left.
func (w *OutboxWorker) ProcessFailed(ctx context.Context) int {
	messages, err := w.outbox.GetFailedMessages(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("failed to fetch failed outbox messages", zap.Error(err))
		return 0
	}
	return w.publishBatch(ctx, messages)
}

// Cleanup deletes published messages older than the retention window
func (w *OutboxWorker) Cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-w.config.Retention)
	deleted, err := w.outbox.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		w.log.Error("outbox cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("cleaned up published outbox messages", zap.Int64("deleted", deleted))
	}
}

func (w *OutboxWorker) publishBatch(ctx context.Context, messages []*domain.OutboxMessage) int {
	published := 0
	for _, msg := range messages {
		if err := w.publish(ctx, msg); err != nil {
			w.log.Error("failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("event_type", msg.EventType),
				zap.Int("retry_count", msg.RetryCount),
				zap.Error(err),
			)
			if markErr := w.outbox.MarkAsFailed(ctx, msg.ID, err.Error()); markErr != nil {
				w.log.Error("failed to mark outbox message failed", zap.String("message_id", msg.ID), zap.Error(markErr))
			}
			continue
		}
		if markErr := w.outbox.MarkAsPublished(ctx, msg.ID); markErr != nil {
			w.log.Error("failed to mark outbox message published", zap.String("message_id", msg.ID), zap.Error(markErr))
			continue
		}
		published++
	}
	return published
}

func (w *OutboxWorker) publish(ctx context.Context, msg *domain.OutboxMessage) error {
	return w.producer.Produce(ctx, &kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.PartitionKey),
		Value: msg.Payload,
		Headers: map[string]string{
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID,
			"content_type":   "application/json",
			"source":         "outbox-worker",
		},
		Timestamp: time.Now(),
	})
}
