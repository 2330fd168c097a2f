package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, payload, topic, partition_key, status, retry_count, max_retries, last_error, created_at, processed_at, published_at`

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL.
// Rows are inserted by the inventory repository inside its transactions;
// this repository serves the publisher worker.
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new PostgreSQL outbox repository
func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

// GetPendingMessages retrieves pending messages in insertion order
func (r *PostgresOutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.get_pending")
	defer span.End()

	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_messages
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`

	messages, err := r.queryMessages(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(messages)))
	span.SetStatus(codes.Ok, "")
	return messages, nil
}

// GetFailedMessages retrieves failed messages that still have retries left
func (r *PostgresOutboxRepository) GetFailedMessages(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.get_failed")
	defer span.End()

	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_messages
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
	`

	messages, err := r.queryMessages(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get failed messages: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(messages)))
	span.SetStatus(codes.Ok, "")
	return messages, nil
}

// MarkAsPublished marks a message as successfully published
func (r *PostgresOutboxRepository) MarkAsPublished(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.mark_published")
	defer span.End()

	span.SetAttributes(attribute.String("message_id", id))

	query := `
		UPDATE outbox_messages
		SET status = 'published', published_at = NOW(), processed_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark message published: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkAsFailed records a publish failure and bumps the retry count
func (r *PostgresOutboxRepository) MarkAsFailed(ctx context.Context, id string, errMsg string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.mark_failed")
	defer span.End()

	span.SetAttributes(attribute.String("message_id", id))

	query := `
		UPDATE outbox_messages
		SET status = 'failed', last_error = $2, retry_count = retry_count + 1, processed_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, errMsg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark message failed: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ResetForRetry moves a failed message back to pending
func (r *PostgresOutboxRepository) ResetForRetry(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.reset_for_retry")
	defer span.End()

	span.SetAttributes(attribute.String("message_id", id))

	query := `
		UPDATE outbox_messages
		SET status = 'pending', processed_at = NULL
		WHERE id = $1 AND status = 'failed' AND retry_count < max_retries
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to reset message: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeletePublishedBefore removes published messages older than the cutoff
func (r *PostgresOutboxRepository) DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.cleanup")
	defer span.End()

	query := `
		DELETE FROM outbox_messages
		WHERE status = 'published' AND published_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to clean up outbox: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted", tag.RowsAffected()))
	span.SetStatus(codes.Ok, "")
	return tag.RowsAffected(), nil
}

func (r *PostgresOutboxRepository) queryMessages(ctx context.Context, query string, limit int) ([]*domain.OutboxMessage, error) {
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.OutboxMessage
	for rows.Next() {
		msg, err := scanOutboxMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanOutboxMessage(row pgx.Row) (*domain.OutboxMessage, error) {
	var msg domain.OutboxMessage
	var lastError *string
	var status string

	err := row.Scan(
		&msg.ID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.EventType,
		&msg.Payload,
		&msg.Topic,
		&msg.PartitionKey,
		&status,
		&msg.RetryCount,
		&msg.MaxRetries,
		&lastError,
		&msg.CreatedAt,
		&msg.ProcessedAt,
		&msg.PublishedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastError != nil {
		msg.LastError = *lastError
	}
	msg.Status = domain.OutboxStatus(status)
	return &msg, nil
}
