package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arjul1989/gradanegra-sub001/pkg/retry"
	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

// PostgresCounterRepository implements CounterRepository using a single
// upsert-increment per block. The counter row is hot under load, so the
// increment is retried with jittered backoff.
type PostgresCounterRepository struct {
	pool    *pgxpool.Pool
	retrier *retry.Retrier
}

// NewPostgresCounterRepository creates a new PostgreSQL counter repository
func NewPostgresCounterRepository(pool *pgxpool.Pool) *PostgresCounterRepository {
	return &PostgresCounterRepository{
		pool:    pool,
		retrier: retry.New(retry.DefaultConfig()),
	}
}

// NextBlock reserves count sequence numbers for (prefix, year) and returns
// the first number of the block. Gaps from later rollbacks are acceptable;
// numbers are never reused.
func (r *PostgresCounterRepository) NextBlock(ctx context.Context, prefix string, year int, count int) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.counter.next_block")
	defer span.End()

	span.SetAttributes(
		attribute.String("prefix", prefix),
		attribute.Int("year", year),
		attribute.Int("count", count),
	)

	if count <= 0 {
		return 0, fmt.Errorf("counter block size must be positive, got %d", count)
	}

	query := `
		INSERT INTO ticket_counters (prefix, year, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (prefix, year)
		DO UPDATE SET value = ticket_counters.value + $3, updated_at = NOW()
		RETURNING value
	`

	var end int64
	result := r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.pool.QueryRow(ctx, query, prefix, year, count).Scan(&end)
	})
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		span.SetAttributes(attribute.Int("attempts", result.Attempts))
		return 0, fmt.Errorf("failed to advance ticket counter: %w", result.Err)
	}

	start := end - int64(count) + 1
	span.SetAttributes(attribute.Int64("block_start", start))
	span.SetStatus(codes.Ok, "")
	return start, nil
}
