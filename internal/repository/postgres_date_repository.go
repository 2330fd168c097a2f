package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

// PostgresDateRepository implements DateRepository using PostgreSQL
type PostgresDateRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDateRepository creates a new PostgreSQL date repository
func NewPostgresDateRepository(pool *pgxpool.Pool) *PostgresDateRepository {
	return &PostgresDateRepository{pool: pool}
}

// Create inserts a new event date
func (r *PostgresDateRepository) Create(ctx context.Context, date *domain.EventDate) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.date.create")
	defer span.End()

	if date.ID == "" {
		date.ID = uuid.New().String()
	}
	now := time.Now()
	date.CreatedAt = now
	date.UpdatedAt = now

	span.SetAttributes(
		attribute.String("date_id", date.ID),
		attribute.String("event_id", date.EventID),
		attribute.Int("capacity", date.Capacity),
	)

	query := `
		INSERT INTO event_dates (id, event_id, date, start_time, end_time, capacity, available, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		date.ID,
		date.EventID,
		date.Date,
		nullString(date.StartTime),
		nullString(date.EndTime),
		date.Capacity,
		date.Available,
		date.Status.String(),
		date.CreatedAt,
		date.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create event date: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an event date by ID, excluding soft-deleted rows
func (r *PostgresDateRepository) GetByID(ctx context.Context, id string) (*domain.EventDate, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.date.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", id))

	query := `
		SELECT id, event_id, date, start_time, end_time, capacity, available, status, created_at, updated_at, deleted_at
		FROM event_dates
		WHERE id = $1 AND deleted_at IS NULL
	`

	date, err := scanDate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "date not found")
			return nil, domain.ErrDateNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event date: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return date, nil
}

// ListByEvent retrieves all dates of an event in chronological order
func (r *PostgresDateRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.EventDate, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.date.list_by_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := `
		SELECT id, event_id, date, start_time, end_time, capacity, available, status, created_at, updated_at, deleted_at
		FROM event_dates
		WHERE event_id = $1 AND deleted_at IS NULL
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list event dates: %w", err)
	}
	defer rows.Close()

	var dates []*domain.EventDate
	for rows.Next() {
		date, err := scanDate(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan event date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate event dates: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(dates)))
	span.SetStatus(codes.Ok, "")
	return dates, nil
}

// Update persists mutable date fields
func (r *PostgresDateRepository) Update(ctx context.Context, date *domain.EventDate) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.date.update")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", date.ID))

	date.UpdatedAt = time.Now()

	query := `
		UPDATE event_dates
		SET date = $2, start_time = $3, end_time = $4, status = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query,
		date.ID,
		date.Date,
		nullString(date.StartTime),
		nullString(date.EndTime),
		date.Status.String(),
		date.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update event date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "date not found")
		return domain.ErrDateNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SoftDelete marks an event date as deleted
func (r *PostgresDateRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.date.soft_delete")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", id))

	query := `
		UPDATE event_dates
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to soft delete event date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "date not found")
		return domain.ErrDateNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SoldCount counts tickets of the date that left the pool and were not
// returned: sold and used tickets both block date deletion.
func (r *PostgresDateRepository) SoldCount(ctx context.Context, dateID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.date.sold_count")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", dateID))

	query := `
		SELECT COUNT(*)
		FROM tickets t
		JOIN tiers tr ON tr.id = t.tier_id
		WHERE tr.date_id = $1 AND t.status IN ($2, $3)
	`

	var count int
	err := r.pool.QueryRow(ctx, query, dateID,
		domain.TicketStatusSold.String(),
		domain.TicketStatusUsed.String(),
	).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}

func scanDate(row pgx.Row) (*domain.EventDate, error) {
	var date domain.EventDate
	var startTime, endTime *string
	var status string

	err := row.Scan(
		&date.ID,
		&date.EventID,
		&date.Date,
		&startTime,
		&endTime,
		&date.Capacity,
		&date.Available,
		&status,
		&date.CreatedAt,
		&date.UpdatedAt,
		&date.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if startTime != nil {
		date.StartTime = *startTime
	}
	if endTime != nil {
		date.EndTime = *endTime
	}
	date.Status = domain.DateStatus(status)

	return &date, nil
}
