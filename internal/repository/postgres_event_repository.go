package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create inserts a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("organizer_id", event.OrganizerID),
	)

	query := `
		INSERT INTO events (id, organizer_id, name, description, city, venue, status, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.OrganizerID,
		event.Name,
		nullString(event.Description),
		nullString(event.City),
		nullString(event.Venue),
		event.Status.String(),
		event.Featured,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an event by ID, excluding soft-deleted rows
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `
		SELECT id, organizer_id, name, description, city, venue, status, featured, created_at, updated_at, deleted_at
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "event not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// List retrieves events matching the filter, newest first
func (r *PostgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list")
	defer span.End()

	conditions := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if filter.OrganizerID != "" {
		args = append(args, filter.OrganizerID)
		conditions = append(conditions, "organizer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, "city = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status.String())
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conditions = append(conditions, "featured = $"+strconv.Itoa(len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	limitClause := " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	limitClause += " OFFSET $" + strconv.Itoa(len(args))

	query := `
		SELECT id, organizer_id, name, description, city, venue, status, featured, created_at, updated_at, deleted_at
		FROM events
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY created_at DESC` + limitClause

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, nil
}

// Update persists mutable event fields
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	event.UpdatedAt = time.Now()

	query := `
		UPDATE events
		SET name = $2, description = $3, city = $4, venue = $5, status = $6, featured = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Name,
		nullString(event.Description),
		nullString(event.City),
		nullString(event.Venue),
		event.Status.String(),
		event.Featured,
		event.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "event not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SoftDelete marks an event as deleted
func (r *PostgresEventRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.soft_delete")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `
		UPDATE events
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to soft delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "event not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// CountActiveByOrganizer counts non-deleted active events owned by the organizer
func (r *PostgresEventRepository) CountActiveByOrganizer(ctx context.Context, organizerID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.count_active")
	defer span.End()

	span.SetAttributes(attribute.String("organizer_id", organizerID))

	query := `
		SELECT COUNT(*)
		FROM events
		WHERE organizer_id = $1 AND status = $2 AND deleted_at IS NULL
	`

	var count int
	err := r.pool.QueryRow(ctx, query, organizerID, domain.EventStatusActive.String()).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count active events: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}

// CountFeaturedByOrganizer counts non-deleted featured events owned by the organizer
func (r *PostgresEventRepository) CountFeaturedByOrganizer(ctx context.Context, organizerID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.count_featured")
	defer span.End()

	span.SetAttributes(attribute.String("organizer_id", organizerID))

	query := `
		SELECT COUNT(*)
		FROM events
		WHERE organizer_id = $1 AND featured = TRUE AND deleted_at IS NULL
	`

	var count int
	err := r.pool.QueryRow(ctx, query, organizerID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count featured events: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	var description, city, venue *string
	var status string

	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&description,
		&city,
		&venue,
		&status,
		&event.Featured,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		event.Description = *description
	}
	if city != nil {
		event.City = *city
	}
	if venue != nil {
		event.Venue = *venue
	}
	event.Status = domain.EventStatus(status)

	return &event, nil
}

// nullString maps empty strings to NULL
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
