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
	"go.opentelemetry.io/otel/trace"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

const ticketColumns = `id, tier_id, number, security_hash, price, status, purchase_id, sold_at, used_at, created_at, updated_at`

// PostgresInventoryRepository implements InventoryRepository using PostgreSQL.
// Every mutating operation runs as one transaction: the tier counter, the
// ticket rows, the date aggregate and the outbox row commit or roll back
// together.
type PostgresInventoryRepository struct {
	pool  *pgxpool.Pool
	topic string
}

// NewPostgresInventoryRepository creates a new PostgreSQL inventory repository.
// Outbox rows written by this repository target the given Kafka topic.
func NewPostgresInventoryRepository(pool *pgxpool.Pool, topic string) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{pool: pool, topic: topic}
}

// CreateTierWithPool inserts the tier and its pre-generated ticket pool in
// one transaction, then refreshes the parent date aggregate.
func (r *PostgresInventoryRepository) CreateTierWithPool(ctx context.Context, tier *domain.Tier, tickets []*domain.Ticket) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.create_tier")
	defer span.End()

	if tier.ID == "" {
		tier.ID = uuid.New().String()
	}
	now := time.Now()
	tier.CreatedAt = now
	tier.UpdatedAt = now
	tier.Available = tier.Total

	span.SetAttributes(
		attribute.String("tier_id", tier.ID),
		attribute.String("date_id", tier.DateID),
		attribute.Int("pool_size", len(tickets)),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tiers (id, date_id, name, price, total, available, position, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		tier.ID,
		tier.DateID,
		tier.Name,
		tier.Price,
		tier.Total,
		tier.Available,
		tier.Position,
		tier.Status.String(),
		tier.CreatedAt,
		tier.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create tier: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ticket := range tickets {
		if ticket.ID == "" {
			ticket.ID = uuid.New().String()
		}
		ticket.TierID = tier.ID
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		batch.Queue(`
			INSERT INTO tickets (id, tier_id, number, security_hash, price, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			ticket.ID,
			ticket.TierID,
			ticket.Number,
			ticket.SecurityHash,
			ticket.Price,
			ticket.Status.String(),
			ticket.CreatedAt,
			ticket.UpdatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to generate ticket pool: %w", err)
	}

	if err := r.recomputeDateTx(ctx, tx, tier.DateID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetTier retrieves a tier by ID, excluding soft-deleted rows
func (r *PostgresInventoryRepository) GetTier(ctx context.Context, id string) (*domain.Tier, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_tier")
	defer span.End()

	span.SetAttributes(attribute.String("tier_id", id))

	query := `
		SELECT id, date_id, name, price, total, available, position, status, created_at, updated_at, deleted_at
		FROM tiers
		WHERE id = $1 AND deleted_at IS NULL
	`

	tier, err := scanTier(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "tier not found")
			return nil, domain.ErrTierNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tier, nil
}

// ListTiersByDate retrieves all tiers of a date ordered by position
func (r *PostgresInventoryRepository) ListTiersByDate(ctx context.Context, dateID string) ([]*domain.Tier, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.list_tiers")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", dateID))

	query := `
		SELECT id, date_id, name, price, total, available, position, status, created_at, updated_at, deleted_at
		FROM tiers
		WHERE date_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, dateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []*domain.Tier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate tiers: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tiers, nil
}

// TierTotals returns the sum of tier totals and the tier count for a date.
// The capacity policy uses both when validating a tier addition.
func (r *PostgresInventoryRepository) TierTotals(ctx context.Context, dateID string) (int, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.tier_totals")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", dateID))

	query := `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM tiers
		WHERE date_id = $1 AND deleted_at IS NULL
	`

	var sum, count int
	if err := r.pool.QueryRow(ctx, query, dateID).Scan(&sum, &count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, 0, fmt.Errorf("failed to sum tier totals: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return sum, count, nil
}

// Reserve atomically claims quantity tickets from the tier. The conditional
// decrement on the tier row is the single source of truth for oversell
// protection: concurrent reservations serialize on that row lock, so the
// ticket claim below always finds exactly quantity available rows.
func (r *PostgresInventoryRepository) Reserve(ctx context.Context, tierID string, quantity int, purchaseID string) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("tier_id", tierID),
		attribute.Int("quantity", quantity),
		attribute.String("purchase_id", purchaseID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var dateID string
	var remaining int
	err = tx.QueryRow(ctx, `
		UPDATE tiers
		SET available = available - $2,
		    status = CASE WHEN available - $2 = 0 THEN 'sold_out' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status <> 'inactive' AND available >= $2
		RETURNING date_id, available
	`, tierID, quantity).Scan(&dateID, &remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyReserveFailure(ctx, tx, span, tierID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to decrement tier availability: %w", err)
	}

	rows, err := tx.Query(ctx, `
		UPDATE tickets
		SET status = 'sold', purchase_id = $3, sold_at = NOW(), updated_at = NOW()
		WHERE id IN (
			SELECT id FROM tickets
			WHERE tier_id = $1 AND status = 'available'
			ORDER BY number
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+ticketColumns,
		tierID, quantity, purchaseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to claim tickets: %w", err)
	}

	tickets, err := collectTickets(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to scan claimed tickets: %w", err)
	}
	if len(tickets) != quantity {
		err := fmt.Errorf("ticket pool out of sync for tier %s: claimed %d of %d", tierID, len(tickets), quantity)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := r.recomputeDateTx(ctx, tx, dateID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ticketIDs := make([]string, len(tickets))
	for i, t := range tickets {
		ticketIDs[i] = t.ID
	}
	if err := r.insertOutboxTx(ctx, tx, domain.EventTypeTicketsSold, tierID, purchaseID, ticketIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	span.SetAttributes(attribute.Int("remaining", remaining))
	span.SetStatus(codes.Ok, "")
	return tickets, nil
}

// classifyReserveFailure distinguishes a missing tier from an exhausted one
// after the conditional decrement matched no row.
func (r *PostgresInventoryRepository) classifyReserveFailure(ctx context.Context, tx pgx.Tx, span trace.Span, tierID string) error {
	var available int
	err := tx.QueryRow(ctx, `
		SELECT available FROM tiers WHERE id = $1 AND deleted_at IS NULL
	`, tierID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "tier not found")
			return domain.ErrTierNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to inspect tier: %w", err)
	}

	span.SetAttributes(attribute.Int("remaining", available))
	span.SetStatus(codes.Error, "insufficient inventory")
	return domain.ErrInsufficientInventory
}

// Release returns the given sold tickets to the pool, restores tier counts
// and the date aggregate, and records a release event.
func (r *PostgresInventoryRepository) Release(ctx context.Context, ticketIDs []string) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.release")
	defer span.End()

	span.SetAttributes(attribute.Int("quantity", len(ticketIDs)))

	if len(ticketIDs) == 0 {
		return nil, domain.ErrInvalidTicketID
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tickets, err := r.releaseTx(ctx, tx, ticketIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit release: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tickets, nil
}

// ReleaseByPurchase releases every sold ticket belonging to a purchase.
// Payment-failed webhooks use this path.
func (r *PostgresInventoryRepository) ReleaseByPurchase(ctx context.Context, purchaseID string) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.release_by_purchase")
	defer span.End()

	span.SetAttributes(attribute.String("purchase_id", purchaseID))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id FROM tickets WHERE purchase_id = $1 AND status = 'sold'
	`, purchaseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to find purchase tickets: %w", err)
	}
	var ticketIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan ticket id: %w", err)
		}
		ticketIDs = append(ticketIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate purchase tickets: %w", err)
	}
	if len(ticketIDs) == 0 {
		span.SetStatus(codes.Error, "no sold tickets for purchase")
		return nil, domain.ErrTicketNotFound
	}

	tickets, err := r.releaseTx(ctx, tx, ticketIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit release: %w", err)
	}

	span.SetAttributes(attribute.Int("quantity", len(tickets)))
	span.SetStatus(codes.Ok, "")
	return tickets, nil
}

// releaseTx flips sold tickets back to available inside an open transaction.
// Any ticket in the wrong state aborts the whole batch.
func (r *PostgresInventoryRepository) releaseTx(ctx context.Context, tx pgx.Tx, ticketIDs []string) ([]*domain.Ticket, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE id = ANY($1)
		ORDER BY number
		FOR UPDATE
	`, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock tickets: %w", err)
	}

	tickets, err := collectTickets(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tickets: %w", err)
	}
	if len(tickets) != len(ticketIDs) {
		return nil, domain.ErrTicketNotFound
	}

	// Apply the domain transition first so each wrong state surfaces
	// its own error before anything is written.
	for _, ticket := range tickets {
		if err := ticket.Release(); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE tickets
		SET status = 'available', purchase_id = NULL, sold_at = NULL, updated_at = NOW()
		WHERE id = ANY($1)
	`, ticketIDs); err != nil {
		return nil, fmt.Errorf("failed to release tickets: %w", err)
	}

	// One tier increment per affected tier, then one date recompute per
	// affected date.
	perTier := make(map[string]int)
	tierPurchase := make(map[string][]string)
	for i, ticket := range tickets {
		perTier[ticket.TierID]++
		tierPurchase[ticket.TierID] = append(tierPurchase[ticket.TierID], ticketIDs[i])
	}

	dates := make(map[string]struct{})
	for tierID, count := range perTier {
		var dateID string
		err := tx.QueryRow(ctx, `
			UPDATE tiers
			SET available = available + $2,
			    status = CASE WHEN status = 'sold_out' THEN 'active' ELSE status END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING date_id
		`, tierID, count).Scan(&dateID)
		if err != nil {
			return nil, fmt.Errorf("failed to restore tier availability: %w", err)
		}
		dates[dateID] = struct{}{}

		if err := r.insertOutboxTx(ctx, tx, domain.EventTypeTicketsReleased, tierID, "", tierPurchase[tierID]); err != nil {
			return nil, err
		}
	}

	for dateID := range dates {
		if err := r.recomputeDateTx(ctx, tx, dateID); err != nil {
			return nil, err
		}
	}

	return tickets, nil
}

// CheckIn resolves a ticket by its security hash and marks it used. A second
// scan of the same ticket returns the ticket context alongside
// domain.ErrTicketAlreadyUsed with the original check-in time intact.
func (r *PostgresInventoryRepository) CheckIn(ctx context.Context, securityHash string) (*domain.TicketContext, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.check_in")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT t.id, t.tier_id, t.number, t.security_hash, t.price, t.status, t.purchase_id, t.sold_at, t.used_at, t.created_at, t.updated_at,
		       tr.name, tr.date_id, d.date, d.start_time, d.event_id, e.name
		FROM tickets t
		JOIN tiers tr ON tr.id = t.tier_id
		JOIN event_dates d ON d.id = tr.date_id
		JOIN events e ON e.id = d.event_id
		WHERE t.security_hash = $1
		FOR UPDATE OF t
	`

	var ticket domain.Ticket
	var purchaseID, startTime *string
	var status string
	tc := &domain.TicketContext{Ticket: &ticket}

	err = tx.QueryRow(ctx, query, securityHash).Scan(
		&ticket.ID,
		&ticket.TierID,
		&ticket.Number,
		&ticket.SecurityHash,
		&ticket.Price,
		&status,
		&purchaseID,
		&ticket.SoldAt,
		&ticket.UsedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&tc.TierName,
		&tc.DateID,
		&tc.Date,
		&startTime,
		&tc.EventID,
		&tc.EventName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "ticket not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to resolve ticket: %w", err)
	}

	ticket.Status = domain.TicketStatus(status)
	if purchaseID != nil {
		ticket.PurchaseID = *purchaseID
	}
	if startTime != nil {
		tc.StartTime = *startTime
	}
	tc.UsedAt = ticket.UsedAt

	span.SetAttributes(
		attribute.String("ticket_id", ticket.ID),
		attribute.String("ticket_number", ticket.Number),
	)

	if err := ticket.Use(); err != nil {
		// The context still goes back so the scanner can display who
		// was denied and why.
		span.SetStatus(codes.Error, err.Error())
		return tc, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE tickets SET status = 'used', used_at = $2, updated_at = $2 WHERE id = $1
	`, ticket.ID, *ticket.UsedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to mark ticket used: %w", err)
	}

	if err := r.insertOutboxTx(ctx, tx, domain.EventTypeTicketCheckedIn, ticket.TierID, ticket.PurchaseID, []string{ticket.ID}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit check-in: %w", err)
	}

	tc.UsedAt = ticket.UsedAt
	span.SetStatus(codes.Ok, "")
	return tc, nil
}

// GetTicket retrieves a ticket by ID
func (r *PostgresInventoryRepository) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_ticket")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_id", id))

	ticket, err := scanTicket(r.pool.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "ticket not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return ticket, nil
}

// ListTicketsByPurchase retrieves all tickets of a purchase
func (r *PostgresInventoryRepository) ListTicketsByPurchase(ctx context.Context, purchaseID string) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.list_by_purchase")
	defer span.End()

	span.SetAttributes(attribute.String("purchase_id", purchaseID))

	rows, err := r.pool.Query(ctx, `
		SELECT `+ticketColumns+` FROM tickets WHERE purchase_id = $1 ORDER BY number
	`, purchaseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list purchase tickets: %w", err)
	}

	tickets, err := collectTickets(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to scan purchase tickets: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tickets, nil
}

// GetAvailability builds the live availability snapshot for an event date
func (r *PostgresInventoryRepository) GetAvailability(ctx context.Context, dateID string) (*DateAvailability, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_availability")
	defer span.End()

	span.SetAttributes(attribute.String("date_id", dateID))

	availability := &DateAvailability{DateID: dateID}

	err := r.pool.QueryRow(ctx, `
		SELECT status, available FROM event_dates WHERE id = $1 AND deleted_at IS NULL
	`, dateID).Scan(&availability.Status, &availability.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "date not found")
			return nil, domain.ErrDateNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get date availability: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, total, available, status
		FROM tiers
		WHERE date_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`, dateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tier availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ta TierAvailability
		if err := rows.Scan(&ta.TierID, &ta.Name, &ta.Price, &ta.Total, &ta.Available, &ta.Status); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan tier availability: %w", err)
		}
		availability.Total += ta.Total
		availability.Tiers = append(availability.Tiers, ta)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate tier availability: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return availability, nil
}

// recomputeDateTx refreshes the derived date aggregate from its tiers inside
// an open transaction. Cancelled dates keep their status.
func (r *PostgresInventoryRepository) recomputeDateTx(ctx context.Context, tx pgx.Tx, dateID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE event_dates d
		SET available = agg.sum_available,
		    status = CASE
		        WHEN d.status = 'cancelled' THEN d.status
		        WHEN agg.sum_available <= 0 THEN 'sold_out'
		        ELSE 'active'
		    END,
		    updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(available), 0) AS sum_available
			FROM tiers
			WHERE date_id = $1 AND deleted_at IS NULL
		) agg
		WHERE d.id = $1
	`, dateID)
	if err != nil {
		return fmt.Errorf("failed to recompute date aggregate: %w", err)
	}
	return nil
}

// insertOutboxTx writes a ticket lifecycle event into the outbox inside an
// open transaction.
func (r *PostgresInventoryRepository) insertOutboxTx(ctx context.Context, tx pgx.Tx, eventType, tierID, purchaseID string, ticketIDs []string) error {
	msg, err := domain.TicketOutboxEvent(eventType, r.topic, tierID, purchaseID, ticketIDs)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	msg.ID = uuid.New().String()

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_messages (id, aggregate_type, aggregate_id, event_type, payload, topic, partition_key, status, retry_count, max_retries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		msg.ID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Payload,
		msg.Topic,
		msg.PartitionKey,
		msg.Status.String(),
		msg.RetryCount,
		msg.MaxRetries,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}
	return nil
}

func scanTier(row pgx.Row) (*domain.Tier, error) {
	var tier domain.Tier
	var status string

	err := row.Scan(
		&tier.ID,
		&tier.DateID,
		&tier.Name,
		&tier.Price,
		&tier.Total,
		&tier.Available,
		&tier.Position,
		&status,
		&tier.CreatedAt,
		&tier.UpdatedAt,
		&tier.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	tier.Status = domain.TierStatus(status)
	return &tier, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var purchaseID *string
	var status string

	err := row.Scan(
		&ticket.ID,
		&ticket.TierID,
		&ticket.Number,
		&ticket.SecurityHash,
		&ticket.Price,
		&status,
		&purchaseID,
		&ticket.SoldAt,
		&ticket.UsedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if purchaseID != nil {
		ticket.PurchaseID = *purchaseID
	}
	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}

func collectTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}
