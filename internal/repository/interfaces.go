package repository

import (
	"context"
	"time"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
)

// EventRepository defines persistence operations for events
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	SoftDelete(ctx context.Context, id string) error
	CountActiveByOrganizer(ctx context.Context, organizerID string) (int, error)
	CountFeaturedByOrganizer(ctx context.Context, organizerID string) (int, error)
}

// EventFilter narrows event listings
type EventFilter struct {
	OrganizerID string
	City        string
	Status      domain.EventStatus
	Featured    *bool
	Limit       int
	Offset      int
}

// DateRepository defines persistence operations for event dates
type DateRepository interface {
	Create(ctx context.Context, date *domain.EventDate) error
	GetByID(ctx context.Context, id string) (*domain.EventDate, error)
	ListByEvent(ctx context.Context, eventID string) ([]*domain.EventDate, error)
	Update(ctx context.Context, date *domain.EventDate) error
	SoftDelete(ctx context.Context, id string) error
	SoldCount(ctx context.Context, dateID string) (int, error)
}

// TierAvailability is one tier's slice of a date availability snapshot
type TierAvailability struct {
	TierID    string  `json:"tier_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Total     int     `json:"total"`
	Available int     `json:"available"`
	Status    string  `json:"status"`
}

// DateAvailability is the aggregated availability for an event date
type DateAvailability struct {
	DateID    string             `json:"date_id"`
	Status    string             `json:"status"`
	Total     int                `json:"total"`
	Available int                `json:"available"`
	Tiers     []TierAvailability `json:"tiers"`
}

// InventoryRepository owns tiers and their pre-generated ticket pools.
// Reserve, Release and CheckIn each run as a single transaction that also
// recomputes the parent date aggregate and writes the outbox row.
type InventoryRepository interface {
	// CreateTierWithPool persists the tier and its full ticket pool atomically
	CreateTierWithPool(ctx context.Context, tier *domain.Tier, tickets []*domain.Ticket) error
	GetTier(ctx context.Context, id string) (*domain.Tier, error)
	ListTiersByDate(ctx context.Context, dateID string) ([]*domain.Tier, error)
	TierTotals(ctx context.Context, dateID string) (sum int, count int, err error)

	// Reserve atomically decrements tier availability and claims exactly
	// quantity tickets for the purchase. Fails with
	// domain.ErrInsufficientInventory when fewer than quantity remain.
	Reserve(ctx context.Context, tierID string, quantity int, purchaseID string) ([]*domain.Ticket, error)

	// Release returns sold tickets to the pool
	Release(ctx context.Context, ticketIDs []string) ([]*domain.Ticket, error)
	// ReleaseByPurchase releases every sold ticket of a purchase
	ReleaseByPurchase(ctx context.Context, purchaseID string) ([]*domain.Ticket, error)

	// CheckIn validates a security hash and flips the ticket to used
	CheckIn(ctx context.Context, securityHash string) (*domain.TicketContext, error)

	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	ListTicketsByPurchase(ctx context.Context, purchaseID string) ([]*domain.Ticket, error)

	// GetAvailability aggregates live availability for an event date
	GetAvailability(ctx context.Context, dateID string) (*DateAvailability, error)
}

// CounterRepository hands out year-scoped ticket number sequences
type CounterRepository interface {
	// NextBlock reserves count sequence numbers for (prefix, year) and
	// returns the first number of the block
	NextBlock(ctx context.Context, prefix string, year int, count int) (int64, error)
}

// OutboxRepository defines persistence operations for outbox messages
type OutboxRepository interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)
	GetFailedMessages(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)
	MarkAsPublished(ctx context.Context, id string) error
	MarkAsFailed(ctx context.Context, id string, errMsg string) error
	ResetForRetry(ctx context.Context, id string) error
	DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error)
}

// AvailabilityCache caches per-date availability snapshots
type AvailabilityCache interface {
	Get(ctx context.Context, dateID string) (*DateAvailability, error)
	Set(ctx context.Context, availability *DateAvailability) error
	Invalidate(ctx context.Context, dateID string) error
}
