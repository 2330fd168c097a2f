package dto

import (
	"time"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/repository"
)

// CreateTierRequest is the request to add a tier to an event date.
// The full ticket pool is generated when the tier is created.
type CreateTierRequest struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price"`
	Total    int     `json:"total" binding:"required"`
	Position int     `json:"position"`
}

// TierResponse is the API representation of a tier
type TierResponse struct {
	ID        string  `json:"id"`
	DateID    string  `json:"date_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Total     int     `json:"total"`
	Available int     `json:"available"`
	Position  int     `json:"position"`
	Status    string  `json:"status"`
}

// ReserveRequest is the request to reserve tickets from a tier
type ReserveRequest struct {
	TierID     string `json:"tier_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	PurchaseID string `json:"purchase_id" binding:"required"`
}

// ReserveResponse is returned after a successful reservation
type ReserveResponse struct {
	PurchaseID string           `json:"purchase_id"`
	TierID     string           `json:"tier_id"`
	Quantity   int              `json:"quantity"`
	TotalPrice float64          `json:"total_price"`
	Tickets    []TicketResponse `json:"tickets"`
}

// ReleaseRequest is the request to release sold tickets back to the pool.
// Either a list of ticket IDs or a purchase ID must be given.
type ReleaseRequest struct {
	TicketIDs  []string `json:"ticket_ids"`
	PurchaseID string   `json:"purchase_id"`
}

// ReleaseResponse is returned after a successful release
type ReleaseResponse struct {
	Released int              `json:"released"`
	Tickets  []TicketResponse `json:"tickets"`
}

// CheckInRequest is the request to check a ticket in at the door
type CheckInRequest struct {
	SecurityHash string `json:"security_hash" binding:"required"`
}

// TicketResponse is the API representation of a ticket
type TicketResponse struct {
	ID           string     `json:"id"`
	TierID       string     `json:"tier_id"`
	Number       string     `json:"number"`
	SecurityHash string     `json:"security_hash,omitempty"`
	Price        float64    `json:"price"`
	Status       string     `json:"status"`
	PurchaseID   string     `json:"purchase_id,omitempty"`
	SoldAt       *time.Time `json:"sold_at,omitempty"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
}

// CheckInResponse is the door scanner view of a checked-in ticket
type CheckInResponse struct {
	Ticket    TicketResponse `json:"ticket"`
	TierName  string         `json:"tier_name"`
	EventID   string         `json:"event_id"`
	EventName string         `json:"event_name"`
	DateID    string         `json:"date_id"`
	Date      time.Time      `json:"date"`
	StartTime string         `json:"start_time,omitempty"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
}

// AvailabilityResponse is the cached availability snapshot of a date
type AvailabilityResponse struct {
	DateID    string                        `json:"date_id"`
	Status    string                        `json:"status"`
	Total     int                           `json:"total"`
	Available int                           `json:"available"`
	Tiers     []repository.TierAvailability `json:"tiers"`
}

// PaymentWebhookRequest is the payload the payment provider posts back
type PaymentWebhookRequest struct {
	PurchaseID string `json:"purchase_id" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Reference  string `json:"reference"`
}

// TierFromDomain maps a domain tier to its API representation
func TierFromDomain(tier *domain.Tier) *TierResponse {
	return &TierResponse{
		ID:        tier.ID,
		DateID:    tier.DateID,
		Name:      tier.Name,
		Price:     tier.Price,
		Total:     tier.Total,
		Available: tier.Available,
		Position:  tier.Position,
		Status:    tier.Status.String(),
	}
}

// TicketFromDomain maps a domain ticket to its API representation
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           ticket.ID,
		TierID:       ticket.TierID,
		Number:       ticket.Number,
		SecurityHash: ticket.SecurityHash,
		Price:        ticket.Price,
		Status:       ticket.Status.String(),
		PurchaseID:   ticket.PurchaseID,
		SoldAt:       ticket.SoldAt,
		UsedAt:       ticket.UsedAt,
	}
}

// CheckInFromDomain maps a ticket context to the scanner response
func CheckInFromDomain(tc *domain.TicketContext) *CheckInResponse {
	return &CheckInResponse{
		Ticket:    TicketFromDomain(tc.Ticket),
		TierName:  tc.TierName,
		EventID:   tc.EventID,
		EventName: tc.EventName,
		DateID:    tc.DateID,
		Date:      tc.Date,
		StartTime: tc.StartTime,
		UsedAt:    tc.UsedAt,
	}
}

// AvailabilityFromSnapshot maps a repository snapshot to the API response
func AvailabilityFromSnapshot(a *repository.DateAvailability) *AvailabilityResponse {
	return &AvailabilityResponse{
		DateID:    a.DateID,
		Status:    a.Status,
		Total:     a.Total,
		Available: a.Available,
		Tiers:     a.Tiers,
	}
}
