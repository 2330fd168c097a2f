package domain

import (
	"fmt"
	"time"
)

// TicketStatus represents the status of an individual ticket
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusSold      TicketStatus = "sold"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// IsValid checks if the status is a valid TicketStatus
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusAvailable, TicketStatusSold, TicketStatusUsed, TicketStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TicketStatus
func (s TicketStatus) String() string {
	return string(s)
}

// Ticket represents a single admission unit. Tickets are pre-generated when
// a tier is created, so the pool size is fixed up front.
type Ticket struct {
	ID           string       `json:"id"`
	TierID       string       `json:"tier_id"`
	Number       string       `json:"number"`
	SecurityHash string       `json:"security_hash"`
	Price        float64      `json:"price"`
	Status       TicketStatus `json:"status"`
	PurchaseID   string       `json:"purchase_id,omitempty"`
	SoldAt       *time.Time   `json:"sold_at,omitempty"`
	UsedAt       *time.Time   `json:"used_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FormatTicketNumber builds the printable ticket number: PREFIX-YEAR-NNNNNN
func FormatTicketNumber(prefix string, year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, sequence)
}

// IsAvailable checks if the ticket can still be sold
func (t *Ticket) IsAvailable() bool {
	return t.Status == TicketStatusAvailable
}

// IsSold checks if the ticket is sold and not yet used
func (t *Ticket) IsSold() bool {
	return t.Status == TicketStatusSold
}

// IsUsed checks if the ticket has been checked in
func (t *Ticket) IsUsed() bool {
	return t.Status == TicketStatusUsed
}

// Sell transitions the ticket from available to sold
func (t *Ticket) Sell(purchaseID string) error {
	if purchaseID == "" {
		return ErrInvalidPurchaseID
	}
	if t.Status != TicketStatusAvailable {
		return ErrIllegalTransition
	}
	now := time.Now()
	t.Status = TicketStatusSold
	t.PurchaseID = purchaseID
	t.SoldAt = &now
	t.UpdatedAt = now
	return nil
}

// Use transitions the ticket from sold to used. Used is terminal.
// Each other state maps to its own rejection so a scanner can tell
// a double scan from a refunded or never-sold ticket.
func (t *Ticket) Use() error {
	switch t.Status {
	case TicketStatusSold:
		now := time.Now()
		t.Status = TicketStatusUsed
		t.UsedAt = &now
		t.UpdatedAt = now
		return nil
	case TicketStatusUsed:
		return ErrTicketAlreadyUsed
	case TicketStatusCancelled:
		return ErrTicketCancelled
	case TicketStatusAvailable:
		return ErrTicketNotSold
	default:
		return ErrInvalidStatus
	}
}

// Release returns a sold ticket to the available pool
func (t *Ticket) Release() error {
	switch t.Status {
	case TicketStatusSold:
		t.Status = TicketStatusAvailable
		t.PurchaseID = ""
		t.SoldAt = nil
		t.UpdatedAt = time.Now()
		return nil
	case TicketStatusAvailable:
		return ErrTicketAlreadyReleased
	case TicketStatusUsed:
		return ErrIllegalTransition
	case TicketStatusCancelled:
		return ErrTicketCancelled
	default:
		return ErrInvalidStatus
	}
}

// Cancel voids a sold ticket without returning it to the pool
func (t *Ticket) Cancel() error {
	if t.Status != TicketStatusSold {
		return ErrIllegalTransition
	}
	t.Status = TicketStatusCancelled
	t.UpdatedAt = time.Now()
	return nil
}

// TicketContext is the denormalized view returned on check-in so the
// door scanner can display everything in one round trip.
type TicketContext struct {
	Ticket    *Ticket    `json:"ticket"`
	TierName  string     `json:"tier_name"`
	EventID   string     `json:"event_id"`
	EventName string     `json:"event_name"`
	DateID    string     `json:"date_id"`
	Date      time.Time  `json:"date"`
	StartTime string     `json:"start_time,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
