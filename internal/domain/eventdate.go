package domain

import (
	"strings"
	"time"
)

// DateStatus represents the availability status of an event date
type DateStatus string

const (
	DateStatusActive    DateStatus = "active"
	DateStatusSoldOut   DateStatus = "sold_out"
	DateStatusCancelled DateStatus = "cancelled"
)

// IsValid checks if the status is a valid DateStatus
func (s DateStatus) IsValid() bool {
	switch s {
	case DateStatusActive, DateStatusSoldOut, DateStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DateStatus
func (s DateStatus) String() string {
	return string(s)
}

const (
	// MinCapacity is the smallest valid event date capacity
	MinCapacity = 1
	// MaxCapacity is the largest valid event date capacity
	MaxCapacity = 1000
	// MaxTiersPerDate caps the number of tiers a single date may carry
	MaxTiersPerDate = 10
)

// EventDate represents one occurrence of an event.
// Available is derived: it always equals the sum of its tiers' available counts.
type EventDate struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Date      time.Time  `json:"date"`
	StartTime string     `json:"start_time,omitempty"`
	EndTime   string     `json:"end_time,omitempty"`
	Capacity  int        `json:"capacity"`
	Available int        `json:"available"`
	Status    DateStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Validate validates all event date fields
func (d *EventDate) Validate() error {
	if strings.TrimSpace(d.EventID) == "" {
		return ErrInvalidEventID
	}
	if d.Capacity < MinCapacity || d.Capacity > MaxCapacity {
		return ErrInvalidCapacity
	}
	if !d.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive checks if the date is open for sales
func (d *EventDate) IsActive() bool {
	return d.Status == DateStatusActive && d.DeletedAt == nil
}

// IsSoldOut checks if the date has no availability left
func (d *EventDate) IsSoldOut() bool {
	return d.Status == DateStatusSoldOut
}

// Recompute applies a fresh availability sum and flips the status between
// active and sold_out accordingly. Cancelled dates never flip back.
func (d *EventDate) Recompute(available int) {
	d.Available = available
	if d.Status == DateStatusCancelled {
		return
	}
	if available <= 0 {
		d.Status = DateStatusSoldOut
	} else {
		d.Status = DateStatusActive
	}
	d.UpdatedAt = time.Now()
}

// CanDelete reports whether the date may be soft-deleted.
// A date with sold tickets is never deletable.
func (d *EventDate) CanDelete(soldCount int) bool {
	return soldCount == 0
}

// SoftDelete marks the date as deleted without removing it
func (d *EventDate) SoftDelete() {
	now := time.Now()
	d.DeletedAt = &now
	d.UpdatedAt = now
}
