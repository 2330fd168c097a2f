package domain

import (
	"strings"
	"time"
)

// EventStatus represents the lifecycle status of an event
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusPaused    EventStatus = "paused"
	EventStatusFinished  EventStatus = "finished"
	EventStatusCancelled EventStatus = "cancelled"
)

// IsValid checks if the status is a valid EventStatus
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusActive, EventStatusPaused, EventStatusFinished, EventStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of EventStatus
func (s EventStatus) String() string {
	return string(s)
}

// Event represents an event listing owned by an organizer
type Event struct {
	ID          string      `json:"id"`
	OrganizerID string      `json:"organizer_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	City        string      `json:"city,omitempty"`
	Venue       string      `json:"venue,omitempty"`
	Status      EventStatus `json:"status"`
	Featured    bool        `json:"featured"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
}

// Validate validates all event fields
func (e *Event) Validate() error {
	if strings.TrimSpace(e.OrganizerID) == "" {
		return ErrInvalidOrganizerID
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrInvalidEventName
	}
	if !e.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive checks if the event is active
func (e *Event) IsActive() bool {
	return e.Status == EventStatusActive && e.DeletedAt == nil
}

// IsDeleted checks if the event is soft-deleted
func (e *Event) IsDeleted() bool {
	return e.DeletedAt != nil
}

// ChangeStatus transitions the event to a new status
func (e *Event) ChangeStatus(status EventStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	if e.Status == EventStatusCancelled || e.Status == EventStatusFinished {
		// Terminal states
		return ErrIllegalTransition
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

// Feature marks the event as featured
func (e *Event) Feature() error {
	if !e.IsActive() {
		return ErrEventNotActive
	}
	e.Featured = true
	e.UpdatedAt = time.Now()
	return nil
}

// Unfeature clears the featured flag
func (e *Event) Unfeature() {
	e.Featured = false
	e.UpdatedAt = time.Now()
}

// SoftDelete marks the event as deleted without removing it
func (e *Event) SoftDelete() {
	now := time.Now()
	e.DeletedAt = &now
	e.UpdatedAt = now
}

// BelongsTo checks if the event belongs to the specified organizer
func (e *Event) BelongsTo(organizerID string) bool {
	return e.OrganizerID == organizerID
}
