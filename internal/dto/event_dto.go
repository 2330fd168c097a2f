package dto

import (
	"time"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
)

// CreateEventRequest is the request to create an event
type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	City        string `json:"city"`
	Venue       string `json:"venue"`
}

// UpdateEventRequest is the request to update event details
type UpdateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	City        string `json:"city"`
	Venue       string `json:"venue"`
}

// UpdateEventStatusRequest is the request to transition an event's status
type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// FeatureEventRequest toggles the featured flag on an event
type FeatureEventRequest struct {
	Featured bool `json:"featured"`
}

// EventResponse is the API representation of an event
type EventResponse struct {
	ID             string    `json:"id"`
	OrganizerID    string    `json:"organizer_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	City           string    `json:"city,omitempty"`
	Venue          string    `json:"venue,omitempty"`
	Status         string    `json:"status"`
	Featured       bool      `json:"featured"`
	CommissionRate float64   `json:"commission_rate,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListEventsRequest filters the event listing
type ListEventsRequest struct {
	City     string `form:"city"`
	Status   string `form:"status"`
	Featured *bool  `form:"featured"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CreateDateRequest is the request to add a date to an event.
// Tiers may be declared up front so the whole capacity layout is
// validated in one shot.
type CreateDateRequest struct {
	Date      time.Time         `json:"date" binding:"required"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Capacity  int               `json:"capacity" binding:"required"`
	Tiers     []TierSpecRequest `json:"tiers"`
}

// TierSpecRequest describes one tier inside a date creation request
type TierSpecRequest struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price"`
	Total    int     `json:"total" binding:"required"`
	Position int     `json:"position"`
}

// DateResponse is the API representation of an event date
type DateResponse struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	Date      time.Time      `json:"date"`
	StartTime string         `json:"start_time,omitempty"`
	EndTime   string         `json:"end_time,omitempty"`
	Capacity  int            `json:"capacity"`
	Available int            `json:"available"`
	Status    string         `json:"status"`
	Tiers     []TierResponse `json:"tiers,omitempty"`
}

// EventFromDomain maps a domain event to its API representation
func EventFromDomain(event *domain.Event) *EventResponse {
	return &EventResponse{
		ID:          event.ID,
		OrganizerID: event.OrganizerID,
		Name:        event.Name,
		Description: event.Description,
		City:        event.City,
		Venue:       event.Venue,
		Status:      event.Status.String(),
		Featured:    event.Featured,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

// DateFromDomain maps a domain event date to its API representation
func DateFromDomain(date *domain.EventDate, tiers []*domain.Tier) *DateResponse {
	resp := &DateResponse{
		ID:        date.ID,
		EventID:   date.EventID,
		Date:      date.Date,
		StartTime: date.StartTime,
		EndTime:   date.EndTime,
		Capacity:  date.Capacity,
		Available: date.Available,
		Status:    date.Status.String(),
	}
	for _, tier := range tiers {
		resp.Tiers = append(resp.Tiers, *TierFromDomain(tier))
	}
	return resp
}
