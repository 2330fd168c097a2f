package domain

import (
	"strings"
	"time"
)

// TierStatus represents the availability status of a ticket tier
type TierStatus string

const (
	TierStatusActive   TierStatus = "active"
	TierStatusSoldOut  TierStatus = "sold_out"
	TierStatusInactive TierStatus = "inactive"
)

// IsValid checks if the status is a valid TierStatus
func (s TierStatus) IsValid() bool {
	switch s {
	case TierStatusActive, TierStatusSoldOut, TierStatusInactive:
		return true
	}
	return false
}

// String returns the string representation of TierStatus
func (s TierStatus) String() string {
	return string(s)
}

// Tier represents a priced ticket tier within an event date
type Tier struct {
	ID        string     `json:"id"`
	DateID    string     `json:"date_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Total     int        `json:"total"`
	Available int        `json:"available"`
	Position  int        `json:"position"`
	Status    TierStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Validate validates all tier fields
func (t *Tier) Validate() error {
	if strings.TrimSpace(t.DateID) == "" {
		return ErrInvalidDateID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidTierName
	}
	if t.Price < 0 {
		return ErrInvalidPrice
	}
	if t.Total <= 0 {
		return ErrInvalidQuantity
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive checks if the tier is open for sales
func (t *Tier) IsActive() bool {
	return t.Status == TierStatusActive && t.DeletedAt == nil
}

// IsSoldOut checks if the tier has no availability left
func (t *Tier) IsSoldOut() bool {
	return t.Status == TierStatusSoldOut
}

// Recompute applies a fresh availability count and flips the status between
// active and sold_out accordingly. Inactive tiers stay inactive.
func (t *Tier) Recompute(available int) {
	t.Available = available
	if t.Status == TierStatusInactive {
		return
	}
	if available <= 0 {
		t.Status = TierStatusSoldOut
	} else {
		t.Status = TierStatusActive
	}
	t.UpdatedAt = time.Now()
}

// TierSpec describes a tier to be created
type TierSpec struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Total    int     `json:"total"`
	Position int     `json:"position"`
}

// Validate validates the tier spec
func (s *TierSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidTierName
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	if s.Total <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
