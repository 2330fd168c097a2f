package domain

import "errors"

// Domain errors
var (
	// Not found errors
	ErrEventNotFound  = errors.New("event not found")
	ErrDateNotFound   = errors.New("event date not found")
	ErrTierNotFound   = errors.New("tier not found")
	ErrTicketNotFound = errors.New("ticket not found")

	// Validation errors
	ErrInvalidOrganizerID   = errors.New("invalid organizer id")
	ErrInvalidEventID       = errors.New("invalid event id")
	ErrInvalidDateID        = errors.New("invalid event date id")
	ErrInvalidTierID        = errors.New("invalid tier id")
	ErrInvalidTicketID      = errors.New("invalid ticket id")
	ErrInvalidPurchaseID    = errors.New("invalid purchase id")
	ErrInvalidEventName     = errors.New("invalid event name")
	ErrInvalidTierName      = errors.New("invalid tier name")
	ErrInvalidPrice         = errors.New("price cannot be negative")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidCapacity      = errors.New("capacity must be between 1 and 1000")
	ErrTooManyTiers         = errors.New("an event date cannot have more than 10 tiers")
	ErrTierCapacityExceeded = errors.New("sum of tier capacities exceeds event date capacity")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidPlan          = errors.New("invalid plan tier")

	// Policy errors
	ErrEventQuotaExceeded    = errors.New("plan event quota exceeded")
	ErrFeaturingNotAllowed   = errors.New("plan does not allow featured events")
	ErrFeaturedQuotaExceeded = errors.New("plan featured event quota exceeded")

	// Inventory errors
	ErrInsufficientInventory = errors.New("insufficient tickets available")
	ErrMaxTicketsExceeded    = errors.New("maximum tickets per purchase exceeded")

	// Ticket state errors
	ErrTicketNotSold         = errors.New("ticket has not been sold")
	ErrTicketAlreadyUsed     = errors.New("ticket already used")
	ErrTicketCancelled       = errors.New("ticket is cancelled")
	ErrTicketAlreadyReleased = errors.New("ticket already released")
	ErrIllegalTransition     = errors.New("illegal ticket state transition")

	// Date/tier state errors
	ErrDateHasSoldTickets = errors.New("event date has sold tickets")
	ErrEventNotActive     = errors.New("event is not active")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrDateNotFound) ||
		errors.Is(err, ErrTierNotFound) ||
		errors.Is(err, ErrTicketNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidOrganizerID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidDateID) ||
		errors.Is(err, ErrInvalidTierID) ||
		errors.Is(err, ErrInvalidTicketID) ||
		errors.Is(err, ErrInvalidPurchaseID) ||
		errors.Is(err, ErrInvalidEventName) ||
		errors.Is(err, ErrInvalidTierName) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrTooManyTiers) ||
		errors.Is(err, ErrTierCapacityExceeded) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidPlan)
}

// IsPolicyError checks if the error is a plan policy error
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrEventQuotaExceeded) ||
		errors.Is(err, ErrFeaturingNotAllowed) ||
		errors.Is(err, ErrFeaturedQuotaExceeded)
}

// IsConflictError checks if the error is a state conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrMaxTicketsExceeded) ||
		errors.Is(err, ErrTicketNotSold) ||
		errors.Is(err, ErrTicketAlreadyUsed) ||
		errors.Is(err, ErrTicketCancelled) ||
		errors.Is(err, ErrTicketAlreadyReleased) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrDateHasSoldTickets) ||
		errors.Is(err, ErrEventNotActive)
}
