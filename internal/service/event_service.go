package service

import (
	"context"
	"strings"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/dto"
	"github.com/arjul1989/gradanegra-sub001/internal/metrics"
	"github.com/arjul1989/gradanegra-sub001/internal/policy"
	"github.com/arjul1989/gradanegra-sub001/internal/repository"
)

// EventService defines the interface for event catalog business logic
type EventService interface {
	// CreateEvent creates an event for an organizer, enforcing the plan quota
	CreateEvent(ctx context.Context, organizerID string, plan domain.Plan, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// ListEvents lists events matching the filter
	ListEvents(ctx context.Context, req *dto.ListEventsRequest) ([]*dto.EventResponse, error)

	// UpdateEvent updates event details
	UpdateEvent(ctx context.Context, organizerID, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)

	// ChangeStatus transitions the event lifecycle status
	ChangeStatus(ctx context.Context, organizerID, eventID string, req *dto.UpdateEventStatusRequest) (*dto.EventResponse, error)

	// SetFeatured toggles the featured flag, enforcing the plan quota
	SetFeatured(ctx context.Context, organizerID string, plan domain.Plan, eventID string, featured bool) (*dto.EventResponse, error)

	// DeleteEvent soft-deletes an event
	DeleteEvent(ctx context.Context, organizerID, eventID string) error

	// CreateDate adds a date to an event, optionally with its full tier layout
	CreateDate(ctx context.Context, organizerID, eventID string, req *dto.CreateDateRequest) (*dto.DateResponse, error)

	// GetDate retrieves a date with its tiers
	GetDate(ctx context.Context, dateID string) (*dto.DateResponse, error)

	// ListDates lists the dates of an event
	ListDates(ctx context.Context, eventID string) ([]*dto.DateResponse, error)

	// DeleteDate soft-deletes a date that has no sold tickets
	DeleteDate(ctx context.Context, organizerID, eventID, dateID string) error
}

// eventService implements EventService
type eventService struct {
	events    repository.EventRepository
	dates     repository.DateRepository
	inventory repository.InventoryRepository
	pools     InventoryService
	policy    *policy.EventCapacityPolicy
}

// NewEventService creates a new event service
func NewEventService(
	events repository.EventRepository,
	dates repository.DateRepository,
	inventory repository.InventoryRepository,
	pools InventoryService,
	capacityPolicy *policy.EventCapacityPolicy,
) EventService {
	if capacityPolicy == nil {
		capacityPolicy = policy.NewEventCapacityPolicy(nil)
	}
	return &eventService{
		events:    events,
		dates:     dates,
		inventory: inventory,
		pools:     pools,
		policy:    capacityPolicy,
	}
}

// CreateEvent creates an event for an organizer, enforcing the plan quota
func (s *eventService) CreateEvent(ctx context.Context, organizerID string, plan domain.Plan, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	activeEvents, err := s.events.CountActiveByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ValidateEventCreation(plan, activeEvents); err != nil {
		return nil, err
	}

	event := &domain.Event{
		OrganizerID: organizerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		City:        req.City,
		Venue:       req.Venue,
		Status:      domain.EventStatusActive,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	metrics.RecordEventCreated(ctx, plan.String())

	resp := dto.EventFromDomain(event)
	// Plan already validated above
	resp.CommissionRate, _ = s.policy.CommissionFor(plan)
	return resp, nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return dto.EventFromDomain(event), nil
}

// ListEvents lists events matching the filter
func (s *eventService) ListEvents(ctx context.Context, req *dto.ListEventsRequest) ([]*dto.EventResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	filter := repository.EventFilter{
		City:     req.City,
		Featured: req.Featured,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if req.Status != "" {
		status := domain.EventStatus(req.Status)
		if !status.IsValid() {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = status
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.EventResponse, len(events))
	for i, event := range events {
		responses[i] = dto.EventFromDomain(event)
	}
	return responses, nil
}

// UpdateEvent updates event details
func (s *eventService) UpdateEvent(ctx context.Context, organizerID, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		event.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.City != "" {
		event.City = req.City
	}
	if req.Venue != "" {
		event.Venue = req.Venue
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return dto.EventFromDomain(event), nil
}

// ChangeStatus transitions the event lifecycle status
func (s *eventService) ChangeStatus(ctx context.Context, organizerID, eventID string, req *dto.UpdateEventStatusRequest) (*dto.EventResponse, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	if err := event.ChangeStatus(domain.EventStatus(req.Status)); err != nil {
		return nil, err
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return dto.EventFromDomain(event), nil
}

// SetFeatured toggles the featured flag, enforcing the plan quota
func (s *eventService) SetFeatured(ctx context.Context, organizerID string, plan domain.Plan, eventID string, featured bool) (*dto.EventResponse, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	if featured {
		if !event.Featured {
			currentFeatured, err := s.events.CountFeaturedByOrganizer(ctx, organizerID)
			if err != nil {
				return nil, err
			}
			if err := s.policy.ValidateFeatureEligibility(plan, currentFeatured); err != nil {
				return nil, err
			}
		}
		if err := event.Feature(); err != nil {
			return nil, err
		}
	} else {
		event.Unfeature()
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return dto.EventFromDomain(event), nil
}

// DeleteEvent soft-deletes an event
func (s *eventService) DeleteEvent(ctx context.Context, organizerID, eventID string) error {
	if _, err := s.ownedEvent(ctx, organizerID, eventID); err != nil {
		return err
	}
	return s.events.SoftDelete(ctx, eventID)
}

// CreateDate adds a date to an event. When tiers are declared in the request
// the whole capacity layout is validated before anything is written, then
// each pool is generated.
func (s *eventService) CreateDate(ctx context.Context, organizerID, eventID string, req *dto.CreateDateRequest) (*dto.DateResponse, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusCancelled || event.Status == domain.EventStatusFinished {
		return nil, domain.ErrEventNotActive
	}

	specs := make([]domain.TierSpec, len(req.Tiers))
	for i, t := range req.Tiers {
		specs[i] = domain.TierSpec{
			Name:     t.Name,
			Price:    t.Price,
			Total:    t.Total,
			Position: t.Position,
		}
	}
	if err := s.policy.ValidateCapacityLayout(req.Capacity, specs); err != nil {
		return nil, err
	}

	date := &domain.EventDate{
		EventID:   eventID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
		Status:    domain.DateStatusActive,
	}
	if err := date.Validate(); err != nil {
		return nil, err
	}

	if err := s.dates.Create(ctx, date); err != nil {
		return nil, err
	}

	tiers := make([]*domain.Tier, 0, len(specs))
	for _, spec := range specs {
		tier, err := s.pools.GeneratePool(ctx, date, spec)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	// Pool generation refreshed the stored aggregate
	date.Recompute(sumAvailable(tiers))

	return dto.DateFromDomain(date, tiers), nil
}

// GetDate retrieves a date with its tiers
func (s *eventService) GetDate(ctx context.Context, dateID string) (*dto.DateResponse, error) {
	date, err := s.dates.GetByID(ctx, dateID)
	if err != nil {
		return nil, err
	}
	tiers, err := s.inventory.ListTiersByDate(ctx, dateID)
	if err != nil {
		return nil, err
	}
	return dto.DateFromDomain(date, tiers), nil
}

// ListDates lists the dates of an event
func (s *eventService) ListDates(ctx context.Context, eventID string) ([]*dto.DateResponse, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	dates, err := s.dates.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DateResponse, len(dates))
	for i, date := range dates {
		responses[i] = dto.DateFromDomain(date, nil)
	}
	return responses, nil
}

// DeleteDate soft-deletes a date that has no sold tickets
func (s *eventService) DeleteDate(ctx context.Context, organizerID, eventID, dateID string) error {
	if _, err := s.ownedEvent(ctx, organizerID, eventID); err != nil {
		return err
	}

	date, err := s.dates.GetByID(ctx, dateID)
	if err != nil {
		return err
	}
	if date.EventID != eventID {
		return domain.ErrDateNotFound
	}

	soldCount, err := s.dates.SoldCount(ctx, dateID)
	if err != nil {
		return err
	}
	if !date.CanDelete(soldCount) {
		return domain.ErrDateHasSoldTickets
	}

	return s.dates.SoftDelete(ctx, dateID)
}

// ownedEvent loads an event and hides it from other organizers
func (s *eventService) ownedEvent(ctx context.Context, organizerID, eventID string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.BelongsTo(organizerID) {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func sumAvailable(tiers []*domain.Tier) int {
	sum := 0
	for _, tier := range tiers {
		sum += tier.Available
	}
	return sum
}
