package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/dto"
	"github.com/arjul1989/gradanegra-sub001/internal/metrics"
	"github.com/arjul1989/gradanegra-sub001/internal/policy"
	"github.com/arjul1989/gradanegra-sub001/internal/repository"
	"github.com/arjul1989/gradanegra-sub001/pkg/logger"
)

// InventoryService defines the interface for tier and ticket business logic
type InventoryService interface {
	// CreateTier adds a tier to a date and pre-generates its ticket pool
	CreateTier(ctx context.Context, organizerID, dateID string, req *dto.CreateTierRequest) (*dto.TierResponse, error)

	// GeneratePool creates a tier with its pool for an already validated
	// date layout. CreateDate uses this for tiers declared up front.
	GeneratePool(ctx context.Context, date *domain.EventDate, spec domain.TierSpec) (*domain.Tier, error)

	// ListTiers lists the tiers of a date
	ListTiers(ctx context.Context, dateID string) ([]*dto.TierResponse, error)

	// Reserve sells quantity tickets from a tier to a purchase
	Reserve(ctx context.Context, req *dto.ReserveRequest) (*dto.ReserveResponse, error)

	// Release returns sold tickets to the pool
	Release(ctx context.Context, req *dto.ReleaseRequest) (*dto.ReleaseResponse, error)

	// CheckIn validates a ticket at the door by its security hash
	CheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.CheckInResponse, error)

	// GetAvailability returns the availability snapshot of a date
	GetAvailability(ctx context.Context, dateID string) (*dto.AvailabilityResponse, error)

	// GetPurchaseTickets lists the tickets of a purchase
	GetPurchaseTickets(ctx context.Context, purchaseID string) ([]dto.TicketResponse, error)

	// HandlePaymentResult applies a payment provider callback
	HandlePaymentResult(ctx context.Context, req *dto.PaymentWebhookRequest) (*dto.ReleaseResponse, error)
}

// InventoryServiceConfig contains configuration for the inventory service
type InventoryServiceConfig struct {
	NumberPrefix   string
	MaxPerPurchase int
	HashSecret     string
}

// inventoryService implements InventoryService
type inventoryService struct {
	inventory repository.InventoryRepository
	dates     repository.DateRepository
	events    repository.EventRepository
	counters  repository.CounterRepository
	cache     repository.AvailabilityCache
	policy    *policy.EventCapacityPolicy

	numberPrefix   string
	maxPerPurchase int
	hashSecret     []byte
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	inventory repository.InventoryRepository,
	dates repository.DateRepository,
	events repository.EventRepository,
	counters repository.CounterRepository,
	cache repository.AvailabilityCache,
	capacityPolicy *policy.EventCapacityPolicy,
	cfg *InventoryServiceConfig,
) InventoryService {
	prefix := "GN"
	maxPerPurchase := 10
	secret := ""
	if cfg != nil {
		if cfg.NumberPrefix != "" {
			prefix = cfg.NumberPrefix
		}
		if cfg.MaxPerPurchase > 0 {
			maxPerPurchase = cfg.MaxPerPurchase
		}
		secret = cfg.HashSecret
	}
	if capacityPolicy == nil {
		capacityPolicy = policy.NewEventCapacityPolicy(nil)
	}
	if cache == nil {
		cache = noopAvailabilityCache{}
	}
	return &inventoryService{
		inventory:      inventory,
		dates:          dates,
		events:         events,
		counters:       counters,
		cache:          cache,
		policy:         capacityPolicy,
		numberPrefix:   prefix,
		maxPerPurchase: maxPerPurchase,
		hashSecret:     []byte(secret),
	}
}

// CreateTier adds a tier to a date and pre-generates its ticket pool
func (s *inventoryService) CreateTier(ctx context.Context, organizerID, dateID string, req *dto.CreateTierRequest) (*dto.TierResponse, error) {
	date, err := s.dates.GetByID(ctx, dateID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDateOwnership(ctx, date, organizerID); err != nil {
		return nil, err
	}

	spec := domain.TierSpec{
		Name:     req.Name,
		Price:    req.Price,
		Total:    req.Total,
		Position: req.Position,
	}

	existingTotal, existingTiers, err := s.inventory.TierTotals(ctx, dateID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ValidateTierAddition(date.Capacity, existingTotal, existingTiers, spec); err != nil {
		return nil, err
	}

	tier, err := s.GeneratePool(ctx, date, spec)
	if err != nil {
		return nil, err
	}

	return dto.TierFromDomain(tier), nil
}

// GeneratePool reserves a number block, builds the ticket pool and persists
// tier and tickets in one transaction.
func (s *inventoryService) GeneratePool(ctx context.Context, date *domain.EventDate, spec domain.TierSpec) (*domain.Tier, error) {
	year := time.Now().Year()
	blockStart, err := s.counters.NextBlock(ctx, s.numberPrefix, year, spec.Total)
	if err != nil {
		return nil, err
	}

	tier := &domain.Tier{
		DateID:   date.ID,
		Name:     spec.Name,
		Price:    spec.Price,
		Total:    spec.Total,
		Position: spec.Position,
		Status:   domain.TierStatusActive,
	}

	tickets := make([]*domain.Ticket, spec.Total)
	for i := 0; i < spec.Total; i++ {
		number := domain.FormatTicketNumber(s.numberPrefix, year, blockStart+int64(i))
		ticket := &domain.Ticket{
			Number: number,
			Price:  spec.Price,
			Status: domain.TicketStatusAvailable,
		}
		ticket.SecurityHash = s.securityHash(number)
		tickets[i] = ticket
	}

	if err := s.inventory.CreateTierWithPool(ctx, tier, tickets); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, date.ID)
	metrics.RecordPoolCreated(ctx, spec.Total)

	return tier, nil
}

// ListTiers lists the tiers of a date
func (s *inventoryService) ListTiers(ctx context.Context, dateID string) ([]*dto.TierResponse, error) {
	tiers, err := s.inventory.ListTiersByDate(ctx, dateID)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.TierResponse, len(tiers))
	for i, tier := range tiers {
		responses[i] = dto.TierFromDomain(tier)
	}
	return responses, nil
}

// Reserve sells quantity tickets from a tier to a purchase
func (s *inventoryService) Reserve(ctx context.Context, req *dto.ReserveRequest) (*dto.ReserveResponse, error) {
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.Quantity > s.maxPerPurchase {
		metrics.RecordReserveRejection(ctx, req.TierID, "max_tickets_exceeded")
		return nil, domain.ErrMaxTicketsExceeded
	}
	if strings.TrimSpace(req.PurchaseID) == "" {
		return nil, domain.ErrInvalidPurchaseID
	}

	start := time.Now()
	tickets, err := s.inventory.Reserve(ctx, req.TierID, req.Quantity, req.PurchaseID)
	if err != nil {
		metrics.RecordReserveRejection(ctx, req.TierID, rejectionReason(err))
		return nil, err
	}

	if tier, tierErr := s.inventory.GetTier(ctx, req.TierID); tierErr == nil {
		s.invalidateCache(ctx, tier.DateID)
	}

	metrics.RecordReservation(ctx, req.TierID, req.Quantity, time.Since(start).Seconds())

	resp := &dto.ReserveResponse{
		PurchaseID: req.PurchaseID,
		TierID:     req.TierID,
		Quantity:   len(tickets),
	}
	for _, ticket := range tickets {
		resp.TotalPrice += ticket.Price
		resp.Tickets = append(resp.Tickets, dto.TicketFromDomain(ticket))
	}
	return resp, nil
}

// Release returns sold tickets to the pool, by explicit IDs or by purchase
func (s *inventoryService) Release(ctx context.Context, req *dto.ReleaseRequest) (*dto.ReleaseResponse, error) {
	var tickets []*domain.Ticket
	var err error

	switch {
	case len(req.TicketIDs) > 0:
		tickets, err = s.inventory.Release(ctx, req.TicketIDs)
	case strings.TrimSpace(req.PurchaseID) != "":
		tickets, err = s.inventory.ReleaseByPurchase(ctx, req.PurchaseID)
	default:
		return nil, domain.ErrInvalidTicketID
	}
	if err != nil {
		return nil, err
	}

	s.invalidateTicketDates(ctx, tickets)
	metrics.RecordRelease(ctx, len(tickets))

	resp := &dto.ReleaseResponse{Released: len(tickets)}
	for _, ticket := range tickets {
		resp.Tickets = append(resp.Tickets, dto.TicketFromDomain(ticket))
	}
	return resp, nil
}

// CheckIn validates a ticket at the door by its security hash. A duplicate
// scan returns the ticket context together with ErrTicketAlreadyUsed so the
// caller can show who entered and when.
func (s *inventoryService) CheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	if strings.TrimSpace(req.SecurityHash) == "" {
		return nil, domain.ErrInvalidTicketID
	}

	tc, err := s.inventory.CheckIn(ctx, req.SecurityHash)
	if err != nil {
		metrics.RecordCheckInRejection(ctx, rejectionReason(err))
		if tc != nil {
			return dto.CheckInFromDomain(tc), err
		}
		return nil, err
	}

	metrics.RecordCheckIn(ctx, tc.EventID)
	return dto.CheckInFromDomain(tc), nil
}

// GetAvailability returns the availability snapshot of a date, served from
// the cache when fresh.
func (s *inventoryService) GetAvailability(ctx context.Context, dateID string) (*dto.AvailabilityResponse, error) {
	if cached, err := s.cache.Get(ctx, dateID); err == nil && cached != nil {
		return dto.AvailabilityFromSnapshot(cached), nil
	} else if err != nil {
		logger.WarnCtx(ctx, "availability cache read failed", zap.Error(err))
	}

	availability, err := s.inventory.GetAvailability(ctx, dateID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, availability); err != nil {
		logger.WarnCtx(ctx, "availability cache write failed", zap.Error(err))
	}

	return dto.AvailabilityFromSnapshot(availability), nil
}

// GetPurchaseTickets lists the tickets of a purchase
func (s *inventoryService) GetPurchaseTickets(ctx context.Context, purchaseID string) ([]dto.TicketResponse, error) {
	if strings.TrimSpace(purchaseID) == "" {
		return nil, domain.ErrInvalidPurchaseID
	}
	tickets, err := s.inventory.ListTicketsByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.TicketResponse, len(tickets))
	for i, ticket := range tickets {
		responses[i] = dto.TicketFromDomain(ticket)
	}
	return responses, nil
}

// HandlePaymentResult applies a payment provider callback. Failed payments
// release the purchase's tickets; successful ones need no inventory change
// because tickets were sold at reservation time.
func (s *inventoryService) HandlePaymentResult(ctx context.Context, req *dto.PaymentWebhookRequest) (*dto.ReleaseResponse, error) {
	switch strings.ToLower(req.Status) {
	case "failed", "cancelled", "expired":
		resp, err := s.Release(ctx, &dto.ReleaseRequest{PurchaseID: req.PurchaseID})
		if err != nil {
			return nil, err
		}
		logger.InfoCtx(ctx, "released purchase after failed payment",
			zap.String("purchase_id", req.PurchaseID),
			zap.Int("released", resp.Released),
		)
		return resp, nil
	case "succeeded", "completed", "paid":
		return &dto.ReleaseResponse{Released: 0}, nil
	default:
		return nil, domain.ErrInvalidStatus
	}
}

func (s *inventoryService) checkDateOwnership(ctx context.Context, date *domain.EventDate, organizerID string) error {
	event, err := s.events.GetByID(ctx, date.EventID)
	if err != nil {
		return err
	}
	if !event.BelongsTo(organizerID) {
		// Hide other organizers' resources
		return domain.ErrDateNotFound
	}
	return nil
}

// securityHash derives the check-in credential printed on the ticket.
// HMAC keeps forged numbers from scanning in.
func (s *inventoryService) securityHash(number string) string {
	mac := hmac.New(sha256.New, s.hashSecret)
	mac.Write([]byte(number))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *inventoryService) invalidateCache(ctx context.Context, dateID string) {
	if err := s.cache.Invalidate(ctx, dateID); err != nil {
		logger.WarnCtx(ctx, "availability cache invalidation failed",
			zap.String("date_id", dateID),
			zap.Error(err),
		)
	}
}

func (s *inventoryService) invalidateTicketDates(ctx context.Context, tickets []*domain.Ticket) {
	seen := make(map[string]struct{})
	for _, ticket := range tickets {
		if _, ok := seen[ticket.TierID]; ok {
			continue
		}
		seen[ticket.TierID] = struct{}{}
		if tier, err := s.inventory.GetTier(ctx, ticket.TierID); err == nil {
			s.invalidateCache(ctx, tier.DateID)
		}
	}
}

func rejectionReason(err error) string {
	switch {
	case domain.IsNotFoundError(err):
		return "not_found"
	case domain.IsConflictError(err):
		return "conflict"
	case domain.IsValidationError(err):
		return "validation"
	default:
		return "internal"
	}
}

// noopAvailabilityCache is used when no Redis client is configured
type noopAvailabilityCache struct{}

func (noopAvailabilityCache) Get(ctx context.Context, dateID string) (*repository.DateAvailability, error) {
	return nil, nil
}

func (noopAvailabilityCache) Set(ctx context.Context, availability *repository.DateAvailability) error {
	return nil
}

func (noopAvailabilityCache) Invalidate(ctx context.Context, dateID string) error {
	return nil
}
