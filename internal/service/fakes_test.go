package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/repository"
)

// fakeStore is an in-memory stand-in for the PostgreSQL repositories. Its
// Reserve honors the same contract as the real one: a conditional decrement
// under a lock, so concurrent callers can never oversell.
type fakeStore struct {
	mu       sync.Mutex
	events   map[string]*domain.Event
	dates    map[string]*domain.EventDate
	tiers    map[string]*domain.Tier
	tickets  map[string]*domain.Ticket
	counters map[string]int64

	cache       map[string]*repository.DateAvailability
	cacheHits   int
	cacheMisses int

	reserveDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   make(map[string]*domain.Event),
		dates:    make(map[string]*domain.EventDate),
		tiers:    make(map[string]*domain.Tier),
		tickets:  make(map[string]*domain.Ticket),
		counters: make(map[string]int64),
		cache:    make(map[string]*repository.DateAvailability),
	}
}

// --- EventRepository ---

func (f *fakeStore) Create(ctx context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok || event.DeletedAt != nil {
		return nil, domain.ErrEventNotFound
	}
	cp := *event
	return &cp, nil
}

func (f *fakeStore) List(ctx context.Context, filter repository.EventFilter) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, event := range f.events {
		if event.DeletedAt != nil {
			continue
		}
		if filter.OrganizerID != "" && event.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.City != "" && event.City != filter.City {
			continue
		}
		if filter.Status != "" && event.Status != filter.Status {
			continue
		}
		if filter.Featured != nil && event.Featured != *filter.Featured {
			continue
		}
		cp := *event
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok || event.DeletedAt != nil {
		return domain.ErrEventNotFound
	}
	now := time.Now()
	event.DeletedAt = &now
	return nil
}

func (f *fakeStore) CountActiveByOrganizer(ctx context.Context, organizerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, event := range f.events {
		if event.OrganizerID == organizerID && event.Status == domain.EventStatusActive && event.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountFeaturedByOrganizer(ctx context.Context, organizerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, event := range f.events {
		if event.OrganizerID == organizerID && event.Featured && event.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

// --- DateRepository ---

func (f *fakeStore) CreateDate(ctx context.Context, date *domain.EventDate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if date.ID == "" {
		date.ID = uuid.New().String()
	}
	cp := *date
	f.dates[date.ID] = &cp
	return nil
}

func (f *fakeStore) GetDateByID(ctx context.Context, id string) (*domain.EventDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date, ok := f.dates[id]
	if !ok || date.DeletedAt != nil {
		return nil, domain.ErrDateNotFound
	}
	cp := *date
	return &cp, nil
}

func (f *fakeStore) ListByEvent(ctx context.Context, eventID string) ([]*domain.EventDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventDate
	for _, date := range f.dates {
		if date.EventID == eventID && date.DeletedAt == nil {
			cp := *date
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateDate(ctx context.Context, date *domain.EventDate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.dates[date.ID]; !ok {
		return domain.ErrDateNotFound
	}
	cp := *date
	f.dates[date.ID] = &cp
	return nil
}

func (f *fakeStore) SoftDeleteDate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	date, ok := f.dates[id]
	if !ok || date.DeletedAt != nil {
		return domain.ErrDateNotFound
	}
	now := time.Now()
	date.DeletedAt = &now
	return nil
}

func (f *fakeStore) SoldCount(ctx context.Context, dateID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ticket := range f.tickets {
		tier := f.tiers[ticket.TierID]
		if tier == nil || tier.DateID != dateID {
			continue
		}
		if ticket.Status == domain.TicketStatusSold || ticket.Status == domain.TicketStatusUsed {
			count++
		}
	}
	return count, nil
}

// dateRepo adapts fakeStore to repository.DateRepository; the method names
// collide with the event repo otherwise.
type dateRepo struct{ *fakeStore }

func (d dateRepo) Create(ctx context.Context, date *domain.EventDate) error {
	return d.CreateDate(ctx, date)
}
func (d dateRepo) GetByID(ctx context.Context, id string) (*domain.EventDate, error) {
	return d.GetDateByID(ctx, id)
}
func (d dateRepo) Update(ctx context.Context, date *domain.EventDate) error {
	return d.UpdateDate(ctx, date)
}
func (d dateRepo) SoftDelete(ctx context.Context, id string) error {
	return d.SoftDeleteDate(ctx, id)
}

// --- InventoryRepository ---

func (f *fakeStore) CreateTierWithPool(ctx context.Context, tier *domain.Tier, tickets []*domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tier.ID == "" {
		tier.ID = uuid.New().String()
	}
	tier.Available = tier.Total
	cp := *tier
	f.tiers[tier.ID] = &cp
	for _, ticket := range tickets {
		if ticket.ID == "" {
			ticket.ID = uuid.New().String()
		}
		ticket.TierID = tier.ID
		tcp := *ticket
		f.tickets[ticket.ID] = &tcp
	}
	f.recomputeDateLocked(tier.DateID)
	return nil
}

func (f *fakeStore) GetTier(ctx context.Context, id string) (*domain.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tier, ok := f.tiers[id]
	if !ok || tier.DeletedAt != nil {
		return nil, domain.ErrTierNotFound
	}
	cp := *tier
	return &cp, nil
}

func (f *fakeStore) ListTiersByDate(ctx context.Context, dateID string) ([]*domain.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Tier
	for _, tier := range f.tiers {
		if tier.DateID == dateID && tier.DeletedAt == nil {
			cp := *tier
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) TierTotals(ctx context.Context, dateID string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, count := 0, 0
	for _, tier := range f.tiers {
		if tier.DateID == dateID && tier.DeletedAt == nil {
			sum += tier.Total
			count++
		}
	}
	return sum, count, nil
}

func (f *fakeStore) Reserve(ctx context.Context, tierID string, quantity int, purchaseID string) ([]*domain.Ticket, error) {
	if f.reserveDelay > 0 {
		time.Sleep(f.reserveDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tier, ok := f.tiers[tierID]
	if !ok || tier.DeletedAt != nil {
		return nil, domain.ErrTierNotFound
	}
	if tier.Available < quantity {
		return nil, domain.ErrInsufficientInventory
	}
	tier.Recompute(tier.Available - quantity)

	var pool []*domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.TierID == tierID && ticket.Status == domain.TicketStatusAvailable {
			pool = append(pool, ticket)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Number < pool[j].Number })
	if len(pool) < quantity {
		return nil, fmt.Errorf("pool out of sync")
	}

	claimed := make([]*domain.Ticket, quantity)
	for i := 0; i < quantity; i++ {
		if err := pool[i].Sell(purchaseID); err != nil {
			return nil, err
		}
		cp := *pool[i]
		claimed[i] = &cp
	}

	f.recomputeDateLocked(tier.DateID)
	return claimed, nil
}

func (f *fakeStore) Release(ctx context.Context, ticketIDs []string) ([]*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseLocked(ticketIDs)
}

func (f *fakeStore) ReleaseByPurchase(ctx context.Context, purchaseID string) ([]*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, ticket := range f.tickets {
		if ticket.PurchaseID == purchaseID && ticket.Status == domain.TicketStatusSold {
			ids = append(ids, ticket.ID)
		}
	}
	if len(ids) == 0 {
		return nil, domain.ErrTicketNotFound
	}
	return f.releaseLocked(ids)
}

func (f *fakeStore) releaseLocked(ticketIDs []string) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for _, id := range ticketIDs {
		ticket, ok := f.tickets[id]
		if !ok {
			return nil, domain.ErrTicketNotFound
		}
		tickets = append(tickets, ticket)
	}
	// Validate every transition before applying any
	for _, ticket := range tickets {
		probe := *ticket
		if err := probe.Release(); err != nil {
			return nil, err
		}
	}
	out := make([]*domain.Ticket, len(tickets))
	for i, ticket := range tickets {
		_ = ticket.Release()
		tier := f.tiers[ticket.TierID]
		tier.Recompute(tier.Available + 1)
		f.recomputeDateLocked(tier.DateID)
		cp := *ticket
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeStore) CheckIn(ctx context.Context, securityHash string) (*domain.TicketContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.SecurityHash != securityHash {
			continue
		}
		tier := f.tiers[ticket.TierID]
		date := f.dates[tier.DateID]
		event := f.events[date.EventID]
		tc := &domain.TicketContext{
			TierName:  tier.Name,
			EventID:   event.ID,
			EventName: event.Name,
			DateID:    date.ID,
			Date:      date.Date,
			StartTime: date.StartTime,
			UsedAt:    ticket.UsedAt,
		}
		err := ticket.Use()
		cp := *ticket
		tc.Ticket = &cp
		tc.UsedAt = cp.UsedAt
		if err != nil {
			return tc, err
		}
		return tc, nil
	}
	return nil, domain.ErrTicketNotFound
}

func (f *fakeStore) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	cp := *ticket
	return &cp, nil
}

func (f *fakeStore) ListTicketsByPurchase(ctx context.Context, purchaseID string) ([]*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.PurchaseID == purchaseID {
			cp := *ticket
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeStore) GetAvailability(ctx context.Context, dateID string) (*repository.DateAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date, ok := f.dates[dateID]
	if !ok || date.DeletedAt != nil {
		return nil, domain.ErrDateNotFound
	}
	availability := &repository.DateAvailability{
		DateID:    dateID,
		Status:    date.Status.String(),
		Available: date.Available,
	}
	for _, tier := range f.tiers {
		if tier.DateID != dateID || tier.DeletedAt != nil {
			continue
		}
		availability.Total += tier.Total
		availability.Tiers = append(availability.Tiers, repository.TierAvailability{
			TierID:    tier.ID,
			Name:      tier.Name,
			Price:     tier.Price,
			Total:     tier.Total,
			Available: tier.Available,
			Status:    tier.Status.String(),
		})
	}
	return availability, nil
}

func (f *fakeStore) recomputeDateLocked(dateID string) {
	date, ok := f.dates[dateID]
	if !ok {
		return
	}
	sum := 0
	for _, tier := range f.tiers {
		if tier.DateID == dateID && tier.DeletedAt == nil {
			sum += tier.Available
		}
	}
	date.Recompute(sum)
}

// --- CounterRepository ---

func (f *fakeStore) NextBlock(ctx context.Context, prefix string, year int, count int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s-%d", prefix, year)
	f.counters[key] += int64(count)
	return f.counters[key] - int64(count) + 1, nil
}

// --- AvailabilityCache ---

func (f *fakeStore) CacheGet(ctx context.Context, dateID string) (*repository.DateAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.cache[dateID]; ok {
		f.cacheHits++
		return a, nil
	}
	f.cacheMisses++
	return nil, nil
}

func (f *fakeStore) CacheSet(ctx context.Context, availability *repository.DateAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[availability.DateID] = availability
	return nil
}

func (f *fakeStore) CacheInvalidate(ctx context.Context, dateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, dateID)
	return nil
}

type availabilityCache struct{ *fakeStore }

func (c availabilityCache) Get(ctx context.Context, dateID string) (*repository.DateAvailability, error) {
	return c.CacheGet(ctx, dateID)
}
func (c availabilityCache) Set(ctx context.Context, availability *repository.DateAvailability) error {
	return c.CacheSet(ctx, availability)
}
func (c availabilityCache) Invalidate(ctx context.Context, dateID string) error {
	return c.CacheInvalidate(ctx, dateID)
}

// GetTicketByNumber returns the lowest-numbered ticket with the given prefix
func (f *fakeStore) GetTicketByNumber(prefix string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *domain.Ticket
	for _, ticket := range f.tickets {
		if !strings.HasPrefix(ticket.Number, prefix) {
			continue
		}
		if found == nil || ticket.Number < found.Number {
			found = ticket
		}
	}
	if found == nil {
		return nil, domain.ErrTicketNotFound
	}
	cp := *found
	return &cp, nil
}

// AllNumbers returns every ticket number in ascending order
func (f *fakeStore) AllNumbers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var numbers []string
	for _, ticket := range f.tickets {
		numbers = append(numbers, ticket.Number)
	}
	sort.Strings(numbers)
	return numbers
}

// --- test wiring helpers ---

func newTestServices(store *fakeStore) (EventService, InventoryService) {
	inventory := NewInventoryService(
		store,
		dateRepo{store},
		store,
		store,
		availabilityCache{store},
		nil,
		&InventoryServiceConfig{
			NumberPrefix:   "GN",
			MaxPerPurchase: 10,
			HashSecret:     "test-secret",
		},
	)
	events := NewEventService(store, dateRepo{store}, store, inventory, nil)
	return events, inventory
}

func seedEventWithDate(t interface {
	Fatalf(format string, args ...interface{})
}, store *fakeStore, capacity int) (*domain.Event, *domain.EventDate) {
	ctx := context.Background()
	event := &domain.Event{
		OrganizerID: "org-1",
		Name:        "Test Event",
		Status:      domain.EventStatusActive,
	}
	if err := store.Create(ctx, event); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	date := &domain.EventDate{
		EventID:  event.ID,
		Date:     time.Now().Add(30 * 24 * time.Hour),
		Capacity: capacity,
		Status:   domain.DateStatusActive,
	}
	if err := store.CreateDate(ctx, date); err != nil {
		t.Fatalf("seed date: %v", err)
	}
	return event, date
}
