package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/pkg/database"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := &database.PostgresConfig{
		Host:            getEnv("POSTGRES_HOST", "localhost"),
		Port:            5432,
		User:            getEnv("POSTGRES_USER", "postgres"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "gradanegra_test"),
		SSLMode:         "disable",
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 1 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			organizer_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			city VARCHAR(100),
			venue VARCHAR(255),
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			featured BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE TABLE IF NOT EXISTS event_dates (
			id VARCHAR(36) PRIMARY KEY,
			event_id VARCHAR(36) NOT NULL REFERENCES events(id),
			date TIMESTAMP WITH TIME ZONE NOT NULL,
			start_time VARCHAR(8),
			end_time VARCHAR(8),
			capacity INT NOT NULL,
			available INT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE TABLE IF NOT EXISTS tiers (
			id VARCHAR(36) PRIMARY KEY,
			date_id VARCHAR(36) NOT NULL REFERENCES event_dates(id),
			name VARCHAR(100) NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			total INT NOT NULL,
			available INT NOT NULL,
			position INT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP WITH TIME ZONE,
			CONSTRAINT tiers_available_non_negative CHECK (available >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id VARCHAR(36) PRIMARY KEY,
			tier_id VARCHAR(36) NOT NULL REFERENCES tiers(id),
			number VARCHAR(30) NOT NULL UNIQUE,
			security_hash VARCHAR(64) NOT NULL UNIQUE,
			price DECIMAL(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'available',
			purchase_id VARCHAR(36),
			sold_at TIMESTAMP WITH TIME ZONE,
			used_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_counters (
			prefix VARCHAR(10) NOT NULL,
			year INT NOT NULL,
			value BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			PRIMARY KEY (prefix, year)
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_messages (
			id VARCHAR(36) PRIMARY KEY,
			aggregate_type VARCHAR(50) NOT NULL,
			aggregate_id VARCHAR(36) NOT NULL,
			event_type VARCHAR(100) NOT NULL,
			payload JSONB NOT NULL,
			topic VARCHAR(100) NOT NULL,
			partition_key VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			retry_count INT NOT NULL DEFAULT 0,
			max_retries INT NOT NULL DEFAULT 5,
			last_error TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMP WITH TIME ZONE,
			published_at TIMESTAMP WITH TIME ZONE
		)`,
	}

	ctxSetup := context.Background()
	for _, stmt := range statements {
		if _, err := db.Pool().Exec(ctxSetup, stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	return db
}

// seedDate creates an event, a date and a tier with a pre-generated pool
// and returns the tier.
func seedDate(t *testing.T, db *database.PostgresDB, capacity, poolSize int) *domain.Tier {
	ctx := context.Background()

	events := NewPostgresEventRepository(db.Pool())
	dates := NewPostgresDateRepository(db.Pool())
	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")

	event := &domain.Event{
		OrganizerID: "test-organizer-" + uuid.New().String(),
		Name:        "Integration Test Event",
		City:        "Barcelona",
		Status:      domain.EventStatusActive,
	}
	if err := events.Create(ctx, event); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}

	date := &domain.EventDate{
		EventID:  event.ID,
		Date:     time.Now().Add(30 * 24 * time.Hour),
		Capacity: capacity,
		Status:   domain.DateStatusActive,
	}
	if err := dates.Create(ctx, date); err != nil {
		t.Fatalf("Failed to create event date: %v", err)
	}

	tier := &domain.Tier{
		DateID: date.ID,
		Name:   "General",
		Price:  25.00,
		Total:  poolSize,
		Status: domain.TierStatusActive,
	}
	// Unique prefix per seed keeps numbers distinct across test runs
	prefix := "T" + uuid.New().String()[0:8]
	tickets := make([]*domain.Ticket, poolSize)
	for i := 0; i < poolSize; i++ {
		tickets[i] = &domain.Ticket{
			Number:       domain.FormatTicketNumber(prefix, time.Now().Year(), int64(i+1)),
			SecurityHash: uuid.New().String() + uuid.New().String()[0:28],
			Price:        tier.Price,
			Status:       domain.TicketStatusAvailable,
		}
	}
	if err := inventory.CreateTierWithPool(ctx, tier, tickets); err != nil {
		t.Fatalf("Failed to create tier pool: %v", err)
	}

	return tier
}

func TestPostgresInventoryRepository_ReserveAndRelease(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")
	dates := NewPostgresDateRepository(db.Pool())

	tier := seedDate(t, db, 2, 2)

	// Reserve the whole pool
	tickets, err := inventory.Reserve(ctx, tier.ID, 2, "purchase-1")
	if err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("Expected 2 tickets, got %d", len(tickets))
	}

	date, err := dates.GetByID(ctx, tier.DateID)
	if err != nil {
		t.Fatalf("Failed to get date: %v", err)
	}
	if date.Status != domain.DateStatusSoldOut {
		t.Errorf("Expected date sold_out, got %s", date.Status)
	}
	if date.Available != 0 {
		t.Errorf("Expected available 0, got %d", date.Available)
	}

	// One more must fail
	_, err = inventory.Reserve(ctx, tier.ID, 1, "purchase-2")
	if !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Errorf("Expected ErrInsufficientInventory, got %v", err)
	}

	// Releasing one ticket reopens the date
	released, err := inventory.Release(ctx, []string{tickets[0].ID})
	if err != nil {
		t.Fatalf("Failed to release: %v", err)
	}
	if released[0].Status != domain.TicketStatusAvailable {
		t.Errorf("Expected available, got %s", released[0].Status)
	}

	date, err = dates.GetByID(ctx, tier.DateID)
	if err != nil {
		t.Fatalf("Failed to get date: %v", err)
	}
	if date.Status != domain.DateStatusActive {
		t.Errorf("Expected date active after release, got %s", date.Status)
	}
	if date.Available != 1 {
		t.Errorf("Expected available 1, got %d", date.Available)
	}

	// The freed seat can be reserved again
	again, err := inventory.Reserve(ctx, tier.ID, 1, "purchase-3")
	if err != nil {
		t.Fatalf("Failed to re-reserve freed seat: %v", err)
	}
	if again[0].ID != tickets[0].ID {
		t.Logf("Re-reserved a different pool ticket, which is fine")
	}
}

func TestPostgresInventoryRepository_ReserveUnknownTier(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")

	_, err := inventory.Reserve(context.Background(), uuid.New().String(), 1, "purchase-x")
	if !errors.Is(err, domain.ErrTierNotFound) {
		t.Errorf("Expected ErrTierNotFound, got %v", err)
	}
}

func TestPostgresInventoryRepository_ConcurrentReserve(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")

	const poolSize = 10
	const workers = 25
	tier := seedDate(t, db, poolSize, poolSize)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	rejected := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := inventory.Reserve(ctx, tier.ID, 1, fmt.Sprintf("purchase-c-%d", i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				sold++
			} else if errors.Is(err, domain.ErrInsufficientInventory) {
				rejected++
			} else {
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if sold != poolSize {
		t.Errorf("Expected exactly %d sales, got %d", poolSize, sold)
	}
	if sold+rejected != workers {
		t.Errorf("Expected %d outcomes, got %d", workers, sold+rejected)
	}

	availability, err := inventory.GetAvailability(ctx, tier.DateID)
	if err != nil {
		t.Fatalf("Failed to get availability: %v", err)
	}
	if availability.Available != 0 {
		t.Errorf("Expected 0 available after sellout, got %d", availability.Available)
	}
}

func TestPostgresInventoryRepository_CheckInIdempotent(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")

	tier := seedDate(t, db, 2, 2)

	tickets, err := inventory.Reserve(ctx, tier.ID, 1, "purchase-ci")
	if err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}
	hash := tickets[0].SecurityHash

	tc, err := inventory.CheckIn(ctx, hash)
	if err != nil {
		t.Fatalf("First check-in failed: %v", err)
	}
	if tc.UsedAt == nil {
		t.Fatal("Expected UsedAt to be set")
	}
	firstUsedAt := *tc.UsedAt

	// Second scan keeps the original check-in time
	tc2, err := inventory.CheckIn(ctx, hash)
	if !errors.Is(err, domain.ErrTicketAlreadyUsed) {
		t.Fatalf("Expected ErrTicketAlreadyUsed, got %v", err)
	}
	if tc2 == nil || tc2.UsedAt == nil {
		t.Fatal("Expected ticket context on duplicate scan")
	}
	if !tc2.UsedAt.Equal(firstUsedAt) {
		t.Errorf("UsedAt changed on duplicate scan: %v vs %v", tc2.UsedAt, firstUsedAt)
	}

	// A used ticket can never be released
	_, err = inventory.Release(ctx, []string{tickets[0].ID})
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Errorf("Expected ErrIllegalTransition, got %v", err)
	}
}

func TestPostgresInventoryRepository_CheckInUnknownHash(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")

	_, err := inventory.CheckIn(context.Background(), "no-such-hash")
	if !errors.Is(err, domain.ErrTicketNotFound) {
		t.Errorf("Expected ErrTicketNotFound, got %v", err)
	}
}

func TestPostgresCounterRepository_NextBlock(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	counters := NewPostgresCounterRepository(db.Pool())

	prefix := "T" + uuid.New().String()[0:6]

	start, err := counters.NextBlock(ctx, prefix, 2026, 100)
	if err != nil {
		t.Fatalf("Failed to get first block: %v", err)
	}
	if start != 1 {
		t.Errorf("Expected first block to start at 1, got %d", start)
	}

	next, err := counters.NextBlock(ctx, prefix, 2026, 50)
	if err != nil {
		t.Fatalf("Failed to get second block: %v", err)
	}
	if next != 101 {
		t.Errorf("Expected second block to start at 101, got %d", next)
	}

	// Counters are scoped per year
	otherYear, err := counters.NextBlock(ctx, prefix, 2027, 10)
	if err != nil {
		t.Fatalf("Failed to get other-year block: %v", err)
	}
	if otherYear != 1 {
		t.Errorf("Expected new year to restart at 1, got %d", otherYear)
	}
}

func TestPostgresCounterRepository_ConcurrentBlocks(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	counters := NewPostgresCounterRepository(db.Pool())

	prefix := "C" + uuid.New().String()[0:6]

	const workers = 20
	const blockSize = 5

	starts := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start, err := counters.NextBlock(ctx, prefix, 2026, blockSize)
			if err != nil {
				t.Errorf("NextBlock failed: %v", err)
				return
			}
			starts <- start
		}()
	}
	wg.Wait()
	close(starts)

	seen := make(map[int64]bool)
	for start := range starts {
		if seen[start] {
			t.Errorf("Block start %d handed out twice", start)
		}
		seen[start] = true
	}
	if len(seen) != workers {
		t.Errorf("Expected %d distinct blocks, got %d", workers, len(seen))
	}
}

func TestPostgresOutboxRepository_Lifecycle(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	inventory := NewPostgresInventoryRepository(db.Pool(), "ticket-events")
	outbox := NewPostgresOutboxRepository(db.Pool())

	tier := seedDate(t, db, 2, 2)

	if _, err := inventory.Reserve(ctx, tier.ID, 1, "purchase-ob"); err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}

	pending, err := outbox.GetPendingMessages(ctx, 100)
	if err != nil {
		t.Fatalf("Failed to get pending: %v", err)
	}

	var msg *domain.OutboxMessage
	for _, m := range pending {
		if m.AggregateID == tier.ID && m.EventType == domain.EventTypeTicketsSold {
			msg = m
		}
	}
	if msg == nil {
		t.Fatal("Expected a ticket.sold outbox row for the reservation")
	}

	var payload domain.TicketLifecyclePayload
	if err := msg.GetPayload(&payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if payload.Quantity != 1 || payload.PurchaseID != "purchase-ob" {
		t.Errorf("Unexpected payload: %+v", payload)
	}

	if err := outbox.MarkAsFailed(ctx, msg.ID, "broker down"); err != nil {
		t.Fatalf("Failed to mark failed: %v", err)
	}
	failed, err := outbox.GetFailedMessages(ctx, 100)
	if err != nil {
		t.Fatalf("Failed to get failed: %v", err)
	}
	found := false
	for _, m := range failed {
		if m.ID == msg.ID {
			found = true
		}
	}
	if !found {
		t.Error("Expected message in failed set")
	}

	if err := outbox.ResetForRetry(ctx, msg.ID); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if err := outbox.MarkAsPublished(ctx, msg.ID); err != nil {
		t.Fatalf("Failed to mark published: %v", err)
	}

	deleted, err := outbox.DeletePublishedBefore(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}
	if deleted < 1 {
		t.Errorf("Expected at least 1 deleted row, got %d", deleted)
	}
}
