package di

import (
	"github.com/arjul1989/gradanegra-sub001/internal/gateway"
	"github.com/arjul1989/gradanegra-sub001/internal/handler"
	"github.com/arjul1989/gradanegra-sub001/internal/policy"
	"github.com/arjul1989/gradanegra-sub001/internal/repository"
	"github.com/arjul1989/gradanegra-sub001/internal/service"
	"github.com/arjul1989/gradanegra-sub001/internal/worker"
	"github.com/arjul1989/gradanegra-sub001/pkg/config"
	"github.com/arjul1989/gradanegra-sub001/pkg/database"
	"github.com/arjul1989/gradanegra-sub001/pkg/kafka"
	"github.com/arjul1989/gradanegra-sub001/pkg/redis"
)

// Container holds all dependencies for the ticketing service
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer

	// Repositories
	EventRepo     repository.EventRepository
	DateRepo      repository.DateRepository
	InventoryRepo repository.InventoryRepository
	CounterRepo   repository.CounterRepository
	OutboxRepo    repository.OutboxRepository
	Cache         repository.AvailabilityCache

	// Domain policy
	CapacityPolicy *policy.EventCapacityPolicy

	// Gateway
	PaymentGateway gateway.PaymentGateway

	// Services
	EventService     service.EventService
	InventoryService service.InventoryService

	// Worker
	OutboxWorker *worker.OutboxWorker

	// Handlers
	HealthHandler  *handler.HealthHandler
	EventHandler   *handler.EventHandler
	TicketHandler  *handler.TicketHandler
	WebhookHandler *handler.WebhookHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config   *config.Config
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	ticketing := cfg.Config.Ticketing

	// Repositories
	c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
	c.DateRepo = repository.NewPostgresDateRepository(c.DB.Pool())
	c.InventoryRepo = repository.NewPostgresInventoryRepository(c.DB.Pool(), cfg.Config.Kafka.Topic)
	c.CounterRepo = repository.NewPostgresCounterRepository(c.DB.Pool())
	c.OutboxRepo = repository.NewPostgresOutboxRepository(c.DB.Pool())
	if c.Redis != nil {
		c.Cache = repository.NewRedisAvailabilityCache(c.Redis.Client(), ticketing.AvailabilityCacheTTL)
	}

	c.CapacityPolicy = policy.NewEventCapacityPolicy(nil)
	c.PaymentGateway = gateway.NewMockGateway(nil)

	// Services
	c.InventoryService = service.NewInventoryService(
		c.InventoryRepo,
		c.DateRepo,
		c.EventRepo,
		c.CounterRepo,
		c.Cache,
		c.CapacityPolicy,
		&service.InventoryServiceConfig{
			NumberPrefix:   ticketing.NumberPrefix,
			MaxPerPurchase: ticketing.MaxPerPurchase,
			HashSecret:     ticketing.HashSecret,
		},
	)
	c.EventService = service.NewEventService(
		c.EventRepo,
		c.DateRepo,
		c.InventoryRepo,
		c.InventoryService,
		c.CapacityPolicy,
	)

	// Outbox worker publishes ticket lifecycle events when Kafka is enabled
	if c.Producer != nil {
		c.OutboxWorker = worker.NewOutboxWorker(c.OutboxRepo, c.Producer, nil)
	}

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.TicketHandler = handler.NewTicketHandler(c.InventoryService)
	c.WebhookHandler = handler.NewWebhookHandler(c.InventoryService, c.PaymentGateway)

	return c
}

// Close releases container resources
func (c *Container) Close() {
	if c.OutboxWorker != nil {
		c.OutboxWorker.Stop()
	}
	if c.Producer != nil {
		c.Producer.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
