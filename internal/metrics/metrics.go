package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

var (
	// Inventory counters
	TicketsReserved  *telemetry.Counter
	TicketsReleased  *telemetry.Counter
	TicketsCheckedIn *telemetry.Counter
	ReserveRejected  *telemetry.Counter
	CheckInRejected  *telemetry.Counter

	// Catalog counters
	EventsCreated *telemetry.Counter
	PoolsCreated  *telemetry.Counter

	// Histograms
	ReserveDuration *telemetry.Histogram
	PoolSize        *telemetry.Histogram

	// Gauges
	OutboxPending *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all inventory metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	TicketsReserved, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_reservations_total",
		Description: "Total number of tickets reserved",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketsReleased, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_releases_total",
		Description: "Total number of tickets released back to the pool",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TicketsCheckedIn, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_checkins_total",
		Description: "Total number of tickets checked in",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReserveRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_reserve_rejections_total",
		Description: "Total number of rejected reservations by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CheckInRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_checkin_rejections_total",
		Description: "Total number of rejected check-ins by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	EventsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "events_created_total",
		Description: "Total number of events created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PoolsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticket_pools_created_total",
		Description: "Total number of tier pools generated",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReserveDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "ticket_reserve_duration_seconds",
		Description: "Reservation transaction duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
	if err != nil {
		return err
	}

	PoolSize, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "ticket_pool_size",
		Description: "Ticket pool size per created tier",
		Unit:        "1",
	}, []float64{10, 50, 100, 250, 500, 1000})
	if err != nil {
		return err
	}

	OutboxPending, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "outbox_pending_messages",
		Description: "Current number of pending outbox messages",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordReservation records a successful reservation
func RecordReservation(ctx context.Context, tierID string, quantity int, durationSeconds float64) {
	if TicketsReserved != nil {
		TicketsReserved.Add(ctx, int64(quantity),
			attribute.String("tier_id", tierID),
		)
	}
	if ReserveDuration != nil {
		ReserveDuration.Record(ctx, durationSeconds,
			attribute.String("tier_id", tierID),
		)
	}
}

// RecordReserveRejection records a rejected reservation
func RecordReserveRejection(ctx context.Context, tierID, reason string) {
	if ReserveRejected != nil {
		ReserveRejected.Inc(ctx,
			attribute.String("tier_id", tierID),
			attribute.String("reason", reason),
		)
	}
}

// RecordRelease records tickets returned to the pool
func RecordRelease(ctx context.Context, count int) {
	if TicketsReleased != nil {
		TicketsReleased.Add(ctx, int64(count))
	}
}

// RecordCheckIn records a successful check-in
func RecordCheckIn(ctx context.Context, eventID string) {
	if TicketsCheckedIn != nil {
		TicketsCheckedIn.Inc(ctx,
			attribute.String("event_id", eventID),
		)
	}
}

// RecordCheckInRejection records a rejected check-in
func RecordCheckInRejection(ctx context.Context, reason string) {
	if CheckInRejected != nil {
		CheckInRejected.Inc(ctx,
			attribute.String("reason", reason),
		)
	}
}

// RecordEventCreated records a created event
func RecordEventCreated(ctx context.Context, plan string) {
	if EventsCreated != nil {
		EventsCreated.Inc(ctx,
			attribute.String("plan", plan),
		)
	}
}

// RecordPoolCreated records a generated tier pool
func RecordPoolCreated(ctx context.Context, size int) {
	if PoolsCreated != nil {
		PoolsCreated.Inc(ctx)
	}
	if PoolSize != nil {
		PoolSize.Record(ctx, float64(size))
	}
}
