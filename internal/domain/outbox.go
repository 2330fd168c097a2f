package domain

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// IsValid checks if the status is a valid OutboxStatus
func (s OutboxStatus) IsValid() bool {
	switch s {
	case OutboxStatusPending, OutboxStatusPublished, OutboxStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OutboxStatus
func (s OutboxStatus) String() string {
	return string(s)
}

// Event types published through the outbox
const (
	EventTypeTicketsSold     = "ticket.sold"
	EventTypeTicketsReleased = "ticket.released"
	EventTypeTicketCheckedIn = "ticket.checked_in"
	EventTypeEventCreated    = "event.created"
	EventTypeEventFeatured   = "event.featured"
)

// OutboxMessage represents a message in the outbox table. Rows are written
// in the same transaction as the state change they describe; a worker
// publishes them to Kafka afterwards.
type OutboxMessage struct {
	ID            string       `json:"id"`
	AggregateType string       `json:"aggregate_type"` // e.g., "ticket"
	AggregateID   string       `json:"aggregate_id"`
	EventType     string       `json:"event_type"` // e.g., "ticket.sold"
	Payload       []byte       `json:"payload"`
	Topic         string       `json:"topic"`
	PartitionKey  string       `json:"partition_key"`
	Status        OutboxStatus `json:"status"`
	RetryCount    int          `json:"retry_count"`
	MaxRetries    int          `json:"max_retries"`
	LastError     string       `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ProcessedAt   *time.Time   `json:"processed_at,omitempty"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
}

// NewOutboxMessage creates a new outbox message
func NewOutboxMessage(aggregateType, aggregateID, eventType, topic string, payload interface{}) (*OutboxMessage, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payloadBytes,
		Topic:         topic,
		PartitionKey:  aggregateID,
		Status:        OutboxStatusPending,
		RetryCount:    0,
		MaxRetries:    5,
		CreatedAt:     time.Now(),
	}, nil
}

// CanRetry checks if the message can be retried
func (m *OutboxMessage) CanRetry() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount < m.MaxRetries
}

// MarkAsPublished marks the message as successfully published
func (m *OutboxMessage) MarkAsPublished() {
	now := time.Now()
	m.Status = OutboxStatusPublished
	m.PublishedAt = &now
	m.ProcessedAt = &now
}

// MarkAsFailed marks the message as failed
func (m *OutboxMessage) MarkAsFailed(err string) {
	now := time.Now()
	m.Status = OutboxStatusFailed
	m.LastError = err
	m.RetryCount++
	m.ProcessedAt = &now
}

// ResetForRetry resets the message for retry
func (m *OutboxMessage) ResetForRetry() {
	m.Status = OutboxStatusPending
	m.ProcessedAt = nil
}

// GetPayload unmarshals the payload into the given interface
func (m *OutboxMessage) GetPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// TicketLifecyclePayload is the payload published for ticket lifecycle events
type TicketLifecyclePayload struct {
	EventType  string    `json:"event_type"`
	TierID     string    `json:"tier_id"`
	PurchaseID string    `json:"purchase_id,omitempty"`
	TicketIDs  []string  `json:"ticket_ids"`
	Quantity   int       `json:"quantity"`
	Timestamp  time.Time `json:"timestamp"`
}

// TicketOutboxEvent creates an outbox message for a ticket lifecycle event
func TicketOutboxEvent(eventType, topic, tierID, purchaseID string, ticketIDs []string) (*OutboxMessage, error) {
	payload := TicketLifecyclePayload{
		EventType:  eventType,
		TierID:     tierID,
		PurchaseID: purchaseID,
		TicketIDs:  ticketIDs,
		Quantity:   len(ticketIDs),
		Timestamp:  time.Now(),
	}
	return NewOutboxMessage("ticket", tierID, eventType, topic, payload)
}
