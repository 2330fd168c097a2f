package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentGateway defines the interface for payment processing
type PaymentGateway interface {
	// Charge processes a payment charge for a ticket purchase
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)

	// Refund refunds a charge, used when sold tickets are released
	Refund(ctx context.Context, transactionID string, amount float64) error

	// GetTransaction retrieves transaction details
	GetTransaction(ctx context.Context, transactionID string) (*TransactionInfo, error)

	// VerifyWebhookSignature checks the signature on an incoming webhook payload
	VerifyWebhookSignature(payload []byte, signature string) bool

	// Name returns the gateway name
	Name() string
}

// ChargeRequest represents a charge request
type ChargeRequest struct {
	PurchaseID  string
	Amount      float64
	Currency    string
	Description string
	Metadata    map[string]string

	CustomerID    string
	CustomerEmail string
}

// ChargeResponse represents a charge response
type ChargeResponse struct {
	Success       bool
	TransactionID string
	Status        string
	FailureReason string
	Metadata      map[string]string
}

// TransactionInfo represents transaction details
type TransactionInfo struct {
	TransactionID string
	PurchaseID    string
	Status        string
	Amount        float64
	Currency      string
	CreatedAt     string
	Metadata      map[string]string
}

// GatewayConfig holds common gateway configuration
type GatewayConfig struct {
	APIKey        string
	SecretKey     string
	WebhookSecret string
	Environment   string // "test" or "live"
}

// signPayload computes the hex HMAC-SHA256 signature a gateway puts on
// webhook deliveries.
func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares a received signature against the expected one in
// constant time.
func verifySignature(secret string, payload []byte, signature string) bool {
	expected := signPayload(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
