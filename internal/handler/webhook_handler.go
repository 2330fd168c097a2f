package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arjul1989/gradanegra-sub001/internal/dto"
	"github.com/arjul1989/gradanegra-sub001/internal/gateway"
	"github.com/arjul1989/gradanegra-sub001/internal/service"
	"github.com/arjul1989/gradanegra-sub001/pkg/logger"
)

// WebhookHandler handles payment provider callbacks
type WebhookHandler struct {
	inventory service.InventoryService
	gateway   gateway.PaymentGateway
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(inventory service.InventoryService, paymentGateway gateway.PaymentGateway) *WebhookHandler {
	return &WebhookHandler{
		inventory: inventory,
		gateway:   paymentGateway,
	}
}

// HandlePaymentWebhook handles POST /webhooks/payment. A rejected or expired
// payment releases the purchase's tickets back to the pool. The provider
// retries deliveries, so failures to apply still acknowledge with 200 and
// rely on the release being idempotent.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	log := logger.Get()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if signature == "" {
		log.Warn("missing webhook signature header")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-Webhook-Signature header"})
		return
	}
	if !h.gateway.VerifyWebhookSignature(payload, signature) {
		log.Warn("invalid webhook signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if req.PurchaseID == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase_id and status are required"})
		return
	}

	log.Info("received payment webhook",
		zap.String("purchase_id", req.PurchaseID),
		zap.String("status", req.Status),
	)

	result, err := h.inventory.HandlePaymentResult(c.Request.Context(), &req)
	if err != nil {
		log.Error("failed to apply payment webhook",
			zap.String("purchase_id", req.PurchaseID),
			zap.Error(err),
		)
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "released": result.Released})
}
