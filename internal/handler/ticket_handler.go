package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/dto"
	"github.com/arjul1989/gradanegra-sub001/internal/service"
	"github.com/arjul1989/gradanegra-sub001/pkg/response"
)

// TicketHandler handles tier, reservation and check-in HTTP requests
type TicketHandler struct {
	inventory service.InventoryService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(inventory service.InventoryService) *TicketHandler {
	return &TicketHandler{inventory: inventory}
}

// CreateTier handles POST /dates/:id/tiers
func (h *TicketHandler) CreateTier(c *gin.Context) {
	organizerID, _, ok := organizerContext(c)
	if !ok {
		return
	}

	var req dto.CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	tier, err := h.inventory.CreateTier(c.Request.Context(), organizerID, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, tier)
}

// ListTiers handles GET /dates/:id/tiers
func (h *TicketHandler) ListTiers(c *gin.Context) {
	tiers, err := h.inventory.ListTiers(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tiers)
}

// GetAvailability handles GET /dates/:id/availability
func (h *TicketHandler) GetAvailability(c *gin.Context) {
	availability, err := h.inventory.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, availability)
}

// Reserve handles POST /reservations
func (h *TicketHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	reservation, err := h.inventory.Reserve(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, reservation)
}

// Release handles POST /reservations/release
func (h *TicketHandler) Release(c *gin.Context) {
	var req dto.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	released, err := h.inventory.Release(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, released)
}

// CheckIn handles POST /checkin. A ticket scanned twice returns 409 with
// the original check-in context so door staff can see who entered and when.
func (h *TicketHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.inventory.CheckIn(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrTicketAlreadyUsed) && result != nil {
			c.JSON(http.StatusConflict, response.Response{
				Success: false,
				Data:    result,
				Error: &response.ErrorData{
					Code:    "ALREADY_USED",
					Message: err.Error(),
				},
			})
			return
		}
		handleError(c, err)
		return
	}

	response.Success(c, result)
}

// GetPurchaseTickets handles GET /purchases/:id/tickets
func (h *TicketHandler) GetPurchaseTickets(c *gin.Context) {
	tickets, err := h.inventory.GetPurchaseTickets(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tickets)
}
