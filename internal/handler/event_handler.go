package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/dto"
	"github.com/arjul1989/gradanegra-sub001/internal/service"
	"github.com/arjul1989/gradanegra-sub001/pkg/middleware"
	"github.com/arjul1989/gradanegra-sub001/pkg/response"
)

// EventHandler handles event and date HTTP requests
type EventHandler struct {
	events service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// organizerContext pulls the organizer identity and plan from the JWT claims
func organizerContext(c *gin.Context) (string, domain.Plan, bool) {
	organizerID, ok := middleware.GetOrganizerID(c)
	if !ok || organizerID == "" {
		response.Unauthorized(c, "Organizer identity not found in token")
		return "", "", false
	}
	plan, ok := middleware.GetPlan(c)
	if !ok || plan == "" {
		plan = domain.PlanFree.String()
	}
	return organizerID, domain.Plan(plan), true
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	organizerID, plan, ok := organizerContext(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), organizerID, plan, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, event)
}

// List handles GET /events
func (h *EventHandler) List(c *gin.Context) {
	var req dto.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	events, err := h.events.ListEvents(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, events)
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, event)
}

// Update handles PUT /events/:id
func (h *EventHandler) Update(c *gin.Context) {
	organizerID, _, ok := organizerContext(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), organizerID, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, event)
}

// ChangeStatus handles PATCH /events/:id/status
func (h *EventHandler) ChangeStatus(c *gin.Context) {
	organizerID, _, ok := organizerContext(c)
	if !ok {
		return
	}

	var req dto.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.ChangeStatus(c.Request.Context(), organizerID, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, event)
}

// Feature handles PATCH /events/:id/feature
func (h *EventHandler) Feature(c *gin.Context) {
	organizerID, plan, ok := organizerContext(c)
	if !ok {
		return
	}

	var req dto.FeatureEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.SetFeatured(c.Request.Context(), organizerID, plan, c.Param("id"), req.Featured)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, event)
}

// Delete handles DELETE /events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	organizerID, _, ok := organizerContext(c)
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(c.Request.Context(), organizerID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Event deleted"})
}

// CreateDate handles POST /events/:id/dates
func (h *EventHandler) CreateDate(c *gin.Context) {
	organizerID, _, ok := organizerContext(c)
	if !ok {
		return
	}

	var req dto.CreateDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	date, err := h.events.CreateDate(c.Request.Context(), organizerID, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, date)
}

// ListDates handles GET /events/:id/dates
func (h *EventHandler) ListDates(c *gin.Context) {
	dates, err := h.events.ListDates(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dates)
}

// GetDate handles GET /dates/:id
func (h *EventHandler) GetDate(c *gin.Context) {
	date, err := h.events.GetDate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, date)
}

// DeleteDate handles DELETE /events/:id/dates/:dateId
func (h *EventHandler) DeleteDate(c *gin.Context) {
	organizerID, _, ok := organizerContext(c)
	if !ok {
		return
	}

	if err := h.events.DeleteDate(c.Request.Context(), organizerID, c.Param("id"), c.Param("dateId")); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Event date deleted"})
}
