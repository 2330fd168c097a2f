package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/internal/dto"
	"github.com/arjul1989/gradanegra-sub001/pkg/middleware"
)

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, organizerID string, plan domain.Plan, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	args := m.Called(ctx, organizerID, plan, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, req *dto.ListEventsRequest) ([]*dto.EventResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, organizerID, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	args := m.Called(ctx, organizerID, eventID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) ChangeStatus(ctx context.Context, organizerID, eventID string, req *dto.UpdateEventStatusRequest) (*dto.EventResponse, error) {
	args := m.Called(ctx, organizerID, eventID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) SetFeatured(ctx context.Context, organizerID string, plan domain.Plan, eventID string, featured bool) (*dto.EventResponse, error) {
	args := m.Called(ctx, organizerID, plan, eventID, featured)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, organizerID, eventID string) error {
	args := m.Called(ctx, organizerID, eventID)
	return args.Error(0)
}

func (m *MockEventService) CreateDate(ctx context.Context, organizerID, eventID string, req *dto.CreateDateRequest) (*dto.DateResponse, error) {
	args := m.Called(ctx, organizerID, eventID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DateResponse), args.Error(1)
}

func (m *MockEventService) GetDate(ctx context.Context, dateID string) (*dto.DateResponse, error) {
	args := m.Called(ctx, dateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DateResponse), args.Error(1)
}

func (m *MockEventService) ListDates(ctx context.Context, eventID string) ([]*dto.DateResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.DateResponse), args.Error(1)
}

func (m *MockEventService) DeleteDate(ctx context.Context, organizerID, eventID, dateID string) error {
	args := m.Called(ctx, organizerID, eventID, dateID)
	return args.Error(0)
}

func setupEventTestRouter(handler *EventHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Claims injected from headers instead of a real JWT
	router.Use(func(c *gin.Context) {
		if organizerID := c.GetHeader("X-Organizer-ID"); organizerID != "" {
			c.Set(middleware.ContextKeyOrganizerID, organizerID)
		}
		if plan := c.GetHeader("X-Plan"); plan != "" {
			c.Set(middleware.ContextKeyPlan, plan)
		}
		c.Next()
	})

	events := router.Group("/api/v1/events")
	{
		events.POST("", handler.Create)
		events.GET("", handler.List)
		events.GET("/:id", handler.Get)
		events.PUT("/:id", handler.Update)
		events.PATCH("/:id/status", handler.ChangeStatus)
		events.PATCH("/:id/feature", handler.Feature)
		events.DELETE("/:id", handler.Delete)
		events.POST("/:id/dates", handler.CreateDate)
		events.GET("/:id/dates", handler.ListDates)
		events.DELETE("/:id/dates/:dateId", handler.DeleteDate)
	}
	return router
}

func TestEventHandler_Create(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("CreateEvent", mock.Anything, "org-1", domain.PlanPro, mock.Anything).
		Return(&dto.EventResponse{ID: "evt-1", Name: "Concert", Status: "active"}, nil)

	body, _ := json.Marshal(dto.CreateEventRequest{Name: "Concert"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("X-Organizer-ID", "org-1")
	req.Header.Set("X-Plan", "pro")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestEventHandler_Create_Unauthorized(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	body, _ := json.Marshal(dto.CreateEventRequest{Name: "Concert"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "CreateEvent")
}

func TestEventHandler_Create_QuotaExceeded(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("CreateEvent", mock.Anything, "org-1", domain.PlanFree, mock.Anything).
		Return(nil, domain.ErrEventQuotaExceeded)

	body, _ := json.Marshal(dto.CreateEventRequest{Name: "Second"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("X-Organizer-ID", "org-1")
	req.Header.Set("X-Plan", "free")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEventHandler_Create_MissingPlanDefaultsToFree(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("CreateEvent", mock.Anything, "org-1", domain.PlanFree, mock.Anything).
		Return(&dto.EventResponse{ID: "evt-1"}, nil)

	body, _ := json.Marshal(dto.CreateEventRequest{Name: "Concert"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("X-Organizer-ID", "org-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestEventHandler_Get_NotFound(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("GetEvent", mock.Anything, "missing").Return(nil, domain.ErrEventNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_ChangeStatus_IllegalTransition(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("ChangeStatus", mock.Anything, "org-1", "evt-1", mock.Anything).
		Return(nil, domain.ErrIllegalTransition)

	body, _ := json.Marshal(dto.UpdateEventStatusRequest{Status: "active"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/events/evt-1/status", bytes.NewReader(body))
	req.Header.Set("X-Organizer-ID", "org-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEventHandler_CreateDate_InvalidCapacity(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("CreateDate", mock.Anything, "org-1", "evt-1", mock.Anything).
		Return(nil, domain.ErrInvalidCapacity)

	body := []byte(`{"date":"2026-10-01T00:00:00Z","capacity":5000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/evt-1/dates", bytes.NewReader(body))
	req.Header.Set("X-Organizer-ID", "org-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandler_DeleteDate_SoldTickets(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("DeleteDate", mock.Anything, "org-1", "evt-1", "date-1").
		Return(domain.ErrDateHasSoldTickets)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/events/evt-1/dates/date-1", nil)
	req.Header.Set("X-Organizer-ID", "org-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEventHandler_List(t *testing.T) {
	mockService := new(MockEventService)
	router := setupEventTestRouter(NewEventHandler(mockService))

	mockService.On("ListEvents", mock.Anything, mock.Anything).
		Return([]*dto.EventResponse{{ID: "evt-1"}, {ID: "evt-2"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?city=Madrid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    []*dto.EventResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 2)
}
