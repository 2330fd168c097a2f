package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arjul1989/gradanegra-sub001/internal/domain"
	"github.com/arjul1989/gradanegra-sub001/pkg/response"
)

// handleError maps domain errors to HTTP responses. Resources the caller
// does not own surface as not found, so the 404 branch covers both.
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
	case domain.IsPolicyError(err):
		response.Forbidden(c, err.Error())
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, "CONFLICT", err.Error())
	default:
		response.InternalError(c, err)
	}
}
