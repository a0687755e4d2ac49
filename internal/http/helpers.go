package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/search"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidParameter = "invalid_parameter"
	CodeStoreUnavailable = "store_unavailable"
	CodeQueueDisabled    = "queue_disabled"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondQueueDisabled answers endpoints that need the task queue when it is off.
func respondQueueDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error: "task queue is not enabled",
		Code:  CodeQueueDisabled,
	})
}

// respondSearchError maps engine errors onto status codes: validation
// problems are the caller's fault, store failures are ours and retryable.
func respondSearchError(c *gin.Context, err error) {
	var verr *search.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   verr.Error(),
			Code:    CodeInvalidParameter,
			Details: gin.H{"facet": verr.Facet},
		})
	case errors.Is(err, search.ErrStoreUnavailable):
		log.Printf("[SEARCH] %v", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "book store unavailable",
			Code:  CodeStoreUnavailable,
		})
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "search timed out")
	default:
		respondInternalError(c, err, "search")
	}
}

// --- Success Response Helpers ---

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseBoolQuery reads an optional boolean query parameter.
// Returns the parsed value or responds with a 400 error and returns false, false.
func parseBoolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return false, false
	}
	return v, true
}
