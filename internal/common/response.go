package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// APIResponse is the standardized JSON response envelope.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError contains error details in the response.
type APIError struct {
	Code              int    `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// Success sends a successful JSON response with data.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// Error sends an error JSON response.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    statusCode,
			Message: message,
		},
	})
}

// HandleError inspects a domain error and sends the appropriate HTTP response.
// Uses errors.As to traverse the full error chain, supporting wrapped errors.
func HandleError(c *gin.Context, err error) {
	var notFound *NotFoundError
	var invalid *InvalidArgumentError
	var quota *QuotaExceededError
	var unauthorized *UnauthorizedError
	var queueDown *QueueUnavailableError

	switch {
	case errors.As(err, &notFound):
		Error(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalid):
		Error(c, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &quota):
		c.Header("Retry-After", strconv.Itoa(quota.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, APIResponse{
			Success: false,
			Error: &APIError{
				Code:              http.StatusTooManyRequests,
				Message:           quota.Reason,
				RetryAfterSeconds: quota.RetryAfterSeconds,
			},
		})
	case errors.As(err, &unauthorized):
		Error(c, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &queueDown):
		Error(c, http.StatusServiceUnavailable, "notification could not be queued")
	default:
		Error(c, http.StatusInternalServerError, "internal server error")
	}
}
