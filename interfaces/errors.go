package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"job-assistant/infrastructure"
	"job-assistant/pipeline"
)

// APIError is the JSON error envelope. Every failure carries Message.
type APIError struct {
	Code      int               `json:"-"`
	Message   string            `json:"error"`
	Detail    string            `json:"detail,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func newAPIError(code int, message, detail string) *APIError {
	return &APIError{Code: code, Message: message, Detail: detail}
}

func errBadRequest(message string) *APIError {
	return newAPIError(http.StatusBadRequest, message, "")
}

func errValidation(fields map[string]string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// classify maps pipeline and store errors onto HTTP statuses.
func classify(err error) *APIError {
	var apiErr *APIError
	var exists *infrastructure.JobExistsError

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &exists):
		return newAPIError(http.StatusConflict, "job posting already exists",
			fmt.Sprintf("%q at %q has id %d", exists.Existing.Title, exists.Existing.Company, exists.Existing.ID))
	case errors.Is(err, infrastructure.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, pipeline.ErrNoData):
		return newAPIError(http.StatusUnprocessableEntity, "no data could be extracted", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "extraction service timed out", err.Error())
	case errors.Is(err, pipeline.ErrDecode):
		return newAPIError(http.StatusInternalServerError, "malformed structured response", err.Error())
	case errors.Is(err, pipeline.ErrUpstream):
		return newAPIError(http.StatusInternalServerError, "extraction service failed", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal error", err.Error())
	}
}

// respondError writes the envelope for err and logs server side failures.
func respondError(c *gin.Context, err error) {
	apiErr := classify(err)
	apiErr.RequestID = requestID(c)

	if apiErr.Code >= http.StatusInternalServerError {
		requestLogger(c).Error("request failed", zap.Int("status", apiErr.Code), zap.Error(err))
	}
	c.AbortWithStatusJSON(apiErr.Code, apiErr)
}
