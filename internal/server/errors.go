package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"exoclass/internal/ml"
	"exoclass/internal/schema"
)

// APIError is the error body returned by every endpoint.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Application error codes
const (
	ErrorCodeValidation          = "VALIDATION_ERROR"
	ErrorCodeSchemaMismatch      = "SCHEMA_MISMATCH"
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorCodeRequestTimeout      = "REQUEST_TIMEOUT"
	ErrorCodeBatchTooLarge       = "BATCH_TOO_LARGE"
)

// RespondWithError sends a standardized JSON error response.
func RespondWithError(c *gin.Context, httpStatus int, appErrorCode string, message string, details interface{}) {
	c.AbortWithStatusJSON(httpStatus, APIError{
		Code:    appErrorCode,
		Message: message,
		Details: details,
	})
}

// mismatchDetails is the detail body of a SCHEMA_MISMATCH error.
type mismatchDetails struct {
	ModelVersion string   `json:"model_version"`
	Missing      []string `json:"missing"`
}

// errorBody maps a service error to its status and envelope.
func errorBody(err error) (int, APIError) {
	var verr *schema.ValidationError
	var mismatch *ml.SchemaMismatchError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, APIError{
			Code:    ErrorCodeValidation,
			Message: "observation failed validation",
			Details: verr.Fields,
		}
	case errors.Is(err, schema.ErrMalformed):
		return http.StatusBadRequest, APIError{
			Code:    ErrorCodeValidation,
			Message: err.Error(),
		}
	case errors.As(err, &mismatch):
		return http.StatusInternalServerError, APIError{
			Code:    ErrorCodeSchemaMismatch,
			Message: "engineered features do not match the classifier input",
			Details: mismatchDetails{ModelVersion: mismatch.ModelVersion, Missing: mismatch.Missing},
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, APIError{
			Code:    ErrorCodeRequestTimeout,
			Message: "request did not complete in time",
		}
	default:
		return http.StatusInternalServerError, APIError{
			Code:    ErrorCodeInternalServerError,
			Message: "internal server error",
		}
	}
}

// respondError logs server-side failures and writes the envelope for err.
func respondError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("code", body.Code).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}
