package api

import (
	"errors"
	"fmt"
	"net/http"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// ErrorCode is a string type for consistent error codes.
type ErrorCode string

const (
	ErrorCodeInternalServerError ErrorCode = "internal_server_error"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed    ErrorCode = "method_not_allowed"

	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInvalidFormat    ErrorCode = "invalid_format"

	ErrorCodeResourceNotFound  ErrorCode = "resource_not_found"
	ErrorCodeDuplicateResource ErrorCode = "duplicate_resource"
)

type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details any, statusCode int) APIError {
	return APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

func invalidFormat(format string, args ...any) APIError {
	return NewAPIError(ErrorCodeInvalidFormat, fmt.Sprintf(format, args...), nil, http.StatusBadRequest)
}

// toAPIError maps service errors onto the wire error. Unknown errors are
// internal and keep their message.
func toAPIError(err error) APIError {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		var details any
		if verr.Field != "" {
			details = map[string]string{"field": verr.Field}
		}
		return NewAPIError(ErrorCodeValidationFailed, verr.Error(), details, http.StatusBadRequest)
	case errors.Is(err, db.ErrAlreadyExists):
		return NewAPIError(ErrorCodeDuplicateResource, err.Error(), nil, http.StatusBadRequest)
	case errors.Is(err, db.ErrNotFound):
		return NewAPIError(ErrorCodeResourceNotFound, err.Error(), nil, http.StatusNotFound)
	default:
		return NewAPIError(ErrorCodeInternalServerError, err.Error(), nil, http.StatusInternalServerError)
	}
}
