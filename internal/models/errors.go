package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError and rendered in ErrorResponse.Code.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeDuplicate     = "DUPLICATE_RESOURCE"
	CodeHasDependents = "HAS_DEPENDENTS"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeValidation    = "VALIDATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code onto the status returned at the API boundary.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeDuplicate, CodeHasDependents:
		return fiber.StatusConflict
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewNotFoundByError(resource, field string, value interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with %s %v not found", resource, field, value),
	}
}

func NewDuplicateError(resource, field string, value interface{}) *AppError {
	return &AppError{
		Code:    CodeDuplicate,
		Message: fmt.Sprintf("%s with %s '%v' already exists", resource, field, value),
	}
}

func NewHasDependentsError(resource string, id interface{}, dependents int64) *AppError {
	if dependents <= 0 {
		return &AppError{
			Code:    CodeHasDependents,
			Message: fmt.Sprintf("%s with ID %v is still referenced by posts", resource, id),
		}
	}
	return &AppError{
		Code:    CodeHasDependents,
		Message: fmt.Sprintf("%s with ID %v is still referenced by %d post(s)", resource, id, dependents),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsAppError unwraps err into an AppError. Unknown errors become INTERNAL_ERROR.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{
		Status:    status,
		Path:      c.Path(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Error = appErr.Message
		response.Code = appErr.Code
		// internal causes stay in the logs
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response.Error = err.Error()
	}

	return c.Status(status).JSON(response)
}
