// Package apperr is the JSON error envelope returned by the HTTP API.
package apperr

import (
	"fmt"
	"strings"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func New(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

// NotFound reports a missing resource; the code is derived from kind, e.g.
// FIELD_NOT_FOUND.
func NotFound(kind, id string) *AppError {
	return &AppError{
		Code:    strings.ToUpper(kind) + "_NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s %s not found", kind, id),
	}
}

func InvalidPayload(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: 400, Message: msg}
}

func Conflict(code, msg string) *AppError {
	return &AppError{Code: code, Status: 409, Message: msg}
}

func Unprocessable(code, msg string) *AppError {
	return &AppError{Code: code, Status: 422, Message: msg}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

func Upstream(msg string) *AppError {
	return &AppError{Code: "COLLABORATOR_FAILED", Status: 502, Message: msg}
}
