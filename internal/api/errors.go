package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/healthassist/healthassist/internal/llm"
)

// AppError is an error with the HTTP status it should be reported with.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Message: "bad request"}
	ErrInvalidJSON        = &AppError{Code: http.StatusBadRequest, Message: "invalid request body"}
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Message: "not found"}
	ErrPayloadTooLarge    = &AppError{Code: http.StatusRequestEntityTooLarge, Message: "request body too large"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Message: "internal server error"}
	ErrServiceUnavailable = &AppError{Code: http.StatusServiceUnavailable, Message: "Service configuration error"}
)

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func NewUpstreamError(msg string) *AppError {
	return &AppError{Code: http.StatusBadGateway, Message: msg}
}

// HandleError writes err as a JSON error body. A missing model capability is
// reported as a generic configuration error; anything unrecognised is a 500
// whose detail only goes to the log.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONError(w, appErr.Code, appErr.Message)
		return
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		JSONError(w, ErrServiceUnavailable.Code, ErrServiceUnavailable.Message)
		return
	}
	slog.Error("unhandled error", "error", err)
	JSONError(w, http.StatusInternalServerError, ErrInternalServer.Message)
}
