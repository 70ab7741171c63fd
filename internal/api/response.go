package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrorBody is the error shape every endpoint shares.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

// JSON writes data as the whole response body.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Status: "error", Message: message})
}

func JSONPaginated(w http.ResponseWriter, status int, data any, totalCount int64, page, pageSize int) {
	JSON(w, status, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// DecodeJSON reads a JSON body of at most maxBytes into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrPayloadTooLarge
		}
		return ErrInvalidJSON
	}
	return nil
}
