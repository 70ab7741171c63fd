package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/healthassist/healthassist/internal/api"
)

// Store lists persisted events.
type Store interface {
	ListTurns(ctx context.Context, params ListParams) ([]TurnRecord, int64, error)
	ListScans(ctx context.Context, params ListParams) ([]ScanRecord, int64, error)
}

// Handler serves the audit trail. A nil store means no database is
// configured and every request gets 503.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

var errAuditUnavailable = &api.AppError{Code: http.StatusServiceUnavailable, Message: "audit storage not configured"}

// ListTurns handles GET /api/audit/turns.
func (h *Handler) ListTurns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.HandleError(w, errAuditUnavailable)
		return
	}

	params := parseListParams(r)
	turns, total, err := h.store.ListTurns(r.Context(), params)
	if err != nil {
		slog.Error("listing agent turns", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if turns == nil {
		turns = []TurnRecord{}
	}

	api.JSONPaginated(w, http.StatusOK, turns, total, params.Page, params.PageSize)
}

// ListScans handles GET /api/audit/scans.
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		api.HandleError(w, errAuditUnavailable)
		return
	}

	params := parseListParams(r)
	scans, total, err := h.store.ListScans(r.Context(), params)
	if err != nil {
		slog.Error("listing food scans", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if scans == nil {
		scans = []ScanRecord{}
	}

	api.JSONPaginated(w, http.StatusOK, scans, total, params.Page, params.PageSize)
}

func parseListParams(r *http.Request) ListParams {
	params := DefaultListParams()
	q := r.URL.Query()

	params.AgentType = q.Get("agent_type")
	params.Status = q.Get("status")
	params.Endpoint = q.Get("endpoint")

	if p := q.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			params.Page = page
		}
	}
	if ps := q.Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil && pageSize > 0 && pageSize <= maxPageSize {
			params.PageSize = pageSize
		}
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.To = &t
		}
	}

	return params
}
