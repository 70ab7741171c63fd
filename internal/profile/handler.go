package profile

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/healthassist/healthassist/internal/api"
	"github.com/healthassist/healthassist/internal/conversation"
	mw "github.com/healthassist/healthassist/internal/middleware"
)

const maxBody = 1 << 20

type Handler struct {
	validate *validator.Validate
}

func NewHandler() *Handler {
	return &Handler{
		validate: validator.New(),
	}
}

type defineRequest struct {
	Objective   string                    `json:"objective" validate:"required"`
	UserProfile *conversation.UserProfile `json:"userProfile"`
}

type defineResponse struct {
	Status             conversation.Status       `json:"status"`
	UpdatedUserProfile *conversation.UserProfile `json:"updatedUserProfile"`
}

// Define handles POST /api/define-health-profile.
func (h *Handler) Define(w http.ResponseWriter, r *http.Request) {
	var req defineRequest
	if err := api.DecodeJSON(w, r, maxBody, &req); err != nil {
		api.HandleError(w, err)
		return
	}
	req.Objective = strings.TrimSpace(req.Objective)
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(api.ValidationMessage(err)))
		return
	}

	updated := Associate(req.UserProfile, req.Objective)
	slog.Info("health profile associated",
		"objective", req.Objective,
		"keys", len(updated.Keys()),
		"request_id", mw.GetRequestID(r.Context()),
	)

	api.JSON(w, http.StatusOK, defineResponse{
		Status:             conversation.StatusSuccess,
		UpdatedUserProfile: updated,
	})
}
