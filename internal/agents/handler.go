package agents

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/healthassist/healthassist/internal/api"
	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/foodscan"
	"github.com/healthassist/healthassist/internal/llm"
	mw "github.com/healthassist/healthassist/internal/middleware"
)

// Handler exposes the conversational agents over HTTP.
type Handler struct {
	svc        *Service
	recognizer *foodscan.Recognizer
	validate   *validator.Validate
}

// NewHandler creates the agent handler. recognizer is used by food scans
// that carry an image.
func NewHandler(svc *Service, recognizer *foodscan.Recognizer) *Handler {
	return &Handler{
		svc:        svc,
		recognizer: recognizer,
		validate:   validator.New(),
	}
}

// DefineObjective handles POST /api/define-objective.
func (h *Handler) DefineObjective(w http.ResponseWriter, r *http.Request) {
	h.turn(w, r, "define-objective", conversation.DefineObjective)
}

// CollectHealthMetrics handles POST /api/collect-health-metrics.
func (h *Handler) CollectHealthMetrics(w http.ResponseWriter, r *http.Request) {
	h.turn(w, r, "collect-health-metrics", conversation.CollectHealthMetrics)
}

// ScanFood handles POST /api/scan-food.
func (h *Handler) ScanFood(w http.ResponseWriter, r *http.Request) {
	h.turn(w, r, "scan-food", conversation.ScanFood)
}

// Orchestrate handles POST /api/orchestrate. The agent comes from the
// request's agentType or, when absent, from the classifier.
func (h *Handler) Orchestrate(w http.ResponseWriter, r *http.Request) {
	h.turn(w, r, "orchestrate", "")
}

func (h *Handler) turn(w http.ResponseWriter, r *http.Request, endpoint string, agent conversation.AgentType) {
	var req TurnRequest
	upload, err := foodscan.DecodeUpload(w, r, &req)
	if err != nil {
		api.HandleError(w, foodscan.ImageError(err))
		return
	}

	if agent == "" && req.AgentType != "" {
		parsed, err := conversation.ParseAgentType(req.AgentType)
		if err != nil {
			api.HandleError(w, api.NewBadRequestError(fmt.Sprintf("Unknown agent type: %s", req.AgentType)))
			return
		}
		agent = parsed
	}

	conv := req.Conversation
	if agent == conversation.ScanFood && (upload != nil || req.ImageData != "") {
		conv, err = h.withRecognizedImage(r, conv, upload, req)
		if err != nil {
			handleImageFailure(w, err)
			return
		}
	}

	if len(conv) == 0 {
		api.HandleError(w, api.NewValidationError(errConversationRequired.Message))
		return
	}
	req.Conversation = conv
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(api.ValidationMessage(err)))
		return
	}

	requestID := mw.GetRequestID(r.Context())
	slog.Info("agent turn", "endpoint", endpoint, "agent", agent, "messages", len(conv), "request_id", requestID)

	resp, err := h.svc.Respond(r.Context(), RespondInput{
		Conversation: conv,
		Profile:      req.UserProfile,
		Objective:    req.Objective,
		Agent:        agent,
		RequestID:    requestID,
		Endpoint:     endpoint,
	})
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			api.HandleError(w, api.NewValidationError(ve.Message))
			return
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// withRecognizedImage identifies the food in the attached image and adds it
// to the conversation as a system note followed by a user question.
func (h *Handler) withRecognizedImage(r *http.Request, conv conversation.Conversation, upload *foodscan.Image, req TurnRequest) (conversation.Conversation, error) {
	var img foodscan.Image
	if upload != nil {
		img = *upload
	} else {
		decoded, err := foodscan.DecodeBase64(req.ImageData)
		if err != nil {
			return nil, err
		}
		img = decoded
	}

	rec, err := h.recognizer.Recognize(r.Context(), img, req.UserProfile, req.Objective)
	if err != nil {
		return nil, err
	}
	slog.Info("food image recognized", "food_item", rec.FoodItem, "request_id", mw.GetRequestID(r.Context()))

	out := conv.Clone()
	out = append(out,
		conversation.NewMessage(conversation.RoleSystem, rec.Description),
		conversation.NewMessage(conversation.RoleUser, fmt.Sprintf("Is %s allowed for my diet?", rec.FoodItem)),
	)
	return out, nil
}

func handleImageFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		api.HandleError(w, api.ErrServiceUnavailable)
	case errors.Is(err, foodscan.ErrNoImage), errors.Is(err, foodscan.ErrInvalidImage), errors.Is(err, foodscan.ErrImageTooLarge):
		api.HandleError(w, foodscan.ImageError(err))
	default:
		slog.Error("food image recognition failed", "error", err)
		api.HandleError(w, api.NewUpstreamError(err.Error()))
	}
}
