package foodscan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/internal/api"
	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
	mw "github.com/healthassist/healthassist/internal/middleware"
	inats "github.com/healthassist/healthassist/internal/nats"
)

// ScanRecorder receives one event per scan. It may be nil.
type ScanRecorder interface {
	PublishScanEvent(ctx context.Context, event inats.ScanEvent) error
}

type Handler struct {
	recognizer *Recognizer
	analyzer   *Analyzer
	recorder   ScanRecorder
}

func NewHandler(recognizer *Recognizer, analyzer *Analyzer, recorder ScanRecorder) *Handler {
	return &Handler{recognizer: recognizer, analyzer: analyzer, recorder: recorder}
}

type imageScanRequest struct {
	ImageData   string                    `json:"imageData"`
	UserProfile *conversation.UserProfile `json:"userProfile"`
	Objective   string                    `json:"objective"`
}

type imageScanResponse struct {
	Status      conversation.Status `json:"status"`
	Description string              `json:"description"`
	FoodItem    string              `json:"foodItem"`
	IsAllowed   bool                `json:"isAllowed"`
	Reason      string              `json:"reason"`
}

// ImageScan handles POST /api/image-scan.
func (h *Handler) ImageScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req imageScanRequest
	upload, err := DecodeUpload(w, r, &req)
	if err != nil {
		api.HandleError(w, ImageError(err))
		return
	}

	img, err := resolveImage(upload, req.ImageData)
	if err != nil {
		api.HandleError(w, ImageError(err))
		return
	}

	rec, err := h.recognizer.Recognize(r.Context(), img, req.UserProfile, req.Objective)
	h.record(r, "image-scan", rec.verdict(), err, start)
	if err != nil {
		handleModelError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, imageScanResponse{
		Status:      conversation.StatusSuccess,
		Description: rec.Description,
		FoodItem:    rec.FoodItem,
		IsAllowed:   rec.IsAllowed,
		Reason:      rec.Reason,
	})
}

type analyzeRequest struct {
	Image string `json:"image"`
	Preferences
}

type analyzeResponse struct {
	Success  bool      `json:"success"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Analyze handles POST /api/analyze. Its body uses the success/error shape
// the ingredient scanner frontend expects.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req analyzeRequest
	if err := api.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		api.JSON(w, http.StatusBadRequest, analyzeResponse{Error: "No image data provided"})
		return
	}
	if req.Image == "" {
		api.JSON(w, http.StatusBadRequest, analyzeResponse{Error: "No image data provided"})
		return
	}
	img, err := DecodeBase64(req.Image)
	if err != nil {
		api.JSON(w, http.StatusBadRequest, analyzeResponse{Error: "Invalid image data"})
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), img, req.Preferences)
	verdict := ""
	if analysis != nil {
		verdict = analysis.DietCompatibility.Status
	}
	h.record(r, "analyze", verdict, err, start)

	var analysisErr *AnalysisError
	switch {
	case err == nil:
		api.JSON(w, http.StatusOK, analyzeResponse{Success: true, Analysis: analysis})
	case errors.Is(err, llm.ErrNotConfigured):
		api.JSON(w, http.StatusServiceUnavailable, analyzeResponse{Error: "Service configuration error"})
	case errors.As(err, &analysisErr):
		slog.Error("invalid ingredient analysis", "error", err)
		api.JSON(w, http.StatusBadGateway, analyzeResponse{Error: analysisErr.Message})
	default:
		slog.Error("analysing ingredients", "error", err)
		api.JSON(w, http.StatusBadGateway, analyzeResponse{Error: "Error analyzing ingredients. Please try again."})
	}
}

// resolveImage prefers an uploaded file over inline base64 data.
func resolveImage(upload *Image, inline string) (Image, error) {
	if upload != nil {
		return *upload, nil
	}
	return DecodeBase64(inline)
}

func handleModelError(w http.ResponseWriter, err error) {
	if errors.Is(err, llm.ErrNotConfigured) {
		api.HandleError(w, api.ErrServiceUnavailable)
		return
	}
	slog.Error("food recognition failed", "error", err)
	api.HandleError(w, api.NewUpstreamError(err.Error()))
}

func (rec Recognition) verdict() string {
	if rec.FoodItem == "" {
		return ""
	}
	if rec.IsAllowed {
		return "allowed"
	}
	return "not allowed"
}

func (h *Handler) record(r *http.Request, endpoint, verdict string, scanErr error, start time.Time) {
	if h.recorder == nil {
		return
	}
	event := inats.ScanEvent{
		ID:         uuid.New(),
		RequestID:  mw.GetRequestID(r.Context()),
		Endpoint:   endpoint,
		Status:     string(conversation.StatusSuccess),
		Verdict:    verdict,
		DurationMS: time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if h.recognizer.vision != nil {
		event.Provider = h.recognizer.vision.Name()
	}
	if scanErr != nil {
		event.Status = string(conversation.StatusError)
		event.Error = scanErr.Error()
	}
	if err := h.recorder.PublishScanEvent(r.Context(), event); err != nil {
		slog.Warn("publishing scan event", "error", err, "request_id", event.RequestID)
	}
}
