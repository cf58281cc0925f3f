// Package handler exposes the KYC webhook, completion and health endpoints.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"kycore/internal/kyc/models"
	"kycore/internal/kyc/service"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/httputil"
	"kycore/pkg/requestcontext"
)

// maxWebhookBytes caps provider callback bodies.
const maxWebhookBytes = 1 << 20

//go:generate mockgen -source=handler.go -destination=mocks/mock_service.go -package=mocks Service

// Service is the orchestrator surface the handler needs.
type Service interface {
	ProcessDriverWebhook(ctx context.Context, driverName string, payload []byte, headers http.Header) (*models.VerificationResponse, error)
	CompleteVerification(ctx context.Context, reference, completionStatus string) (*service.CompletionResult, error)
	DefaultDriver() string
	AvailableDrivers() []string
	EnabledDrivers() []string
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the routes under /api/kyc and the legacy /kyc prefix.
func (h *Handler) Register(r chi.Router) {
	routes := chi.NewRouter()
	routes.Post("/webhook", h.HandleWebhook)
	routes.Post("/webhook/callback", h.HandleWebhook)
	routes.Post("/webhook/{driver}", h.HandleWebhook)
	routes.Get("/verification/complete", h.HandleComplete)
	routes.Get("/health", h.HandleHealth)

	r.Mount("/api/kyc", routes)
	r.Mount("/kyc", routes)
}

type webhookResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
	Event     string `json:"event"`
}

// HandleWebhook handles POST /api/kyc/webhook[/{driver}].
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverName := chi.URLParam(r, "driver")

	ua := useragent.New(r.UserAgent())
	browser, version := ua.Browser()
	log := h.logger.With(
		"request_id", requestcontext.RequestID(ctx),
		"driver", driverName,
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent_browser", browser,
		"user_agent_version", version,
		"user_agent_os", ua.OS(),
		"user_agent_bot", ua.Bot(),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		log.WarnContext(ctx, "KYC webhook body unreadable", "error", err)
		httputil.WriteErrorStatus(w, http.StatusBadRequest, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.service.ProcessDriverWebhook(ctx, driverName, payload, r.Header)
	if err != nil {
		status := webhookStatus(err)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "KYC webhook processing failed", "error", err)
		} else {
			log.WarnContext(ctx, "KYC webhook rejected", "status", status, "error", err)
		}
		httputil.WriteErrorStatus(w, status, err)
		return
	}

	log.InfoContext(ctx, "KYC webhook processed",
		"reference", resp.Reference,
		"event", resp.Event,
	)
	httputil.WriteJSON(w, http.StatusOK, webhookResponse{
		Success:   true,
		Message:   "Webhook processed successfully",
		Reference: resp.Reference,
		Event:     resp.Event,
	})
}

// webhookStatus collapses the taxonomy to the statuses providers act on.
func webhookStatus(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound, dErrors.CodeUnknownDriver:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type completeResponse struct {
	Success     bool   `json:"success"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	Event       string `json:"event"`
	Data        any    `json:"data"`
}

// HandleComplete handles GET /api/kyc/verification/complete, the page providers
// redirect the user back to.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	reference := q.Get("reference")

	result, err := h.service.CompleteVerification(ctx, reference, q.Get("status"))
	if err != nil {
		h.logger.WarnContext(ctx, "KYC completion failed",
			"request_id", requestcontext.RequestID(ctx),
			"reference", reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, completeResponse{
		Success:     true,
		Reference:   result.Reference,
		Status:      string(result.Status),
		StatusLabel: result.Status.Label(),
		Event:       result.Event,
		Data:        result.Data.Any(),
	})
}

type healthResponse struct {
	Status           string   `json:"status"`
	DefaultDriver    string   `json:"default_driver"`
	AvailableDrivers []string `json:"available_drivers"`
	EnabledDrivers   []string `json:"enabled_drivers"`
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	enabled := h.service.EnabledDrivers()
	if enabled == nil {
		enabled = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		DefaultDriver:    h.service.DefaultDriver(),
		AvailableDrivers: h.service.AvailableDrivers(),
		EnabledDrivers:   enabled,
	})
}
