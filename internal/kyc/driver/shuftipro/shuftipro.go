// Package shuftipro implements the ShuftiPro verification driver.
package shuftipro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
	"kycore/internal/kyc/validation"
)

var capabilities = driver.NewCapabilities(
	driver.FeatureDocumentVerification,
	driver.FeatureFaceVerification,
	driver.FeatureAddressVerification,
	driver.FeatureBackgroundChecks,
	driver.FeatureAgeVerification,
	driver.FeatureJourneyVerification,
	driver.FeatureDirectAPI,
	driver.FeatureWebhookCallbacks,
	driver.FeatureDocumentDownload,
)

// Driver talks to the ShuftiPro REST API.
type Driver struct {
	cfg        Config
	httpClient *http.Client
	storage    driver.DocumentStorage
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Driver)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Driver) { d.httpClient = c }
}

func WithStorage(s driver.DocumentStorage) Option {
	return func(d *Driver) { d.storage = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock overrides the clock used for generated references.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

func New(cfg Config, opts ...Option) *Driver {
	cfg = cfg.withDefaults()
	d := &Driver{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		storage:    driver.DiscardStorage{},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Name() string                      { return Name }
func (d *Driver) Enabled() bool                     { return d.cfg.Enabled }
func (d *Driver) Capabilities() driver.Capabilities { return capabilities }

func (d *Driver) Config() map[string]any {
	return map[string]any{
		"base_url":     d.cfg.BaseURL,
		"client_id":    d.cfg.ClientID,
		"secret_key":   redact(d.cfg.SecretKey),
		"callback_url": d.cfg.CallbackURL,
		"redirect_url": d.cfg.RedirectURL,
		"storage_path": d.cfg.StoragePath,
		"timeout":      d.cfg.Timeout.String(),
	}
}

// GenerateReference builds a reference of the form SP_<unix>_<8 hex chars>.
func (d *Driver) GenerateReference() string {
	return fmt.Sprintf("SP_%d_%s", d.now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (d *Driver) CreateVerification(ctx context.Context, owner models.Owner, req models.VerificationRequest) (*models.VerificationResponse, error) {
	if d.cfg.ClientID == "" || d.cfg.SecretKey == "" {
		return nil, driver.NewProviderError(driver.ErrorAuthentication, Name, "client id and secret key are required", nil)
	}
	reference := req.Reference
	if reference == "" {
		reference = d.GenerateReference()
	}

	body := map[string]any{
		"reference":    reference,
		"email":        req.Email,
		"callback_url": firstNonEmpty(req.CallbackURL, d.cfg.CallbackURL),
		"redirect_url": firstNonEmpty(req.RedirectURL, d.cfg.RedirectURL),
	}
	setIf(body, "country", req.Country)
	setIf(body, "language", req.Language)
	setIf(body, "journey_id", req.JourneyID)
	if len(req.AllowedCountries) > 0 {
		body["allowed_countries"] = req.AllowedCountries
	}
	if len(req.DeniedCountries) > 0 {
		body["denied_countries"] = req.DeniedCountries
	}
	for k, v := range req.AdditionalData {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}

	payload, err := d.post(ctx, "/", body)
	if err != nil {
		return nil, err
	}
	if payload.String("reference") == "" {
		payload["reference"] = reference
	}
	d.logger.InfoContext(ctx, "shuftipro verification created",
		"reference", reference,
		"owner", owner.Ref.String(),
		"event", payload.String("event"),
	)
	return d.toResponse(payload), nil
}

func (d *Driver) CreateSimpleVerification(ctx context.Context, owner models.Owner, opts driver.SimpleOptions) (*models.VerificationResponse, error) {
	return d.CreateVerification(ctx, owner, opts.Request(owner))
}

func (d *Driver) RetrieveVerification(ctx context.Context, reference string) (*models.VerificationResponse, error) {
	payload, err := d.post(ctx, "/status", map[string]any{"reference": reference})
	if err != nil {
		return nil, err
	}
	if payload.String("reference") == "" {
		payload["reference"] = reference
	}
	return d.toResponse(payload), nil
}

// CanResumeVerification asks the provider for the session state; only sessions still
// waiting on the owner can be resumed.
func (d *Driver) CanResumeVerification(ctx context.Context, reference string) (bool, error) {
	resp, err := d.RetrieveVerification(ctx, reference)
	if err != nil {
		return false, err
	}
	return d.MapEventToStatus(resp.Event).CanBeResumed(), nil
}

func (d *Driver) VerificationURL(ctx context.Context, reference string) (string, error) {
	resp, err := d.RetrieveVerification(ctx, reference)
	if err != nil {
		return "", err
	}
	return resp.VerificationURL, nil
}

func (d *Driver) ProcessWebhook(_ context.Context, raw []byte, _ http.Header) (*models.VerificationResponse, error) {
	payload, err := driver.DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateWebhookPayload(payload); err != nil {
		return nil, err
	}
	if err := payload.Require("reference", "event"); err != nil {
		return nil, err
	}
	return d.toResponse(payload), nil
}

func (d *Driver) toResponse(p driver.Payload) *models.VerificationResponse {
	event := p.String("event")
	status := d.MapEventToStatus(event)
	resp := &models.VerificationResponse{
		Reference:           p.String("reference"),
		Event:               event,
		Success:             !status.IsFailed() && status != models.StatusVerificationCancelled,
		VerificationURL:     p.String("verification_url"),
		ExtractedData:       p.Object("additional_data"),
		VerificationResults: p.Object("verification_result"),
		Country:             p.String("country"),
		DuplicateDetected:   p.Bool("duplicate_detected"),
		DeclineReason:       p.String("declined_reason"),
		Message:             p.String("message"),
		RawResponse:         p,
	}
	if resp.Message == "" {
		if e, ok := p["error"].(map[string]any); ok {
			resp.Message, _ = e["message"].(string)
		}
	}
	if proofs := p.Object("proofs"); proofs != nil {
		resp.VerificationVideo, _ = proofs["verification_video"].(string)
		resp.VerificationReport, _ = proofs["verification_report"].(string)
		resp.ImageAccessToken, _ = proofs["access_token"].(string)
		for _, proof := range proofLinks(proofs) {
			resp.DocumentImages = append(resp.DocumentImages, map[string]any{"name": proof.name, "url": proof.url})
		}
	}
	return resp
}

func (d *Driver) post(ctx context.Context, path string, body map[string]any) (driver.Payload, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, driver.NewProviderError(driver.ErrorInternal, Name, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(d.cfg.BaseURL, "/")+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, driver.NewProviderError(driver.ErrorInternal, Name, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(d.cfg.ClientID, d.cfg.SecretKey)

	res, err := d.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, driver.NewProviderError(driver.ErrorProviderOutage, Name, "read response", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		pe := driver.NewProviderError(driver.CategoryForStatus(res.StatusCode), Name,
			fmt.Sprintf("unexpected status %d", res.StatusCode), nil)
		pe.StatusCode = res.StatusCode
		return nil, pe
	}
	payload, err := driver.DecodePayload(raw)
	if err != nil {
		return nil, driver.NewProviderError(driver.ErrorBadData, Name, "decode response", err)
	}
	return payload, nil
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return driver.NewProviderError(driver.ErrorTimeout, Name, "request timed out", err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return driver.NewProviderError(driver.ErrorTimeout, Name, "request timed out", err)
	}
	return driver.NewProviderError(driver.ErrorProviderOutage, Name, "request failed", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
