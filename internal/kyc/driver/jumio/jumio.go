// Package jumio implements the Jumio verification driver.
package jumio

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Jumio-Signature"

var capabilities = driver.NewCapabilities(
	driver.FeatureDocumentVerification,
	driver.FeatureFaceVerification,
	driver.FeatureAgeVerification,
	driver.FeatureDirectAPI,
	driver.FeatureWebhookCallbacks,
	driver.FeatureDocumentDownload,
)

var eventStatus = map[string]models.Status{
	"INITIATED":       models.StatusRequestPending,
	"ACQUIRED":        models.StatusInProgress,
	"PROCESSED":       models.StatusCompleted,
	"PASSED":          models.StatusCompleted,
	"WARNING":         models.StatusReviewPending,
	"REJECTED":        models.StatusRejected,
	"SESSION_EXPIRED": models.StatusRequestTimeout,
	"TOKEN_EXPIRED":   models.StatusRequestTimeout,
	"CANCELLED":       models.StatusVerificationCancelled,
	"FAILED":          models.StatusVerificationFailed,
}

// EventTable returns a copy of the documented event mapping.
func EventTable() map[string]models.Status {
	out := make(map[string]models.Status, len(eventStatus))
	for k, v := range eventStatus {
		out[k] = v
	}
	return out
}

// Driver talks to the Jumio workflow API.
type Driver struct {
	cfg        Config
	httpClient *http.Client
	storage    driver.DocumentStorage
	logger     *slog.Logger
	now        func() time.Time
	tokens     tokenSource
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
	secret := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	return map[string]any{
		"base_url":       d.cfg.BaseURL,
		"auth_url":       d.cfg.AuthURL,
		"client_id":      d.cfg.ClientID,
		"client_secret":  secret(d.cfg.ClientSecret),
		"webhook_secret": secret(d.cfg.WebhookSecret),
		"workflow_key":   d.cfg.WorkflowKey,
		"storage_path":   d.cfg.StoragePath,
		"timeout":        d.cfg.Timeout.String(),
	}
}

// MapEventToStatus is case-insensitive; unknown values map to in progress.
func (d *Driver) MapEventToStatus(event string) models.Status {
	if status, ok := eventStatus[strings.ToUpper(strings.TrimSpace(event))]; ok {
		return status
	}
	return models.StatusInProgress
}

type workflowExecution struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Href   string `json:"href,omitempty"`
}

type decision struct {
	Type    string         `json:"type"`
	Details map[string]any `json:"details,omitempty"`
}

type accountResponse struct {
	Account struct {
		ID string `json:"id"`
	} `json:"account"`
	WorkflowExecution workflowExecution `json:"workflowExecution"`
	Web               struct {
		Href string `json:"href"`
	} `json:"web"`
}

func (d *Driver) CreateVerification(ctx context.Context, owner models.Owner, req models.VerificationRequest) (*models.VerificationResponse, error) {
	body := map[string]any{
		"customerInternalReference": owner.Ref.String(),
		"userReference":             owner.Ref.ID,
		"workflowDefinition":        map[string]any{"key": d.cfg.WorkflowKey},
	}
	if cb := firstNonEmpty(req.CallbackURL, d.cfg.CallbackURL); cb != "" {
		body["callbackUrl"] = cb
	}
	web := map[string]any{}
	if u := firstNonEmpty(req.RedirectURL, d.cfg.SuccessURL); u != "" {
		web["successUrl"] = u
	}
	if req.Language != "" {
		web["locale"] = req.Language
	}
	if len(web) > 0 {
		body["web"] = web
	}
	if req.Country != "" {
		body["workflowDefinition"] = map[string]any{
			"key":         d.cfg.WorkflowKey,
			"credentials": []any{map[string]any{"category": "ID", "country": map[string]any{"values": []string{req.Country}}}},
		}
	}

	var created accountResponse
	if err := d.do(ctx, http.MethodPost, "/api/v1/accounts", body, &created); err != nil {
		return nil, err
	}
	if created.WorkflowExecution.ID == "" {
		return nil, driver.NewProviderError(driver.ErrorBadData, Name, "workflow execution id missing", nil)
	}
	d.logger.InfoContext(ctx, "jumio account created",
		"reference", created.WorkflowExecution.ID,
		"account_id", created.Account.ID,
		"owner", owner.Ref.String(),
	)
	status := firstNonEmpty(created.WorkflowExecution.Status, "INITIATED")
	return &models.VerificationResponse{
		Reference:       created.WorkflowExecution.ID,
		Event:           status,
		Success:         true,
		VerificationURL: created.Web.Href,
		RawResponse:     map[string]any{"account_id": created.Account.ID},
	}, nil
}

func (d *Driver) CreateSimpleVerification(ctx context.Context, owner models.Owner, opts driver.SimpleOptions) (*models.VerificationResponse, error) {
	return d.CreateVerification(ctx, owner, opts.Request(owner))
}

type statusResponse struct {
	WorkflowExecution workflowExecution `json:"workflowExecution"`
	Decision          *decision         `json:"decision,omitempty"`
	Web               struct {
		Href string `json:"href"`
	} `json:"web"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

func (d *Driver) RetrieveVerification(ctx context.Context, reference string) (*models.VerificationResponse, error) {
	var st statusResponse
	if err := d.do(ctx, http.MethodGet, "/api/v1/workflow-executions/"+reference+"/status", nil, &st); err != nil {
		return nil, err
	}
	if st.WorkflowExecution.ID == "" {
		st.WorkflowExecution.ID = reference
	}
	return d.toResponse(st.WorkflowExecution, st.Decision, st.Web.Href, st.Capabilities), nil
}

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

type callback struct {
	CallbackSentAt    string             `json:"callbackSentAt"`
	UserReference     string             `json:"userReference"`
	WorkflowExecution *workflowExecution `json:"workflowExecution"`
	Decision          *decision          `json:"decision,omitempty"`
}

func (d *Driver) ProcessWebhook(_ context.Context, payload []byte, _ http.Header) (*models.VerificationResponse, error) {
	var cb callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", driver.ErrInvalidPayload, err)
	}
	if cb.WorkflowExecution == nil || cb.WorkflowExecution.ID == "" {
		return nil, fmt.Errorf("%w: workflowExecution.id is required", driver.ErrInvalidPayload)
	}
	if cb.WorkflowExecution.Status == "" {
		return nil, fmt.Errorf("%w: workflowExecution.status is required", driver.ErrInvalidPayload)
	}
	raw, err := driver.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	resp := d.toResponse(*cb.WorkflowExecution, cb.Decision, "", nil)
	resp.RawResponse = raw
	return resp, nil
}

// toResponse reports the decision type as the event once the execution is processed.
func (d *Driver) toResponse(we workflowExecution, dec *decision, href string, caps map[string]any) *models.VerificationResponse {
	event := we.Status
	if strings.EqualFold(we.Status, "PROCESSED") && dec != nil && dec.Type != "" {
		event = dec.Type
	}
	status := d.MapEventToStatus(event)
	resp := &models.VerificationResponse{
		Reference:       we.ID,
		Event:           event,
		Success:         !status.IsFailed() && status != models.StatusVerificationCancelled,
		VerificationURL: href,
		RawResponse:     map[string]any{"workflow_status": we.Status},
	}
	if dec != nil {
		resp.VerificationResults = map[string]any{"decision": dec.Type, "details": dec.Details}
		if status.IsFailed() {
			resp.DeclineReason = dec.Type
		}
	}
	if len(caps) > 0 {
		resp.ExtractedData = caps
	}
	return resp
}

func (d *Driver) ValidateWebhookSignature(payload []byte, headers http.Header) bool {
	got, err := hex.DecodeString(headers.Get(SignatureHeader))
	if err != nil || len(got) == 0 || d.cfg.WebhookSecret == "" {
		return false
	}
	return hmac.Equal(got, Sign(payload, d.cfg.WebhookSecret))
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func (d *Driver) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := d.accessToken(ctx)
	if err != nil {
		return err
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return driver.NewProviderError(driver.ErrorInternal, Name, "encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(d.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return driver.NewProviderError(driver.ErrorInternal, Name, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := d.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		pe := driver.NewProviderError(driver.CategoryForStatus(res.StatusCode), Name,
			fmt.Sprintf("%s %s: unexpected status %d", method, path, res.StatusCode), nil)
		pe.StatusCode = res.StatusCode
		return pe
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return driver.NewProviderError(driver.ErrorBadData, Name, "decode response", err)
	}
	return nil
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
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
