package service

import (
	"context"
	"net/http"
	"sync"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/driver/shuftipro"
	"kycore/internal/kyc/models"
)

// fakeDriver is a scriptable driver using the shuftipro event vocabulary.
type fakeDriver struct {
	mu sync.Mutex

	name     string
	disabled bool

	createResp   *models.VerificationResponse
	createErr    error
	retrieve     map[string]*models.VerificationResponse
	retrieveErr  error
	canResume    bool
	canResumeErr error
	url          string
	urlErr       error
	signatureOK  bool
	documents    []driver.DocumentHandle

	creates   int
	retrieves int
	urlCalls  int
}

func newFakeDriver(name string) *fakeDriver {
	return &fakeDriver{
		name:        name,
		retrieve:    map[string]*models.VerificationResponse{},
		canResume:   true,
		signatureOK: true,
	}
}

func (f *fakeDriver) Name() string                      { return f.name }
func (f *fakeDriver) Enabled() bool                     { return !f.disabled }
func (f *fakeDriver) Config() map[string]any            { return map[string]any{"name": f.name} }
func (f *fakeDriver) Capabilities() driver.Capabilities { return driver.NewCapabilities() }
func (f *fakeDriver) MapEventToStatus(e string) models.Status {
	if status, ok := shuftipro.EventTable()[e]; ok {
		return status
	}
	return models.StatusInProgress
}

func (f *fakeDriver) CreateVerification(_ context.Context, _ models.Owner, _ models.VerificationRequest) (*models.VerificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	resp := *f.createResp
	return &resp, nil
}

func (f *fakeDriver) CreateSimpleVerification(ctx context.Context, owner models.Owner, opts driver.SimpleOptions) (*models.VerificationResponse, error) {
	return f.CreateVerification(ctx, owner, opts.Request(owner))
}

func (f *fakeDriver) RetrieveVerification(_ context.Context, reference string) (*models.VerificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieves++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	resp, ok := f.retrieve[reference]
	if !ok {
		return nil, driver.NewProviderError(driver.ErrorNotFound, f.name, "unknown reference", nil)
	}
	out := *resp
	return &out, nil
}

func (f *fakeDriver) CanResumeVerification(context.Context, string) (bool, error) {
	return f.canResume, f.canResumeErr
}

func (f *fakeDriver) VerificationURL(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urlCalls++
	return f.url, f.urlErr
}

// ProcessWebhook accepts {"reference": ..., "event": ..., "verification_data": {...}}.
func (f *fakeDriver) ProcessWebhook(_ context.Context, payload []byte, _ http.Header) (*models.VerificationResponse, error) {
	p, err := driver.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	if err := p.Require("reference", "event"); err != nil {
		return nil, err
	}
	resp := &models.VerificationResponse{
		Reference:   p.String("reference"),
		Event:       p.String("event"),
		Success:     true,
		RawResponse: p,
	}
	if data := p.Object("verification_data"); data != nil {
		resp.ExtractedData = data
	}
	return resp, nil
}

func (f *fakeDriver) ValidateWebhookSignature([]byte, http.Header) bool { return f.signatureOK }

func (f *fakeDriver) DownloadDocuments(context.Context, models.OwnerRef, string) ([]driver.DocumentHandle, error) {
	return f.documents, nil
}

func (f *fakeDriver) setRetrieve(reference, event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieve[reference] = &models.VerificationResponse{Reference: reference, Event: event, Success: true}
}
