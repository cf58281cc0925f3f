// Package driver defines the contract every verification provider adapter implements
// and the registry the orchestrator resolves drivers from.
package driver

import (
	"context"
	"net/http"

	"kycore/internal/kyc/models"
)

//go:generate mockgen -source=driver.go -destination=mocks/mock_driver.go -package=mocks Driver

// Driver adapts one external verification provider to the canonical contract.
//
// MapEventToStatus is the only place provider vocabulary becomes a models.Status.
// It must be total: events the driver does not recognise map to StatusInProgress.
type Driver interface {
	// Name is the registry key, e.g. "shuftipro".
	Name() string
	Enabled() bool
	// Config returns the provider configuration with secrets redacted.
	Config() map[string]any
	Capabilities() Capabilities

	CreateVerification(ctx context.Context, owner models.Owner, req models.VerificationRequest) (*models.VerificationResponse, error)
	// CreateSimpleVerification defaults the email from owner when opts has none.
	CreateSimpleVerification(ctx context.Context, owner models.Owner, opts SimpleOptions) (*models.VerificationResponse, error)
	RetrieveVerification(ctx context.Context, reference string) (*models.VerificationResponse, error)
	CanResumeVerification(ctx context.Context, reference string) (bool, error)
	// VerificationURL returns "" when the provider cannot re-issue a URL.
	VerificationURL(ctx context.Context, reference string) (string, error)

	ProcessWebhook(ctx context.Context, payload []byte, headers http.Header) (*models.VerificationResponse, error)
	ValidateWebhookSignature(payload []byte, headers http.Header) bool

	DownloadDocuments(ctx context.Context, owner models.OwnerRef, reference string) ([]DocumentHandle, error)

	MapEventToStatus(event string) models.Status
}

// SimpleOptions are the minimal caller-supplied options of a simple verification.
type SimpleOptions struct {
	Email          string
	Country        string
	Language       string
	JourneyID      string
	AdditionalData map[string]any
}

// Request turns the options into a full request, defaulting the email from owner.
func (o SimpleOptions) Request(owner models.Owner) models.VerificationRequest {
	email := o.Email
	if email == "" {
		email = owner.Email
	}
	return models.VerificationRequest{
		Email:          email,
		Country:        o.Country,
		Language:       o.Language,
		JourneyID:      o.JourneyID,
		AdditionalData: o.AdditionalData,
	}
}

// DocumentHandle points at a document a driver persisted to DocumentStorage.
type DocumentHandle struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}
