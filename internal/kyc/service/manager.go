package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"kycore/internal/kyc/document"
	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
	"kycore/internal/platform/config"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
	"kycore/pkg/requestcontext"
)

// Manager orchestrates verifications across the registered drivers.
type Manager struct {
	deps
	cfg       config.KYC
	registry  *driver.Registry
	store     RecordStore
	status    *StatusService
	validator Validator
}

func NewManager(cfg config.KYC, registry *driver.Registry, store RecordStore, status *StatusService, validator Validator, opts ...Option) *Manager {
	return &Manager{
		deps:      newDeps(opts),
		cfg:       cfg,
		registry:  registry,
		store:     store,
		status:    status,
		validator: validator,
	}
}

// Driver resolves name, or the default driver when name is empty.
func (m *Manager) Driver(name string) (driver.Driver, error) {
	return m.registry.Get(name)
}

func (m *Manager) DefaultDriver() string {
	return m.registry.Default()
}

// AvailableDrivers lists every registered driver, enabled or not.
func (m *Manager) AvailableDrivers() []string {
	return m.registry.Names()
}

func (m *Manager) EnabledDrivers() []string {
	return m.registry.EnabledNames()
}

// CreateVerification validates the owner and request, starts a session with the
// default driver and reconciles the provider's answer.
func (m *Manager) CreateVerification(ctx context.Context, owner models.Owner, req models.VerificationRequest) (resp *models.VerificationResponse, err error) {
	ctx, done := m.track(ctx, "create_verification", attribute.String("kyc.owner", owner.Ref.String()))
	defer func() { done(err) }()

	if err := m.validator.ValidateOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := m.validator.ValidateRequest(req); err != nil {
		return nil, err
	}
	drv, err := m.registry.Get("")
	if err != nil {
		return nil, err
	}
	resp, err = drv.CreateVerification(ctx, owner, req)
	if err != nil {
		return nil, driver.ToDomain(err)
	}
	return m.started(ctx, owner.Ref, resp, drv)
}

// CreateSimpleVerification is CreateVerification without request validation. The
// email defaults to the owner's.
func (m *Manager) CreateSimpleVerification(ctx context.Context, owner models.Owner, opts driver.SimpleOptions) (resp *models.VerificationResponse, err error) {
	ctx, done := m.track(ctx, "create_simple_verification", attribute.String("kyc.owner", owner.Ref.String()))
	defer func() { done(err) }()

	if err := m.validator.ValidateOwner(ctx, owner); err != nil {
		return nil, err
	}
	drv, err := m.registry.Get("")
	if err != nil {
		return nil, err
	}
	resp, err = drv.CreateSimpleVerification(ctx, owner, opts)
	if err != nil {
		return nil, driver.ToDomain(err)
	}
	return m.started(ctx, owner.Ref, resp, drv)
}

func (m *Manager) started(ctx context.Context, owner models.OwnerRef, resp *models.VerificationResponse, drv driver.Driver) (*models.VerificationResponse, error) {
	rec, err := m.status.UpdateStatus(ctx, owner, resp, drv)
	if err != nil {
		return nil, err
	}
	m.status.send(ctx, models.Notification{
		Kind:       models.NotificationStarted,
		Owner:      rec.Owner,
		Reference:  rec.Reference,
		Driver:     drv.Name(),
		Status:     rec.Status,
		Event:      resp.Event,
		OccurredAt: requestcontext.Now(ctx),
	})
	m.logger.InfoContext(ctx, "KYC verification started",
		"owner", owner.String(),
		"reference", rec.Reference,
		"driver", drv.Name(),
		"status", string(rec.Status),
	)
	return resp, nil
}

// RetrieveVerification polls the provider. It does not reconcile.
func (m *Manager) RetrieveVerification(ctx context.Context, reference string) (resp *models.VerificationResponse, err error) {
	ctx, done := m.track(ctx, "retrieve_verification", attribute.String("kyc.reference", reference))
	defer func() { done(err) }()

	drv, err := m.driverFor(ctx, reference)
	if err != nil {
		return nil, err
	}
	resp, err = drv.RetrieveVerification(ctx, reference)
	if err != nil {
		return nil, driver.ToDomain(err)
	}
	return resp, nil
}

// DownloadDocuments asks the provider to persist the verification's documents.
func (m *Manager) DownloadDocuments(ctx context.Context, owner models.OwnerRef, reference string) (docs []driver.DocumentHandle, err error) {
	ctx, done := m.track(ctx, "download_documents", attribute.String("kyc.reference", reference))
	defer func() { done(err) }()

	drv, err := m.driverFor(ctx, reference)
	if err != nil {
		return nil, err
	}
	docs, err = drv.DownloadDocuments(ctx, owner, reference)
	if err != nil {
		return nil, driver.ToDomain(err)
	}
	return docs, nil
}

// UpdateStatusFromResponse reconciles a response the caller obtained itself, for
// example from RetrieveVerification.
func (m *Manager) UpdateStatusFromResponse(ctx context.Context, owner models.OwnerRef, resp *models.VerificationResponse) (*models.VerificationRecord, error) {
	if resp == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "verification response is required")
	}
	drv, err := m.driverFor(ctx, resp.Reference)
	if err != nil {
		return nil, err
	}
	return m.status.UpdateStatus(ctx, owner, resp, drv)
}

// CompletionResult is the outcome of the provider redirect callback.
type CompletionResult struct {
	Reference string
	Status    models.Status
	Event     string
	Data      document.Value
}

// CompleteVerification handles the user returning from the provider: it polls
// the provider with the record's own driver and reconciles the answer together
// with the completion marker.
func (m *Manager) CompleteVerification(ctx context.Context, reference, completionStatus string) (result *CompletionResult, err error) {
	ctx, done := m.track(ctx, "complete_verification", attribute.String("kyc.reference", reference))
	defer func() { done(err) }()

	if reference == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reference parameter is required").With("field", "reference")
	}
	if completionStatus == "" {
		completionStatus = "completed"
	}
	rec, err := m.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	drv, err := m.registry.Get(rec.Driver)
	if err != nil {
		return nil, err
	}
	resp, err := drv.RetrieveVerification(ctx, reference)
	if err != nil {
		return nil, driver.ToDomain(err)
	}
	if resp.Reference == "" {
		resp.Reference = reference
	}

	now := requestcontext.Now(ctx)
	extra := document.EmptyObject().
		With(models.DataLastCompletionAt, document.String(now.UTC().Format(models.TimestampLayout))).
		With(models.DataCompletionStatus, document.String(completionStatus))
	updated, err := m.status.reconcile(ctx, rec.Owner, resp, drv, extra)
	if err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "KYC verification completion processed",
		"reference", reference,
		"previous_status", string(rec.Status),
		"status", string(updated.Status),
		"provider_event", resp.Event,
	)
	return &CompletionResult{
		Reference: updated.Reference,
		Status:    updated.Status,
		Event:     resp.Event,
		Data:      updated.Data,
	}, nil
}

// driverFor picks the driver of the record with reference, falling back to the
// default driver for references not stored locally.
func (m *Manager) driverFor(ctx context.Context, reference string) (driver.Driver, error) {
	if reference != "" {
		rec, err := m.store.FindByReference(ctx, reference)
		switch {
		case err == nil && rec.Driver != "":
			return m.registry.Get(rec.Driver)
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
		}
	}
	return m.registry.Get("")
}

func (m *Manager) findByReference(ctx context.Context, reference string) (*models.VerificationRecord, error) {
	rec, err := m.store.FindByReference(ctx, reference)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "KYC record not found").With("reference", reference)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	return rec, nil
}
