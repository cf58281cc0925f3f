package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"kycore/internal/kyc/document"
	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
	"kycore/pkg/requestcontext"
)

// Hints attached to resume errors under the "hint" meta key.
const (
	HintRetry    = "retry"
	HintStartNew = "start_new"
	HintGiveUp   = "give_up"
)

func resumeError(code dErrors.Code, msg string, status models.Status, hint string) *dErrors.Error {
	e := dErrors.New(code, msg).With("hint", hint)
	if status != "" {
		e = e.With("status", string(status))
	}
	return e
}

// ResumeVerification hands the owner back a URL for their latest in-flight
// verification.
//
// The provider is asked for fresh status first, but an unreachable provider only
// costs the refresh: resume proceeds on the stored state.
func (m *Manager) ResumeVerification(ctx context.Context, owner models.Owner) (resp *models.VerificationResponse, err error) {
	ctx, done := m.track(ctx, "resume_verification", attribute.String("kyc.owner", owner.Ref.String()))
	defer func() { done(err) }()

	if err := m.validator.ValidateOwner(ctx, owner); err != nil {
		return nil, err
	}

	rec, err := m.store.FindLatestByOwner(ctx, owner.Ref)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, resumeError(dErrors.CodeNotResumable, "no resumable verification found for owner", "", HintStartNew)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}

	now := requestcontext.Now(ctx)
	if !rec.CanResume(now, m.cfg.URLExpiry) {
		return nil, resumeError(dErrors.CodeNotResumable, "no resumable verification found for owner", rec.Status, HintStartNew)
	}

	drv, err := m.registry.Get(rec.Driver)
	if err != nil {
		return nil, err
	}

	rec, err = m.refresh(ctx, rec, drv)
	if err != nil {
		return nil, err
	}
	if !rec.CanResume(now, m.cfg.URLExpiry) {
		return nil, resumeError(dErrors.CodeNotResumable,
			fmt.Sprintf("verification status has changed and can no longer be resumed. Current status: %s", rec.Status.Label()),
			rec.Status, HintStartNew)
	}

	ok, err := drv.CanResumeVerification(ctx, rec.Reference)
	if err != nil {
		return nil, dErrors.Wrap(driver.ToDomain(err), dErrors.CodeProvider, "provider resume check failed").With("hint", HintRetry)
	}
	if !ok {
		return nil, resumeError(dErrors.CodeResumeRejected,
			"verification cannot be resumed with the current provider; it may have expired or moved to a different state",
			rec.Status, HintStartNew)
	}

	url := rec.ActiveVerificationURL(now, m.cfg.URLExpiry)
	if url == "" {
		url, err = drv.VerificationURL(ctx, rec.Reference)
		if err != nil {
			return nil, dErrors.Wrap(driver.ToDomain(err), dErrors.CodeProvider, "failed to obtain verification URL").With("hint", HintRetry)
		}
	}
	if url == "" && rec.Status == models.StatusRequestPending {
		return nil, resumeError(dErrors.CodeStillPending,
			"verification is still pending and no URL is available; a new verification should be created",
			rec.Status, HintStartNew)
	}
	if url == "" {
		return nil, resumeError(dErrors.CodeNoURL, "no active verification URL available for resume", rec.Status, HintGiveUp)
	}

	raw, _ := rec.Data.Any().(map[string]any)
	resp = &models.VerificationResponse{
		Reference:       rec.Reference,
		Event:           models.EventResumed,
		Success:         true,
		VerificationURL: url,
		RawResponse:     raw,
	}

	stamp := document.String(now.UTC().Format(models.TimestampLayout))
	patch := document.EmptyObject().
		With(models.DataVerificationURL, document.String(url)).
		With(models.DataVerificationURLCreatedAt, stamp).
		With(models.DataResumedAt, stamp)
	if _, err := m.status.UpdateData(ctx, rec.Reference, patch); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "KYC verification resumed",
		"owner", owner.Ref.String(),
		"reference", rec.Reference,
		"driver", drv.Name(),
		"status", string(rec.Status),
	)
	return resp, nil
}

// refresh reconciles the provider's current view of rec. Provider failures are
// logged and the stored record is returned unchanged; store failures are fatal.
func (m *Manager) refresh(ctx context.Context, rec *models.VerificationRecord, drv driver.Driver) (*models.VerificationRecord, error) {
	pollCtx := ctx
	if m.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, m.cfg.ProviderTimeout)
		defer cancel()
	}
	latest, err := drv.RetrieveVerification(pollCtx, rec.Reference)
	if err != nil {
		m.logger.WarnContext(ctx, "could not retrieve latest verification status for resume",
			"reference", rec.Reference,
			"driver", drv.Name(),
			"error", err,
		)
		return rec, nil
	}
	if latest.Reference == "" {
		latest.Reference = rec.Reference
	}
	return m.status.UpdateStatus(ctx, rec.Owner, latest, drv)
}
