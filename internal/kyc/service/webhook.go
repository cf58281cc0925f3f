package service

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
	dErrors "kycore/pkg/domain-errors"
)

// ProcessWebhook handles a callback for the default driver.
func (m *Manager) ProcessWebhook(ctx context.Context, payload []byte, headers http.Header) (*models.VerificationResponse, error) {
	return m.ProcessDriverWebhook(ctx, "", payload, headers)
}

// ProcessDriverWebhook verifies, parses and reconciles a provider callback.
//
// The signature is checked before the payload is parsed when signature
// validation is enabled. A webhook whose reference has no local record fails
// with CodeNotFound; it usually means the callback was routed to the wrong
// environment.
func (m *Manager) ProcessDriverWebhook(ctx context.Context, driverName string, payload []byte, headers http.Header) (resp *models.VerificationResponse, err error) {
	ctx, done := m.track(ctx, "process_webhook", attribute.String("kyc.driver", driverName))
	drvLabel := driverName
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
		}
		m.metrics.IncrementWebhook(drvLabel, outcome)
		done(err)
	}()

	drv, err := m.registry.Get(driverName)
	if err != nil {
		return nil, err
	}
	drvLabel = drv.Name()

	if m.cfg.WebhookSignatureValidation && !drv.ValidateWebhookSignature(payload, headers) {
		m.logger.WarnContext(ctx, "KYC webhook signature rejected", "driver", drv.Name())
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook signature")
	}

	resp, err = drv.ProcessWebhook(ctx, payload, headers)
	if err != nil {
		return nil, driver.ToDomain(err)
	}
	if resp.Reference == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "missing reference parameter").With("field", "reference")
	}

	rec, err := m.findByReference(ctx, resp.Reference)
	if err != nil {
		return nil, err
	}
	if _, err := m.status.UpdateStatus(ctx, rec.Owner, resp, drv); err != nil {
		return nil, err
	}
	return resp, nil
}
