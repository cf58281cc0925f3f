// Package validation holds the eligibility and input gates run before a
// verification is created or a webhook is accepted.
package validation

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/asaskevich/govalidator"

	"kycore/internal/kyc/models"
	dErrors "kycore/pkg/domain-errors"
)

// AttemptCounter counts an owner's records in the given statuses. The record store
// satisfies it.
type AttemptCounter interface {
	CountByOwnerAndStatuses(ctx context.Context, owner models.OwnerRef, statuses []models.Status) (int, error)
}

// Settings are the configurable gates. Country lists hold upper-case ISO 3166-1
// alpha-2 codes; an empty SupportedCountries allows every country.
type Settings struct {
	RequireEmailVerification bool
	MaxAttempts              int
	SupportedCountries       []string
	RestrictedCountries      []string
}

type Validator struct {
	settings Settings
	attempts AttemptCounter
}

func New(settings Settings, attempts AttemptCounter) *Validator {
	return &Validator{settings: settings, attempts: attempts}
}

// ValidateOwner checks the owner may start another verification.
func (v *Validator) ValidateOwner(ctx context.Context, owner models.Owner) error {
	if v.settings.RequireEmailVerification && !owner.EmailVerified {
		return fieldError("email", "email must be verified before starting KYC verification")
	}
	if v.settings.MaxAttempts <= 0 || v.attempts == nil {
		return nil
	}
	n, err := v.attempts.CountByOwnerAndStatuses(ctx, owner.Ref, models.FailedStatuses)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count verification attempts")
	}
	if n >= v.settings.MaxAttempts {
		return fieldError("kyc", "maximum KYC verification attempts exceeded").
			With("attempts", fmt.Sprint(n))
	}
	return nil
}

// ValidateRequest checks a verification request before it reaches a driver.
func (v *Validator) ValidateRequest(req models.VerificationRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return fieldError("email", "email is required for KYC verification")
	}
	if !govalidator.IsEmail(req.Email) {
		return fieldError("email", "invalid email format")
	}
	if req.Country != "" {
		if err := v.validateCountry("country", req.Country); err != nil {
			return err
		}
	}
	for _, c := range req.AllowedCountries {
		if err := v.validateCountry("allowed_countries", c); err != nil {
			return err
		}
	}
	for _, c := range req.DeniedCountries {
		if err := v.validateCountry("denied_countries", c); err != nil {
			return err
		}
	}
	if err := ValidateURL("redirect_url", req.RedirectURL); err != nil {
		return err
	}
	return ValidateURL("callback_url", req.CallbackURL)
}

func (v *Validator) validateCountry(field, country string) error {
	if len(country) != 2 || !govalidator.IsAlpha(country) {
		return fieldError(field, "country code must be 2 letters")
	}
	code := strings.ToUpper(country)
	if len(v.settings.SupportedCountries) > 0 && !slices.Contains(v.settings.SupportedCountries, code) {
		return fieldError(field, "country is not supported for KYC verification").With("country", code)
	}
	if slices.Contains(v.settings.RestrictedCountries, code) {
		return fieldError(field, "country is restricted for KYC verification").With("country", code)
	}
	return nil
}

// ValidateURL accepts an empty value or an absolute URL with a scheme.
func ValidateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	if !govalidator.IsURL(raw) || !govalidator.IsRequestURL(raw) {
		return fieldError(field, "invalid URL format")
	}
	return nil
}

// ValidateWebhookPayload checks the generic shape every provider callback shares.
func ValidateWebhookPayload(fields map[string]any) error {
	if len(fields) == 0 {
		return fieldError("payload", "webhook payload cannot be empty")
	}
	if _, ok := fields["reference"]; !ok {
		return fieldError("reference", "reference is required in webhook payload")
	}
	if _, ok := fields["event"]; !ok {
		return fieldError("event", "event is required in webhook payload")
	}
	return nil
}

func fieldError(field, msg string) *dErrors.Error {
	return dErrors.New(dErrors.CodeValidation, msg).With("field", field)
}
