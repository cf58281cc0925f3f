package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycore/internal/kyc/models"
	storemocks "kycore/internal/kyc/store/mocks"
	dErrors "kycore/pkg/domain-errors"
)

type ValidatorSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *storemocks.MockStore
	validator *Validator
	owner     models.Owner
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = storemocks.NewMockStore(s.ctrl)
	s.validator = New(Settings{
		RequireEmailVerification: true,
		MaxAttempts:              3,
		SupportedCountries:       []string{"EG", "SA", "AE", "US"},
		RestrictedCountries:      []string{"US"},
	}, s.store)
	s.owner = models.Owner{
		Ref:           models.OwnerRef{Type: "user", ID: "1"},
		Email:         "a@example.com",
		EmailVerified: true,
	}
}

func (s *ValidatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ValidatorSuite) assertField(err error, field string) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
	s.Equal(field, dErrors.MetaOf(err, "field"))
}

func (s *ValidatorSuite) TestValidateOwner() {
	ctx := context.Background()

	s.Run("verified owner under the attempt limit passes", func() {
		s.store.EXPECT().CountByOwnerAndStatuses(ctx, s.owner.Ref, models.FailedStatuses).Return(2, nil)
		s.NoError(s.validator.ValidateOwner(ctx, s.owner))
	})

	s.Run("unverified email is rejected before counting", func() {
		owner := s.owner
		owner.EmailVerified = false
		s.assertField(s.validator.ValidateOwner(ctx, owner), "email")
	})

	s.Run("max attempts reached", func() {
		s.store.EXPECT().CountByOwnerAndStatuses(ctx, s.owner.Ref, models.FailedStatuses).Return(3, nil)
		s.assertField(s.validator.ValidateOwner(ctx, s.owner), "kyc")
	})

	s.Run("count failure is internal", func() {
		s.store.EXPECT().CountByOwnerAndStatuses(ctx, s.owner.Ref, gomock.Any()).Return(0, errors.New("db down"))
		err := s.validator.ValidateOwner(ctx, s.owner)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ValidatorSuite) TestValidateRequest() {
	valid := models.VerificationRequest{
		Email:       "a@example.com",
		Country:     "eg",
		RedirectURL: "https://app.example.com/kyc/done",
	}
	s.NoError(s.validator.ValidateRequest(valid))

	cases := []struct {
		name  string
		mut   func(r *models.VerificationRequest)
		field string
	}{
		{"empty email", func(r *models.VerificationRequest) { r.Email = "" }, "email"},
		{"invalid email", func(r *models.VerificationRequest) { r.Email = "not-an-email" }, "email"},
		{"three letter country", func(r *models.VerificationRequest) { r.Country = "EGY" }, "country"},
		{"unsupported country", func(r *models.VerificationRequest) { r.Country = "FR" }, "country"},
		{"restricted country", func(r *models.VerificationRequest) { r.Country = "US" }, "country"},
		{"bad allowed country", func(r *models.VerificationRequest) { r.AllowedCountries = []string{"EG", "X"} }, "allowed_countries"},
		{"bad denied country", func(r *models.VerificationRequest) { r.DeniedCountries = []string{"12"} }, "denied_countries"},
		{"relative redirect", func(r *models.VerificationRequest) { r.RedirectURL = "/kyc/done" }, "redirect_url"},
		{"garbage callback", func(r *models.VerificationRequest) { r.CallbackURL = "not a url" }, "callback_url"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := valid
			tc.mut(&req)
			s.assertField(s.validator.ValidateRequest(req), tc.field)
		})
	}
}

func TestEmptySupportedListAllowsAnyCountry(t *testing.T) {
	v := New(Settings{}, nil)
	require.NoError(t, v.ValidateRequest(models.VerificationRequest{Email: "a@example.com", Country: "FR"}))
	require.NoError(t, v.ValidateOwner(context.Background(), models.Owner{}))
}

func TestValidateWebhookPayload(t *testing.T) {
	assert.NoError(t, ValidateWebhookPayload(map[string]any{"reference": "SP_1", "event": "request.pending"}))

	for field, payload := range map[string]map[string]any{
		"payload":   {},
		"reference": {"event": "request.pending"},
		"event":     {"reference": "SP_1"},
	} {
		err := ValidateWebhookPayload(payload)
		require.Error(t, err)
		assert.Equal(t, field, dErrors.MetaOf(err, "field"))
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("redirect_url", ""))
	assert.NoError(t, ValidateURL("redirect_url", "https://example.com/x?y=1"))
	assert.Error(t, ValidateURL("redirect_url", "example"))
}
