package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	drivermocks "kycore/internal/kyc/driver/mocks"
	"kycore/internal/kyc/models"
	notifymocks "kycore/internal/kyc/notify/mocks"
	storemocks "kycore/internal/kyc/store/mocks"
	"kycore/internal/platform/config"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
	"kycore/pkg/requestcontext"
)

// StatusServiceSuite covers the reconciliation failure paths against mocked
// collaborators.
type StatusServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *storemocks.MockStore
	driver   *drivermocks.MockDriver
	notifier *notifymocks.MockNotifier
	service  *StatusService
	owner    models.OwnerRef
	now      time.Time
}

func TestStatusServiceSuite(t *testing.T) {
	suite.Run(t, new(StatusServiceSuite))
}

func (s *StatusServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = storemocks.NewMockStore(s.ctrl)
	s.driver = drivermocks.NewMockDriver(s.ctrl)
	s.notifier = notifymocks.NewMockNotifier(s.ctrl)
	s.owner = models.OwnerRef{Type: "user", ID: "7"}
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.driver.EXPECT().Name().Return("shuftipro").AnyTimes()
	s.service = NewStatusService(s.store, config.KYC{DefaultDriver: "shuftipro"},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(s.notifier),
	)
}

func (s *StatusServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StatusServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

// inTx makes RunInTx invoke its callback directly.
func (s *StatusServiceSuite) inTx() *gomock.Call {
	return s.store.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func (s *StatusServiceSuite) existing(status models.Status) *models.VerificationRecord {
	rec := models.NewRecord(s.owner, "shuftipro", "ref-1", s.now.Add(-time.Hour))
	rec.Status = status
	rec.Version = 4
	return rec
}

func (s *StatusServiceSuite) response(event string) *models.VerificationResponse {
	return &models.VerificationResponse{Reference: "ref-1", Event: event}
}

func (s *StatusServiceSuite) TestEventMappingFailuresWriteNothing() {
	s.Run("panicking driver", func() {
		s.driver.EXPECT().MapEventToStatus("boom").DoAndReturn(func(string) models.Status {
			panic("unexpected vocabulary")
		})
		_, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("boom"), s.driver)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Contains(err.Error(), "unexpected vocabulary")
	})

	s.Run("status outside the lifecycle", func() {
		s.driver.EXPECT().MapEventToStatus("weird").Return(models.Status("archived"))
		_, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("weird"), s.driver)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("missing response", func() {
		_, err := s.service.UpdateStatus(s.ctx(), s.owner, nil, s.driver)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *StatusServiceSuite) TestConflictsAreRetried() {
	s.driver.EXPECT().MapEventToStatus("verification.in_progress").Return(models.StatusInProgress)

	s.inTx().Times(3)
	s.store.EXPECT().FindByReference(gomock.Any(), "ref-1").
		DoAndReturn(func(context.Context, string) (*models.VerificationRecord, error) {
			return s.existing(models.StatusRequestPending), nil
		}).Times(3)
	gomock.InOrder(
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil),
	)

	rec, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("verification.in_progress"), s.driver)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, rec.Status)
	s.Require().NotNil(rec.StartedAt)
	s.Equal(s.now, *rec.StartedAt)
}

func (s *StatusServiceSuite) TestConflictRetriesAreBounded() {
	s.driver.EXPECT().MapEventToStatus(gomock.Any()).Return(models.StatusInProgress)
	s.inTx().Times(maxConflictRetries)
	s.store.EXPECT().FindByReference(gomock.Any(), "ref-1").
		DoAndReturn(func(context.Context, string) (*models.VerificationRecord, error) {
			return s.existing(models.StatusInProgress), nil
		}).Times(maxConflictRetries)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict).Times(maxConflictRetries)

	_, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("verification.in_progress"), s.driver)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *StatusServiceSuite) TestStoreFailures() {
	s.Run("lookup failure is internal", func() {
		s.driver.EXPECT().MapEventToStatus(gomock.Any()).Return(models.StatusInProgress)
		s.inTx()
		s.store.EXPECT().FindByReference(gomock.Any(), "ref-1").Return(nil, errors.New("connection reset"))

		_, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("verification.in_progress"), s.driver)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("zero owner cannot create a record", func() {
		s.driver.EXPECT().MapEventToStatus(gomock.Any()).Return(models.StatusInProgress)
		s.inTx()
		s.store.EXPECT().FindByReference(gomock.Any(), "ref-1").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.UpdateStatus(s.ctx(), models.OwnerRef{}, s.response("verification.in_progress"), s.driver)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("cancelled transaction keeps its timeout code", func() {
		s.driver.EXPECT().MapEventToStatus(gomock.Any()).Return(models.StatusInProgress)
		s.store.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeTimeout, "transaction aborted: context cancelled"))

		_, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("verification.in_progress"), s.driver)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func (s *StatusServiceSuite) TestNotifierFailureDoesNotFailTheUpdate() {
	s.driver.EXPECT().MapEventToStatus("verification.accepted").Return(models.StatusVerificationCompleted)
	s.inTx()
	s.store.EXPECT().FindByReference(gomock.Any(), "ref-1").Return(s.existing(models.StatusInProgress), nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n models.Notification) error {
			s.Equal(models.NotificationCompleted, n.Kind)
			s.Equal("ref-1", n.Reference)
			return errors.New("broker unavailable")
		})

	rec, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("verification.accepted"), s.driver)
	s.Require().NoError(err)
	s.Equal(models.StatusVerificationCompleted, rec.Status)
	s.Require().NotNil(rec.CompletedAt)
}

func (s *StatusServiceSuite) TestUnchangedStatusSendsNothing() {
	s.driver.EXPECT().MapEventToStatus(gomock.Any()).Return(models.StatusRejected)
	s.inTx()
	s.store.EXPECT().FindByReference(gomock.Any(), "ref-1").Return(s.existing(models.StatusRejected), nil)
	s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.UpdateStatus(s.ctx(), s.owner, s.response("verification.declined"), s.driver)
	s.Require().NoError(err)
}

func TestApplyStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name        string
		from        models.Status
		to          models.Status
		startedAt   *time.Time
		wantStarted bool
	}{
		{"not started to in progress", models.StatusNotStarted, models.StatusInProgress, nil, true},
		{"pending to in progress", models.StatusRequestPending, models.StatusInProgress, nil, true},
		{"not started to pending", models.StatusNotStarted, models.StatusRequestPending, nil, false},
		{"in progress to review", models.StatusInProgress, models.StatusReviewPending, nil, false},
		{"already started", models.StatusNotStarted, models.StatusInProgress, &earlier, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &models.VerificationRecord{Status: tt.from, StartedAt: tt.startedAt}
			applyStatus(rec, tt.to, now)
			if !tt.wantStarted {
				assert.Nil(t, rec.StartedAt)
				return
			}
			require.NotNil(t, rec.StartedAt)
			if tt.startedAt != nil {
				assert.Equal(t, earlier, *rec.StartedAt, "startedAt is never moved")
			} else {
				assert.Equal(t, now, *rec.StartedAt)
			}
		})
	}
}
