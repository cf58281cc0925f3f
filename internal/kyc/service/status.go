package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"kycore/internal/kyc/document"
	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
	"kycore/internal/platform/config"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
	"kycore/pkg/requestcontext"
)

// maxConflictRetries bounds how often a reconciliation is replayed after losing an
// optimistic version race.
const maxConflictRetries = 3

// StatusService is the reconciliation engine. It owns every write to a
// verification record.
type StatusService struct {
	deps
	store RecordStore
	cfg   config.KYC
}

func NewStatusService(store RecordStore, cfg config.KYC, opts ...Option) *StatusService {
	return &StatusService{deps: newDeps(opts), store: store, cfg: cfg}
}

// mutation changes a resolved record inside the transaction.
type mutation func(ctx context.Context, rec *models.VerificationRecord, now time.Time) error

type outcome struct {
	record   *models.VerificationRecord
	previous models.Status
}

// UpdateStatus reconciles resp into the owner's verification record.
//
// The record is resolved by resp.Reference, then by the owner's latest record, and
// created as NotStarted when neither exists. The driver maps the event before
// anything is written; a panicking driver fails the call with nothing persisted.
// Completed and failed notifications go out after commit and only when the status
// changed.
func (s *StatusService) UpdateStatus(ctx context.Context, owner models.OwnerRef, resp *models.VerificationResponse, drv driver.Driver) (*models.VerificationRecord, error) {
	return s.reconcile(ctx, owner, resp, drv, document.Null())
}

// reconcile is UpdateStatus with an extra data patch merged after the response.
func (s *StatusService) reconcile(ctx context.Context, owner models.OwnerRef, resp *models.VerificationResponse, drv driver.Driver, extra document.Value) (rec *models.VerificationRecord, err error) {
	if resp == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "verification response is required")
	}
	if drv == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "driver is required to reconcile a response")
	}
	ctx, done := s.track(ctx, "update_status",
		attribute.String("kyc.reference", resp.Reference),
		attribute.String("kyc.driver", drv.Name()),
		attribute.String("kyc.event", resp.Event),
	)
	defer func() { done(err) }()

	newStatus, err := mapEvent(drv, resp.Event)
	if err != nil {
		return nil, err
	}

	res, err := s.mutate(ctx, resp.Reference, owner, drv.Name(), true, func(ctx context.Context, rec *models.VerificationRecord, now time.Time) error {
		data, emptyDataChange, err := mergeResponse(rec.Data, resp, now, flattenOptions{duplicateDetection: s.cfg.DuplicateDetection})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to merge response data")
		}
		if emptyDataChange {
			s.logger.WarnContext(ctx, "data change webhook without verification data",
				"reference", rec.Reference,
				"event", resp.Event,
			)
		}
		if extra.IsObject() {
			data = document.Merge(data, extra)
		}
		rec.Data = data
		if resp.Reference != "" {
			rec.Reference = resp.Reference
		}
		if rec.Driver == "" {
			rec.Driver = drv.Name()
		}
		applyStatus(rec, newStatus, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "KYC status updated",
		"owner", res.record.Owner.String(),
		"reference", res.record.Reference,
		"previous_status", string(res.previous),
		"status", string(res.record.Status),
		"event", resp.Event,
		"driver", drv.Name(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if res.previous != res.record.Status {
		s.metrics.IncrementTransition(drv.Name(), string(res.previous), string(res.record.Status))
		s.notifyTransition(ctx, res.record, resp.Event)
	}
	return res.record, nil
}

// applyStatus sets the new status and the lifecycle timestamps.
//
// startedAt is set once, when a record that has not started yet (NotStarted, or
// RequestPending where the provider session exists but the owner has not begun)
// moves into an active in-progress state. completedAt is set on the first entry
// into a completed state. Neither is ever cleared.
func applyStatus(rec *models.VerificationRecord, status models.Status, now time.Time) {
	previous := rec.Status
	rec.Status = status
	notStarted := previous == models.StatusNotStarted || previous == models.StatusRequestPending
	if rec.StartedAt == nil && notStarted && status.IsInProgress() && status != models.StatusRequestPending {
		t := now
		rec.StartedAt = &t
	}
	if rec.CompletedAt == nil && status.IsCompleted() {
		t := now
		rec.CompletedAt = &t
	}
}

func mapEvent(drv driver.Driver, event string) (status models.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = ""
			err = dErrors.New(dErrors.CodeInternal, fmt.Sprintf("driver %s failed to map event %q: %v", drv.Name(), event, r))
		}
	}()
	status = drv.MapEventToStatus(event)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInternal, fmt.Sprintf("driver %s mapped event %q to unknown status %q", drv.Name(), event, status))
	}
	return status, nil
}

func (s *StatusService) notifyTransition(ctx context.Context, rec *models.VerificationRecord, event string) {
	var kind models.NotificationKind
	switch {
	case rec.Status.IsCompleted():
		kind = models.NotificationCompleted
	case rec.Status.IsFailed():
		kind = models.NotificationFailed
	default:
		return
	}
	s.send(ctx, models.Notification{
		Kind:       kind,
		Owner:      rec.Owner,
		Reference:  rec.Reference,
		Driver:     rec.Driver,
		Status:     rec.Status,
		Event:      event,
		OccurredAt: requestcontext.Now(ctx),
	})
}

// send delivers n and swallows the error; notification failures never undo a
// committed status update.
func (s *StatusService) send(ctx context.Context, n models.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.metrics.IncrementNotificationFailure(string(n.Kind))
		s.logger.ErrorContext(ctx, "failed to deliver KYC notification",
			"kind", string(n.Kind),
			"reference", n.Reference,
			"error", err,
		)
	}
}

// mutate resolves the record and applies fn inside one store transaction, under
// the reference lock when one is configured. With allowCreate a missing record is
// created as NotStarted for owner.
func (s *StatusService) mutate(ctx context.Context, reference string, owner models.OwnerRef, driverName string, allowCreate bool, fn mutation) (*outcome, error) {
	lockKey := reference
	if lockKey == "" {
		lockKey = "owner:" + owner.String()
	}
	waitStart := time.Now()
	lease, err := s.locker.Acquire(ctx, lockKey, s.lockTTL())
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeTimeout {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock verification record")
	}
	s.metrics.ObserveLockWait(time.Since(waitStart))
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.WarnContext(ctx, "failed to release verification lock", "reference", lockKey, "error", rerr)
		}
	}()

	var res *outcome
	for attempt := 1; ; attempt++ {
		res, err = s.mutateOnce(ctx, reference, owner, driverName, allowCreate, fn)
		if err == nil || !errors.Is(err, sentinel.ErrConflict) || attempt == maxConflictRetries {
			break
		}
		s.logger.DebugContext(ctx, "verification record changed concurrently, retrying",
			"reference", reference,
			"attempt", attempt,
		)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}
	return res, nil
}

func (s *StatusService) mutateOnce(ctx context.Context, reference string, owner models.OwnerRef, driverName string, allowCreate bool, fn mutation) (*outcome, error) {
	var res *outcome
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		rec, created, err := s.resolve(ctx, reference, owner, driverName, allowCreate, now)
		if err != nil {
			return err
		}
		previous := rec.Status
		if err := fn(ctx, rec, now); err != nil {
			return err
		}
		rec.UpdatedAt = now
		if created {
			err = s.store.Create(ctx, rec)
		} else {
			err = s.store.Update(ctx, rec)
		}
		if err != nil {
			return fmt.Errorf("persist verification %s: %w", rec.Reference, err)
		}
		res = &outcome{record: rec, previous: previous}
		return nil
	})
	return res, err
}

func (s *StatusService) resolve(ctx context.Context, reference string, owner models.OwnerRef, driverName string, allowCreate bool, now time.Time) (*models.VerificationRecord, bool, error) {
	if reference != "" {
		rec, err := s.store.FindByReference(ctx, reference)
		if err == nil {
			return rec, false, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, fmt.Errorf("find verification %s: %w", reference, err)
		}
	}
	if !owner.IsZero() {
		rec, err := s.store.FindLatestByOwner(ctx, owner)
		if err == nil {
			return rec, false, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, fmt.Errorf("find latest verification for %s: %w", owner, err)
		}
	}
	if !allowCreate {
		return nil, false, sentinel.ErrNotFound
	}
	if owner.IsZero() {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "owner is required to create a verification record")
	}
	ref := reference
	if ref == "" {
		ref = models.PlaceholderReference()
	}
	return models.NewRecord(owner, driverName, ref, now), true, nil
}

func (s *StatusService) lockTTL() time.Duration {
	if s.cfg.LockTTL > 0 {
		return s.cfg.LockTTL
	}
	return 30 * time.Second
}

// translateStoreError keeps coded errors and maps store sentinels to codes.
func translateStoreError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "verification record not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "verification record changed concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist verification record")
	}
}

// Begin marks the owner's verification as started with the given provider
// reference and URL. The driver defaults to the configured default driver.
func (s *StatusService) Begin(ctx context.Context, owner models.OwnerRef, reference, url, driverName string) (*models.VerificationRecord, error) {
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reference is required")
	}
	if driverName == "" {
		driverName = s.cfg.DefaultDriver
	}
	res, err := s.mutate(ctx, reference, owner, driverName, true, func(_ context.Context, rec *models.VerificationRecord, now time.Time) error {
		if url != "" {
			rec.Data = document.EnsureObject(rec.Data).
				With(models.DataVerificationURL, document.String(url)).
				With(models.DataVerificationURLCreatedAt, document.String(now.UTC().Format(models.TimestampLayout)))
		}
		rec.Reference = reference
		rec.Driver = driverName
		rec.Status = models.StatusInProgress
		if rec.StartedAt == nil {
			t := now
			rec.StartedAt = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res.record, nil
}

// UpdateData merges patch into the data of the record with reference. Status and
// timestamps are left alone.
func (s *StatusService) UpdateData(ctx context.Context, reference string, patch document.Value) (*models.VerificationRecord, error) {
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reference is required")
	}
	res, err := s.mutate(ctx, reference, models.OwnerRef{}, "", false, func(_ context.Context, rec *models.VerificationRecord, _ time.Time) error {
		rec.Data = document.Merge(document.EnsureObject(rec.Data), document.EnsureObject(patch))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res.record, nil
}

// CurrentStatus returns the status of the owner's latest record. ok is false when
// the owner has none.
func (s *StatusService) CurrentStatus(ctx context.Context, owner models.OwnerRef) (status models.Status, ok bool, err error) {
	rec, err := s.latest(ctx, owner)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.Status, true, nil
}

func (s *StatusService) CanStartKyc(ctx context.Context, owner models.OwnerRef) (bool, error) {
	status, ok, err := s.CurrentStatus(ctx, owner)
	if err != nil {
		return false, err
	}
	return !ok || status.CanStartIdentityVerification(), nil
}

func (s *StatusService) HasCompletedKyc(ctx context.Context, owner models.OwnerRef) (bool, error) {
	status, ok, err := s.CurrentStatus(ctx, owner)
	if err != nil {
		return false, err
	}
	return ok && status.IsCompleted(), nil
}

func (s *StatusService) NeedsKycVerification(ctx context.Context, owner models.OwnerRef) (bool, error) {
	status, ok, err := s.CurrentStatus(ctx, owner)
	if err != nil {
		return false, err
	}
	return !ok || status.NeedsAction(), nil
}

// CanResumeKyc applies the local resumability predicate to the owner's latest
// record.
func (s *StatusService) CanResumeKyc(ctx context.Context, owner models.OwnerRef) (bool, error) {
	rec, err := s.latest(ctx, owner)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.CanResume(requestcontext.Now(ctx), s.cfg.URLExpiry), nil
}

// ActiveVerificationURL returns the owner's unexpired stored URL, or "".
func (s *StatusService) ActiveVerificationURL(ctx context.Context, owner models.OwnerRef) (string, error) {
	rec, err := s.latest(ctx, owner)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.ActiveVerificationURL(requestcontext.Now(ctx), s.cfg.URLExpiry), nil
}

// latest returns nil, nil when the owner has no record.
func (s *StatusService) latest(ctx context.Context, owner models.OwnerRef) (*models.VerificationRecord, error) {
	rec, err := s.store.FindLatestByOwner(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	return rec, nil
}
