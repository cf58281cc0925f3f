// Package service holds the reconciliation engine (StatusService) and the
// verification orchestrator (Manager).
//
// Every mutation of a verification record goes through StatusService so that the
// merge, lifecycle timestamps and notifications follow one set of rules. Manager
// is the entry point for callers: it selects drivers, runs validation gates and
// delegates persistence to StatusService.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycore/internal/kyc/lock"
	"kycore/internal/kyc/metrics"
	"kycore/internal/kyc/models"
	"kycore/internal/kyc/notify"
	dErrors "kycore/pkg/domain-errors"
)

const tracerName = "kycore/internal/kyc/service"

// RecordStore is the persistence the services need. store.Store satisfies it.
type RecordStore interface {
	FindByReference(ctx context.Context, reference string) (*models.VerificationRecord, error)
	FindLatestByOwner(ctx context.Context, owner models.OwnerRef) (*models.VerificationRecord, error)
	Create(ctx context.Context, rec *models.VerificationRecord) error
	Update(ctx context.Context, rec *models.VerificationRecord) error
	CountByOwnerAndStatuses(ctx context.Context, owner models.OwnerRef, statuses []models.Status) (int, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Validator runs the eligibility and request gates before a verification starts.
type Validator interface {
	ValidateOwner(ctx context.Context, owner models.Owner) error
	ValidateRequest(req models.VerificationRequest) error
}

// deps are the collaborators shared by StatusService and Manager.
type deps struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	locker   lock.Locker
	notifier notify.Notifier
	tracer   trace.Tracer
}

type Option func(*deps)

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) {
		d.metrics = m
	}
}

// WithLocker serializes reconciliation per reference on top of the store
// transaction. Required when several processes share a store without row locks.
func WithLocker(l lock.Locker) Option {
	return func(d *deps) {
		d.locker = l
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(d *deps) {
		d.notifier = n
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(d *deps) {
		d.tracer = t
	}
}

func newDeps(opts []Option) deps {
	d := deps{
		logger:   slog.Default(),
		locker:   lock.Noop{},
		notifier: notify.Discard{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// track opens a span and returns the function that closes it and records the
// operation metric.
func (d *deps) track(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := d.tracer.Start(ctx, "kyc."+operation, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		d.metrics.ObserveOperation(operation, outcome, time.Since(start))
		span.End()
	}
}
