// Package notify delivers verification lifecycle notifications to sinks.
//
// Delivery is fire-and-forget from the service's point of view: the reconciliation
// engine notifies after commit and only logs a failed Notify.
package notify

import (
	"context"
	"errors"

	"kycore/internal/kyc/models"
)

//go:generate mockgen -source=notify.go -destination=mocks/mock_notifier.go -package=mocks Notifier

// Notifier is a notification sink.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n models.Notification) error

func (f Func) Notify(ctx context.Context, n models.Notification) error { return f(ctx, n) }

// FanOut delivers to every sink and joins their errors. One failing sink does not
// stop delivery to the rest.
type FanOut []Notifier

func (f FanOut) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, models.Notification) error { return nil }
