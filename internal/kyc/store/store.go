// Package store persists verification records.
//
// Stores return pkg/platform/sentinel errors: ErrNotFound when no record matches,
// ErrConflict when a reference is already taken or an update lost an optimistic
// version race. Records are returned as copies; callers own what they receive.
package store

import (
	"context"

	"kycore/internal/kyc/models"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks Store

// Store is the record store contract.
type Store interface {
	FindByReference(ctx context.Context, reference string) (*models.VerificationRecord, error)
	// FindLatestByOwner returns the owner's most recently created record.
	FindLatestByOwner(ctx context.Context, owner models.OwnerRef) (*models.VerificationRecord, error)
	Create(ctx context.Context, rec *models.VerificationRecord) error
	// Update persists rec if its Version still matches the stored one, then
	// increments rec.Version.
	Update(ctx context.Context, rec *models.VerificationRecord) error
	CountByOwnerAndStatuses(ctx context.Context, owner models.OwnerRef, statuses []models.Status) (int, error)
	// RunInTx runs fn so that reads and writes inside it are atomic relative to
	// other transactions on the same records.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
