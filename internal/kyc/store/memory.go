package store

import (
	"context"
	"sync"
	"time"

	"kycore/internal/kyc/models"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// InMemoryStore keeps records in process memory. RunInTx serializes transactions
// behind one coarse lock.
type InMemoryStore struct {
	mu sync.RWMutex
	// records is keyed by reference.
	records map[string]*models.VerificationRecord
	// byOwner holds each owner's references in creation order.
	byOwner   map[models.OwnerRef][]string
	txMu      sync.Mutex
	txTimeout time.Duration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[string]*models.VerificationRecord),
		byOwner:   make(map[models.OwnerRef][]string),
		txTimeout: defaultTxTimeout,
	}
}

func (s *InMemoryStore) FindByReference(_ context.Context, reference string) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) FindLatestByOwner(_ context.Context, owner models.OwnerRef) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := s.byOwner[owner]
	if len(refs) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return s.records[refs[len(refs)-1]].Clone(), nil
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.Reference]; exists {
		return sentinel.ErrConflict
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	s.records[rec.Reference] = rec.Clone()
	s.byOwner[rec.Owner] = append(s.byOwner[rec.Owner], rec.Reference)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		current *models.VerificationRecord
		oldRef  string
	)
	for ref, r := range s.records {
		if r.ID == rec.ID {
			current, oldRef = r, ref
			break
		}
	}
	if current == nil {
		return sentinel.ErrNotFound
	}
	if current.Version != rec.Version {
		return sentinel.ErrConflict
	}
	if rec.Reference != oldRef {
		if _, taken := s.records[rec.Reference]; taken {
			return sentinel.ErrConflict
		}
		delete(s.records, oldRef)
		refs := s.byOwner[current.Owner]
		for i, r := range refs {
			if r == oldRef {
				refs[i] = rec.Reference
			}
		}
	}
	rec.Version++
	s.records[rec.Reference] = rec.Clone()
	return nil
}

func (s *InMemoryStore) CountByOwnerAndStatuses(_ context.Context, owner models.OwnerRef, statuses []models.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[models.Status]struct{}, len(statuses))
	for _, st := range statuses {
		want[st] = struct{}{}
	}
	n := 0
	for _, ref := range s.byOwner[owner] {
		if _, ok := want[s.records[ref].Status]; ok {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
