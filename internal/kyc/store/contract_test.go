package store_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycore/internal/kyc/document"
	"kycore/internal/kyc/models"
	"kycore/internal/kyc/store"
	"kycore/pkg/platform/sentinel"
)

// storeContractSuite holds the behaviour every Store implementation shares.
type storeContractSuite struct {
	suite.Suite
	newStore func() store.Store
	store    store.Store
}

func (s *storeContractSuite) SetupTest() {
	s.store = s.newStore()
}

var baseTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newRecord(owner models.OwnerRef, reference string, created time.Time) *models.VerificationRecord {
	rec := models.NewRecord(owner, "shuftipro", reference, created)
	rec.Data = document.MustFromAny(map[string]any{"a": map[string]any{"b": 1}})
	return rec
}

func uniqueOwner() models.OwnerRef {
	return models.OwnerRef{Type: "user", ID: uuid.NewString()}
}

func (s *storeContractSuite) TestCreateAndFind() {
	ctx := context.Background()
	owner := uniqueOwner()
	rec := newRecord(owner, "ref-"+uuid.NewString(), baseTime)
	s.Require().NoError(s.store.Create(ctx, rec))
	s.Equal(int64(1), rec.Version)

	found, err := s.store.FindByReference(ctx, rec.Reference)
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)
	s.Equal(owner, found.Owner)
	s.Equal(models.StatusNotStarted, found.Status)
	s.True(document.Equal(rec.Data, found.Data))
	s.Nil(found.StartedAt)
}

func (s *storeContractSuite) TestFindMissing() {
	ctx := context.Background()
	_, err := s.store.FindByReference(ctx, "missing-"+uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindLatestByOwner(ctx, uniqueOwner())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContractSuite) TestDuplicateReference() {
	ctx := context.Background()
	ref := "dup-" + uuid.NewString()
	s.Require().NoError(s.store.Create(ctx, newRecord(uniqueOwner(), ref, baseTime)))
	s.ErrorIs(s.store.Create(ctx, newRecord(uniqueOwner(), ref, baseTime)), sentinel.ErrConflict)
}

func (s *storeContractSuite) TestFindLatestByOwner() {
	ctx := context.Background()
	owner := uniqueOwner()
	older := newRecord(owner, "old-"+uuid.NewString(), baseTime)
	newer := newRecord(owner, "new-"+uuid.NewString(), baseTime.Add(time.Hour))
	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	latest, err := s.store.FindLatestByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Equal(newer.Reference, latest.Reference)
}

func (s *storeContractSuite) TestUpdateIsOptimistic() {
	ctx := context.Background()
	rec := newRecord(uniqueOwner(), "opt-"+uuid.NewString(), baseTime)
	s.Require().NoError(s.store.Create(ctx, rec))

	first, err := s.store.FindByReference(ctx, rec.Reference)
	s.Require().NoError(err)
	stale, err := s.store.FindByReference(ctx, rec.Reference)
	s.Require().NoError(err)

	started := baseTime.Add(time.Minute)
	first.Status = models.StatusInProgress
	first.StartedAt = &started
	first.Data = first.Data.With("x", document.String("y"))
	s.Require().NoError(s.store.Update(ctx, first))
	s.Equal(int64(2), first.Version)

	stale.Status = models.StatusRejected
	s.ErrorIs(s.store.Update(ctx, stale), sentinel.ErrConflict)

	got, err := s.store.FindByReference(ctx, rec.Reference)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, got.Status)
	s.Require().NotNil(got.StartedAt)
	s.True(started.Equal(*got.StartedAt))
	s.Equal("y", got.Data.StringAt("x"))
	s.Equal(int64(2), got.Version)
}

func (s *storeContractSuite) TestUpdateAdoptsNewReference() {
	ctx := context.Background()
	owner := uniqueOwner()
	rec := newRecord(owner, models.PlaceholderReference(), baseTime)
	s.Require().NoError(s.store.Create(ctx, rec))

	oldRef := rec.Reference
	rec.Reference = "SP_" + uuid.NewString()
	s.Require().NoError(s.store.Update(ctx, rec))

	_, err := s.store.FindByReference(ctx, oldRef)
	s.ErrorIs(err, sentinel.ErrNotFound)
	latest, err := s.store.FindLatestByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Equal(rec.Reference, latest.Reference)
}

func (s *storeContractSuite) TestUpdateMissing() {
	rec := newRecord(uniqueOwner(), "ghost-"+uuid.NewString(), baseTime)
	rec.Version = 1
	s.ErrorIs(s.store.Update(context.Background(), rec), sentinel.ErrNotFound)
}

func (s *storeContractSuite) TestCountByOwnerAndStatuses() {
	ctx := context.Background()
	owner := uniqueOwner()
	for i, st := range []models.Status{models.StatusRejected, models.StatusVerificationFailed, models.StatusCompleted} {
		rec := newRecord(owner, "cnt-"+uuid.NewString(), baseTime.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Create(ctx, rec))
		rec.Status = st
		s.Require().NoError(s.store.Update(ctx, rec))
	}

	n, err := s.store.CountByOwnerAndStatuses(ctx, owner, models.FailedStatuses)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *storeContractSuite) TestRunInTxRollsBackOnError() {
	ctx := context.Background()
	rec := newRecord(uniqueOwner(), "tx-"+uuid.NewString(), baseTime)
	s.Require().NoError(s.store.Create(ctx, rec))

	boom := errors.New("boom")
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		got, err := s.store.FindByReference(ctx, rec.Reference)
		s.Require().NoError(err)
		got.Status = models.StatusCompleted
		s.Require().NoError(s.store.Update(ctx, got))
		return boom
	})
	s.ErrorIs(err, boom)

	if _, ok := s.store.(*store.InMemoryStore); ok {
		// The memory store serializes transactions but has no rollback.
		return
	}
	got, err := s.store.FindByReference(ctx, rec.Reference)
	s.Require().NoError(err)
	s.Equal(models.StatusNotStarted, got.Status)
}

// TestConcurrentMergesAreSerialized runs read-merge-write cycles for one
// reference in parallel; every write must survive.
func (s *storeContractSuite) TestConcurrentMergesAreSerialized() {
	ctx := context.Background()
	rec := newRecord(uniqueOwner(), "conc-"+uuid.NewString(), baseTime)
	rec.Data = document.EmptyObject()
	s.Require().NoError(s.store.Create(ctx, rec))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.RunInTx(ctx, func(ctx context.Context) error {
				got, err := s.store.FindByReference(ctx, rec.Reference)
				if err != nil {
					return err
				}
				got.Data = document.Merge(got.Data, document.EmptyObject().With(uuid.NewString(), document.Bool(true)))
				return s.store.Update(ctx, got)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	got, err := s.store.FindByReference(ctx, rec.Reference)
	s.Require().NoError(err)
	s.Equal(writers, got.Data.Len())
	s.Equal(int64(writers+1), got.Version)
}
