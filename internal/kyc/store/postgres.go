package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"kycore/internal/kyc/document"
	"kycore/internal/kyc/models"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
	txcontext "kycore/pkg/platform/tx"
)

// Schema creates the kyc_verifications table.
//
//go:embed schema.sql
var Schema string

const uniqueViolation = "23505"

const selectColumns = `id, owner_type, owner_id, driver, status, reference,
	started_at, completed_at, data, notes, version, created_at, updated_at`

// PostgresStore persists records in PostgreSQL. Inside RunInTx, reads lock the
// selected row with FOR UPDATE.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply kyc schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) lockClause(ctx context.Context) string {
	if _, ok := txcontext.From(ctx); ok {
		return " FOR UPDATE"
	}
	return ""
}

func (s *PostgresStore) FindByReference(ctx context.Context, reference string) (*models.VerificationRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM kyc_verifications WHERE reference = $1` + s.lockClause(ctx)
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, reference)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("find verification by reference: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) FindLatestByOwner(ctx context.Context, owner models.OwnerRef) (*models.VerificationRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM kyc_verifications
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1` + s.lockClause(ctx)
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, owner.Type, owner.ID)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("find latest verification by owner: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.VerificationRecord) error {
	data, err := json.Marshal(document.EnsureObject(rec.Data))
	if err != nil {
		return fmt.Errorf("encode verification data: %w", err)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	query := `
		INSERT INTO kyc_verifications (
			id, owner_type, owner_id, driver, status, reference,
			started_at, completed_at, data, notes, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		rec.ID, rec.Owner.Type, rec.Owner.ID, rec.Driver, string(rec.Status), rec.Reference,
		nullTime(rec.StartedAt), nullTime(rec.CompletedAt), string(data), rec.Notes, rec.Version,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *models.VerificationRecord) error {
	data, err := json.Marshal(document.EnsureObject(rec.Data))
	if err != nil {
		return fmt.Errorf("encode verification data: %w", err)
	}
	query := `
		UPDATE kyc_verifications SET
			driver = $3, status = $4, reference = $5, started_at = $6, completed_at = $7,
			data = $8, notes = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		rec.ID, rec.Version, rec.Driver, string(rec.Status), rec.Reference,
		nullTime(rec.StartedAt), nullTime(rec.CompletedAt), string(data), rec.Notes, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update verification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := txcontext.ExecutorFrom(ctx, s.db).
			QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM kyc_verifications WHERE id = $1)`, rec.ID).
			Scan(&exists)
		if err != nil {
			return fmt.Errorf("update verification: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	rec.Version++
	return nil
}

func (s *PostgresStore) CountByOwnerAndStatuses(ctx context.Context, owner models.OwnerRef, statuses []models.Status) (int, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	var n int
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM kyc_verifications
		WHERE owner_type = $1 AND owner_id = $2 AND status = ANY($3::text[])
	`, owner.Type, owner.ID, pq.Array(values)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count verifications: %w", err)
	}
	return n, nil
}

// RunInTx reuses a transaction already in ctx, otherwise opens one and commits
// when fn succeeds.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.VerificationRecord, error) {
	var (
		rec         models.VerificationRecord
		status      string
		startedAt   sql.NullTime
		completedAt sql.NullTime
		data        []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Owner.Type, &rec.Owner.ID, &rec.Driver, &status, &rec.Reference,
		&startedAt, &completedAt, &data, &rec.Notes, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	rec.Status = models.Status(status)
	if startedAt.Valid {
		t := startedAt.Time
		rec.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	doc, err := document.Parse(data)
	if err != nil {
		return nil, err
	}
	rec.Data = document.EnsureObject(doc)
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// isUniqueViolation recognises unique violations from both the pgx and lib/pq drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
