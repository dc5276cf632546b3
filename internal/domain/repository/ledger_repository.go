package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"algotutor/internal/common"
	"algotutor/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type LedgerRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	UpdateStatus(ctx context.Context, submissionID string, status model.StatusTag, totalPassed, totalTests int) error
	FindBySubmissionID(ctx context.Context, submissionID string) (*model.LedgerEntry, error)
	ListRecent(ctx context.Context, limit int) ([]model.LedgerEntry, error)
}

const ledgerSchema = `CREATE TABLE IF NOT EXISTS submission_ledger (
	id            UUID PRIMARY KEY,
	submission_id TEXT NOT NULL UNIQUE,
	question_id   TEXT NOT NULL DEFAULT '',
	language      TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	total_passed  INTEGER NOT NULL DEFAULT 0,
	total_tests   INTEGER NOT NULL DEFAULT 0,
	submitted_at  TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// EnsureLedgerSchema creates the ledger table if it does not exist yet.
func EnsureLedgerSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("EnsureLedgerSchema: %w", err)
	}
	return nil
}

type pgLedgerRepository struct {
	db *sql.DB
}

func NewPgLedgerRepository(db *sql.DB) LedgerRepository {
	return &pgLedgerRepository{db: db}
}

func (r *pgLedgerRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	query := `INSERT INTO submission_ledger
	          (id, submission_id, question_id, language, status, total_passed, total_tests, submitted_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SubmissionID, entry.QuestionID, entry.Language, string(entry.Status),
		entry.TotalPassed, entry.TotalTests, entry.SubmittedAt, entry.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("submission %s already recorded: %w", entry.SubmissionID, common.ErrConflict)
		}
		return fmt.Errorf("pgLedgerRepository.Create: %w", err)
	}
	return nil
}

func (r *pgLedgerRepository) UpdateStatus(ctx context.Context, submissionID string, status model.StatusTag, totalPassed, totalTests int) error {
	query := `UPDATE submission_ledger
	          SET status = $2, total_passed = $3, total_tests = $4, updated_at = $5
	          WHERE submission_id = $1`
	res, err := r.db.ExecContext(ctx, query, submissionID, string(status), totalPassed, totalTests, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("pgLedgerRepository.UpdateStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgLedgerRepository.UpdateStatus: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgLedgerRepository) FindBySubmissionID(ctx context.Context, submissionID string) (*model.LedgerEntry, error) {
	query := `SELECT id, submission_id, question_id, language, status, total_passed, total_tests, submitted_at, updated_at
	          FROM submission_ledger WHERE submission_id = $1`
	entry := &model.LedgerEntry{}
	err := scanEntry(r.db.QueryRowContext(ctx, query, submissionID), entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLedgerRepository.FindBySubmissionID: %w", err)
	}
	return entry, nil
}

func (r *pgLedgerRepository) ListRecent(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	query := `SELECT id, submission_id, question_id, language, status, total_passed, total_tests, submitted_at, updated_at
	          FROM submission_ledger ORDER BY submitted_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.ListRecent: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		var e model.LedgerEntry
		if err := scanEntry(rows, &e); err != nil {
			return nil, fmt.Errorf("pgLedgerRepository.ListRecent scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLedgerRepository.ListRecent: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, e *model.LedgerEntry) error {
	var status string
	err := row.Scan(&e.ID, &e.SubmissionID, &e.QuestionID, &e.Language, &status,
		&e.TotalPassed, &e.TotalTests, &e.SubmittedAt, &e.UpdatedAt)
	e.Status = model.StatusTag(status)
	return err
}

// memoryLedgerRepository backs the ledger when no database is configured.
type memoryLedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]model.LedgerEntry
}

func NewMemoryLedgerRepository() LedgerRepository {
	return &memoryLedgerRepository{entries: make(map[string]model.LedgerEntry)}
}

func (r *memoryLedgerRepository) Create(_ context.Context, entry *model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.SubmissionID]; ok {
		return fmt.Errorf("submission %s already recorded: %w", entry.SubmissionID, common.ErrConflict)
	}
	r.entries[entry.SubmissionID] = *entry
	return nil
}

func (r *memoryLedgerRepository) UpdateStatus(_ context.Context, submissionID string, status model.StatusTag, totalPassed, totalTests int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[submissionID]
	if !ok {
		return common.ErrNotFound
	}
	e.Status = status
	e.TotalPassed = totalPassed
	e.TotalTests = totalTests
	e.UpdatedAt = time.Now().UTC()
	r.entries[submissionID] = e
	return nil
}

func (r *memoryLedgerRepository) FindBySubmissionID(_ context.Context, submissionID string) (*model.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[submissionID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &e, nil
}

func (r *memoryLedgerRepository) ListRecent(_ context.Context, limit int) ([]model.LedgerEntry, error) {
	r.mu.RLock()
	entries := make([]model.LedgerEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
