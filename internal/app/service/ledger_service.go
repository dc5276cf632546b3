package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"algotutor/internal/common"
	"algotutor/internal/domain/model"
	"algotutor/internal/domain/repository"

	"github.com/google/uuid"
)

const (
	DefaultLedgerLimit = 20
	MaxLedgerLimit     = 100
)

// LedgerService records submissions seen by the proxy and serves them back.
type LedgerService struct {
	repo repository.LedgerRepository
}

func NewLedgerService(repo repository.LedgerRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

func (s *LedgerService) ObserveForward(ctx context.Context, env *Envelope, body []byte) {
	switch {
	case env.Method == http.MethodPost && env.BackendPath == submitPath:
		if err := s.recordSubmit(ctx, env.Body, body); err != nil {
			slog.Warn("ledger: record submission failed", "error", err)
		}
	case env.Method == http.MethodGet:
		id, ok := SubmissionIDFromStatusPath(env.BackendPath)
		if !ok {
			return
		}
		if err := s.recordStatus(ctx, id, body); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				slog.Debug("ledger: status for unrecorded submission", "submission_id", id)
				return
			}
			slog.Warn("ledger: update status failed", "submission_id", id, "error", err)
		}
	}
}

func (s *LedgerService) recordSubmit(ctx context.Context, reqBody, respBody []byte) error {
	var resp model.SubmissionStatus
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("decode submit response: %w", err)
	}
	if resp.SubmissionID == "" {
		return common.ErrMissingSubmissionID
	}
	// The request body is forwarded as-is and may not be ours to parse.
	var req model.SubmitRequest
	_ = json.Unmarshal(reqBody, &req)

	status := resp.Status
	if status == "" {
		status = model.StatusQueued
	}
	now := time.Now().UTC()
	entry := &model.LedgerEntry{
		ID:           uuid.NewString(),
		SubmissionID: resp.SubmissionID,
		QuestionID:   req.QuestionID,
		Language:     req.Language,
		Status:       status,
		TotalPassed:  resp.TotalPassed,
		TotalTests:   resp.TotalTests,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	return s.repo.Create(ctx, entry)
}

func (s *LedgerService) recordStatus(ctx context.Context, submissionID string, body []byte) error {
	var st model.SubmissionStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}
	if st.Status == "" {
		return nil
	}
	return s.repo.UpdateStatus(ctx, submissionID, st.Status, st.TotalPassed, st.TotalTests)
}

func (s *LedgerService) List(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	if limit > MaxLedgerLimit {
		limit = MaxLedgerLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *LedgerService) Get(ctx context.Context, submissionID string) (*model.LedgerEntry, error) {
	if submissionID == "" {
		return nil, common.ErrBadRequest
	}
	return s.repo.FindBySubmissionID(ctx, submissionID)
}
