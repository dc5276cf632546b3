package service

import (
	"context"
	"net/http"
	"testing"

	"algotutor/internal/common"
	"algotutor/internal/domain/model"
	"algotutor/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordsSubmitAndStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(repository.NewMemoryLedgerRepository())

	svc.ObserveForward(ctx, &Envelope{
		Method:      http.MethodPost,
		BackendPath: "/api/v1/code/submit",
		Body:        []byte(`{"question_id":"two-sum","code":"x","language":"go"}`),
	}, []byte(`{"submission_id":"abc","status":"queued"}`))

	e, err := svc.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "two-sum", e.QuestionID)
	assert.Equal(t, "go", e.Language)
	assert.Equal(t, model.StatusQueued, e.Status)
	assert.NotEmpty(t, e.ID)

	svc.ObserveForward(ctx, &Envelope{
		Method:      http.MethodGet,
		BackendPath: "/api/v1/code/status/abc",
	}, []byte(`{"status":"completed","total_passed":2,"total_tests":3}`))

	e, err = svc.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, e.Status)
	assert.Equal(t, 2, e.TotalPassed)
	assert.Equal(t, 3, e.TotalTests)
}

func TestLedgerIgnoresUnrelatedTraffic(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(repository.NewMemoryLedgerRepository())

	svc.ObserveForward(ctx, &Envelope{Method: http.MethodPost, BackendPath: "/api/v1/code/submit"}, []byte(`{"status":"error"}`))
	svc.ObserveForward(ctx, &Envelope{Method: http.MethodGet, BackendPath: "/api/v1/question/"}, []byte(`[]`))
	svc.ObserveForward(ctx, &Envelope{Method: http.MethodGet, BackendPath: "/api/v1/code/status/zzz"}, []byte(`{"status":"running"}`))

	entries, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
