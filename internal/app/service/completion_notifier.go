package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"algotutor/internal/domain/model"
)

type EventPublisher interface {
	PublishCompletion(ev model.CompletionEvent) error
}

// CompletionNotifier announces status responses that carry a terminal tag.
type CompletionNotifier struct {
	publisher EventPublisher
	now       func() time.Time
}

func NewCompletionNotifier(publisher EventPublisher) *CompletionNotifier {
	return &CompletionNotifier{publisher: publisher, now: time.Now}
}

func (n *CompletionNotifier) ObserveForward(_ context.Context, env *Envelope, body []byte) {
	if env.Method != http.MethodGet {
		return
	}
	id, ok := SubmissionIDFromStatusPath(env.BackendPath)
	if !ok {
		return
	}
	var st model.SubmissionStatus
	if err := json.Unmarshal(body, &st); err != nil || st.Status == "" || !st.Status.IsTerminal() {
		return
	}

	ev := model.CompletionEvent{
		SubmissionID: id,
		Status:       st.Status,
		TotalPassed:  st.TotalPassed,
		TotalTests:   st.TotalTests,
		ObservedAt:   n.now().UTC(),
	}
	if err := n.publisher.PublishCompletion(ev); err != nil {
		slog.Warn("publish completion failed", "submission_id", id, "error", err)
	}
}
