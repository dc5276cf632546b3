package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// StatusTag is the judging progress reported by the backend.
type StatusTag string

const (
	StatusQueued     StatusTag = "queued"
	StatusPending    StatusTag = "pending"
	StatusProcessing StatusTag = "processing"
	StatusRunning    StatusTag = "running"
	StatusCompleted  StatusTag = "completed"
	StatusError      StatusTag = "error"
)

// InProgress reports whether the submission is still being judged and
// should be polled again.
func (s StatusTag) InProgress() bool {
	switch s {
	case StatusQueued, StatusPending, StatusProcessing, StatusRunning:
		return true
	}
	return false
}

// IsTerminal is the complement of InProgress; unknown tags are terminal.
func (s StatusTag) IsTerminal() bool {
	return !s.InProgress()
}

// SubmitRequest is the body of POST /api/v1/code/submit.
type SubmitRequest struct {
	QuestionID string `json:"question_id"`
	Code       string `json:"code"`
	Language   string `json:"language"`
}

// SubmissionStatus is a point-in-time snapshot of a submission. The submit
// endpoint answers with the same shape.
type SubmissionStatus struct {
	SubmissionID   string          `json:"submission_id"`
	Status         StatusTag       `json:"status"`
	Message        string          `json:"message"`
	Results        []TestResult    `json:"results"`
	TotalPassed    int             `json:"total_passed"`
	TotalTests     int             `json:"total_tests"`
	ExecutionTime  float64         `json:"execution_time"`
	MemoryUsed     float64         `json:"memory_used"`
	Error          json.RawMessage `json:"error,omitempty"`
	Success        bool            `json:"success"`
	Input          *string         `json:"input"`
	ExpectedOutput *string         `json:"expected_output"`
	OutputValue    *string         `json:"output_value"`
	SubmittedAt    string          `json:"submitted_at"`
}

type TestResult struct {
	TestCaseID    string  `json:"test_case_id"`
	Passed        bool    `json:"passed"`
	ExecutionTime float64 `json:"execution_time"`
	MemoryUsed    float64 `json:"memory_used"`
	Output        *string `json:"output"`
	Error         *string `json:"error"`
}

// HasError reports whether the backend attached an error payload. The field
// has been seen both as a boolean and as a message.
func (s *SubmissionStatus) HasError() bool {
	e := bytes.TrimSpace(s.Error)
	if len(e) == 0 {
		return false
	}
	switch string(e) {
	case "null", "false", `""`:
		return false
	}
	return true
}

// ErrorText returns the error payload as text, or "" when there is none.
func (s *SubmissionStatus) ErrorText() string {
	if !s.HasError() {
		return ""
	}
	var text string
	if err := json.Unmarshal(s.Error, &text); err == nil {
		return text
	}
	return string(s.Error)
}

// AllPassed is true for a completed submission that passed every test.
func (s *SubmissionStatus) AllPassed() bool {
	return s.Status == StatusCompleted && s.TotalPassed == s.TotalTests
}

// CompletionEvent is published once a forwarded status reaches a terminal tag.
type CompletionEvent struct {
	SubmissionID string    `json:"submission_id"`
	Status       StatusTag `json:"status"`
	TotalPassed  int       `json:"total_passed"`
	TotalTests   int       `json:"total_tests"`
	ObservedAt   time.Time `json:"observed_at"`
}
