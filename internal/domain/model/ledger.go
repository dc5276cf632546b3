package model

import "time"

// LedgerEntry is the gateway's record of a submission it forwarded.
type LedgerEntry struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	QuestionID   string    `json:"question_id"`
	Language     string    `json:"language"`
	Status       StatusTag `json:"status"`
	TotalPassed  int       `json:"total_passed"`
	TotalTests   int       `json:"total_tests"`
	SubmittedAt  time.Time `json:"submitted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
