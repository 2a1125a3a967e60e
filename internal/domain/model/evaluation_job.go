package model

import (
	"time"

	"daily_judge/internal/domain/verdict"
)

type JobStatus string

const (
	JobStatusQueued     JobStatus = "Queued"
	JobStatusProcessing JobStatus = "Processing"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
)

// EvaluationJob is one submission waiting for, or done with, evaluation.
// Jobs live in Redis with a TTL; the stat record is the durable outcome.
type EvaluationJob struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	ProblemID      string          `json:"problem_id"`
	LanguageID     int             `json:"language_id"`
	Code           string          `json:"code"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	Status         JobStatus       `json:"status"`
	Report         *verdict.Report `json:"report,omitempty"`
	Stat           *SubmissionStat `json:"stat,omitempty"`
	Error          string          `json:"error,omitempty"`
	Requeues       int             `json:"requeues"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (j *EvaluationJob) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
