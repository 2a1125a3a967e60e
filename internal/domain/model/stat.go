package model

import "time"

type ProgressState string

const (
	ProgressUnvisited ProgressState = "Unvisited"
	ProgressCreated   ProgressState = "Created"
	ProgressAttempted ProgressState = "Attempted"
	ProgressSolved    ProgressState = "Solved"
)

// SubmissionStat is the per (user, problem) progress record.
type SubmissionStat struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	ProblemID          string     `json:"problem_id"`
	ExecutionCount     int        `json:"execution_count"`
	TotalExecutionTime int        `json:"total_execution_time"` // seconds
	LastExecutionTime  int        `json:"last_execution_time"`  // seconds
	LastSubmittedAt    *time.Time `json:"last_submitted_at,omitempty"`
	Success            bool       `json:"success"`
	Points             int        `json:"points"`
	LastEventID        string     `json:"last_event_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func StatID(userID, problemID string) string {
	return userID + "_" + problemID
}

func NewSubmissionStat(userID, problemID string, now time.Time) *SubmissionStat {
	return &SubmissionStat{
		ID:        StatID(userID, problemID),
		UserID:    userID,
		ProblemID: problemID,
		CreatedAt: now,
	}
}

func (s *SubmissionStat) State() ProgressState {
	switch {
	case s == nil:
		return ProgressUnvisited
	case s.Success:
		return ProgressSolved
	case s.ExecutionCount > 0:
		return ProgressAttempted
	default:
		return ProgressCreated
	}
}
