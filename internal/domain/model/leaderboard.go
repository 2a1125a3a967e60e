package model

// Day progress marks shown on the dashboard.
const (
	DayMarkSolved  = "✓"
	DayMarkFailed  = "X"
	DayMarkPartial = "O"
	DayMarkNone    = ""
)

type StudentSummary struct {
	UserID          string   `json:"user_id"`
	DisplayName     string   `json:"display_name"`
	Email           string   `json:"email"`
	TeacherID       string   `json:"teacher_id,omitempty"`
	Progress        []string `json:"progress"`
	PercentComplete int      `json:"percent_complete"`
	AttemptsAvg     float64  `json:"attempts_avg"`
	TimeAvg         float64  `json:"time_avg"`
	TotalPoints     int      `json:"total_points"`
	ProblemsSolved  int      `json:"problems_solved"`
}

type TeacherGroup struct {
	TeacherID   string           `json:"teacher_id"`
	TeacherName string           `json:"teacher_name"`
	Students    []StudentSummary `json:"students"`
}

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	TotalPoints    int    `json:"total_points"`
	ProblemsSolved int    `json:"problems_solved"`
}
