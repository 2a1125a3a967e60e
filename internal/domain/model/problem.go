package model

import (
	"time"

	"daily_judge/internal/domain/testcase"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

type Problem struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Statement           string            `json:"statement"`
	Constraints         string            `json:"constraints,omitempty"`
	StarterCode         string            `json:"starter_code,omitempty"`
	StarterFunctionName string            `json:"starter_function_name,omitempty"`
	Examples            []Example         `json:"examples,omitempty"`
	TestCases           testcase.List     `json:"test_cases,omitempty"` // Hidden from students
	Difficulty          ProblemDifficulty `json:"difficulty"`
	Category            string            `json:"category,omitempty"`
	Order               int               `json:"order"`
	Link                string            `json:"link,omitempty"`
	VideoID             string            `json:"video_id,omitempty"`
	CreatedByID         string            `json:"created_by_id,omitempty"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// PublicView returns a copy of the problem without its test cases.
func (p Problem) PublicView() Problem {
	p.TestCases = nil
	return p
}
