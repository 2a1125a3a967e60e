package service

import (
	"context"
	"fmt"
	"strings"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/testcase"
	"daily_judge/internal/domain/verdict"
	"daily_judge/internal/platform/executor"

	log "github.com/sirupsen/logrus"
)

// Executor runs programs on the remote execution service.
type Executor interface {
	Execute(ctx context.Context, languageID int, runs []executor.Run) ([]executor.Result, error)
}

type EvaluationService struct {
	problems *ProblemService
	executor Executor
	progress *ProgressService
	logger   *log.Entry
}

func NewEvaluationService(problems *ProblemService, exec Executor, progress *ProgressService) *EvaluationService {
	return &EvaluationService{
		problems: problems,
		executor: exec,
		progress: progress,
		logger:   log.WithField("from", "evaluation service"),
	}
}

// Evaluate runs the job's code against every test case of its problem and
// records the outcome. When the execution service fails the stat record is
// left untouched.
func (s *EvaluationService) Evaluate(ctx context.Context, job *model.EvaluationJob) (*verdict.Report, *model.SubmissionStat, error) {
	if strings.TrimSpace(job.Code) == "" {
		return nil, nil, fmt.Errorf("%w: code is required", common.ErrValidation)
	}

	problem, err := s.problems.Get(ctx, job.ProblemID)
	if err != nil {
		return nil, nil, err
	}
	cases, err := testcase.Prepare(problem.TestCases)
	if err != nil {
		return nil, nil, fmt.Errorf("problem %s: %w", problem.ID, err)
	}

	runs := make([]executor.Run, len(cases))
	expected := make([]string, len(cases))
	for i, c := range cases {
		runs[i] = executor.Run{SourceCode: c.Source(job.Code), Stdin: c.Stdin, ExpectedOutput: c.Expected}
		expected[i] = c.Expected
	}

	s.logger.Infof("evaluating job %s: %d test cases for %s", job.ID, len(runs), problem.ID)
	results, err := s.executor.Execute(ctx, job.LanguageID, runs)
	if err != nil {
		return nil, nil, fmt.Errorf("execute job %s: %w", job.ID, err)
	}

	outcomes := make([]verdict.Outcome, len(results))
	for i, r := range results {
		outcomes[i] = verdict.Outcome{
			StatusID:          r.Status.ID,
			StatusDescription: r.Status.Description,
			Stdout:            r.Stdout,
			Stderr:            r.Stderr,
			CompileOutput:     r.CompileOutput,
			Message:           r.Message,
		}
	}
	report, err := verdict.Aggregate(outcomes, expected)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate job %s: %w", job.ID, err)
	}

	stat, err := s.progress.RecordSubmission(ctx, SubmissionOutcome{
		EventID:        job.ID,
		UserID:         job.UserID,
		ProblemID:      job.ProblemID,
		Success:        report.Success,
		ElapsedSeconds: job.ElapsedSeconds,
	})
	if err != nil {
		return &report, nil, err
	}
	return &report, stat, nil
}
