package verdict

import (
	"fmt"
	"strings"

	"daily_judge/internal/common"
)

const (
	StatusAccepted            = 3
	StatusAcceptedDescription = "Accepted"
)

var (
	ErrNoResults      = fmt.Errorf("%w: no test case results to aggregate", common.ErrValidation)
	ErrLengthMismatch = fmt.Errorf("%w: results and expected outputs differ in length", common.ErrValidation)
)

// Outcome is what the execution service reported for one test case.
type Outcome struct {
	StatusID          int
	StatusDescription string
	Stdout            string
	Stderr            string
	CompileOutput     string
	Message           string
}

type CaseResult struct {
	Index             int    `json:"index"`
	Passed            bool   `json:"passed"`
	Expected          string `json:"expected"`
	Received          string `json:"received"`
	StatusID          int    `json:"status_id"`
	StatusDescription string `json:"status_description"`
	Stderr            string `json:"stderr,omitempty"`
	CompileOutput     string `json:"compile_output,omitempty"`
	Console           string `json:"console"`
}

type Report struct {
	Success bool         `json:"success"`
	Passed  int          `json:"passed"`
	Total   int          `json:"total"`
	Cases   []CaseResult `json:"cases"`
}

// Passed reports whether one outcome satisfies its expected output. The
// program must produce the expected stdout (ignoring surrounding whitespace),
// be accepted by the service and write nothing to stderr or compile output.
func Passed(o Outcome, expected string) bool {
	return strings.TrimSpace(o.Stdout) == strings.TrimSpace(expected) &&
		o.StatusID == StatusAccepted &&
		o.StatusDescription == StatusAcceptedDescription &&
		o.Stderr == "" &&
		o.CompileOutput == ""
}

// Aggregate decides every test case and the submission as a whole. The
// submission succeeds only if every case passed.
func Aggregate(outcomes []Outcome, expected []string) (Report, error) {
	if len(outcomes) == 0 {
		return Report{}, ErrNoResults
	}
	if len(outcomes) != len(expected) {
		return Report{}, ErrLengthMismatch
	}

	report := Report{Success: true, Total: len(outcomes), Cases: make([]CaseResult, 0, len(outcomes))}
	for i, o := range outcomes {
		passed := Passed(o, expected[i])
		if passed {
			report.Passed++
		} else {
			report.Success = false
		}
		report.Cases = append(report.Cases, CaseResult{
			Index:             i + 1,
			Passed:            passed,
			Expected:          expected[i],
			Received:          strings.TrimSpace(o.Stdout),
			StatusID:          o.StatusID,
			StatusDescription: o.StatusDescription,
			Stderr:            o.Stderr,
			CompileOutput:     o.CompileOutput,
			Console:           console(i+1, o, expected[i], passed),
		})
	}
	return report, nil
}

func console(index int, o Outcome, expected string, passed bool) string {
	mark := "FAILED"
	if passed {
		mark = "PASSED"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Test case %d: %s\n", index, mark)
	fmt.Fprintf(&sb, "Expected: %s\n", strings.TrimSpace(expected))
	fmt.Fprintf(&sb, "Received: %s\n", strings.TrimSpace(o.Stdout))
	fmt.Fprintf(&sb, "Status: %s", o.StatusDescription)
	if o.CompileOutput != "" {
		fmt.Fprintf(&sb, "\nCompile output:\n%s", o.CompileOutput)
	}
	if o.Stderr != "" {
		fmt.Fprintf(&sb, "\nStderr:\n%s", o.Stderr)
	}
	if o.Message != "" {
		fmt.Fprintf(&sb, "\nMessage: %s", o.Message)
	}
	return sb.String()
}
