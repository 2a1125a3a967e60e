package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daily_judge/internal/app/service"
	"daily_judge/internal/common"
	"daily_judge/internal/domain/repository/inmem"
	"daily_judge/internal/platform/store"
)

func setup(t *testing.T) (*commandLine, *store.Repositories, *bytes.Buffer) {
	t.Helper()
	repos := store.Memory(inmem.NewDB())
	courses := service.NewCourseService(repos.Courses, repos.Problems, repos.Users)
	out := &bytes.Buffer{}
	return &commandLine{
		problemSvc: service.NewProblemService(repos.Problems, courses, 8, time.Minute),
		out:        out,
	}, repos, out
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_commandLine_run(t *testing.T) {
	structured := `{
		"title": "Add Two",
		"statement": "Print a + b.",
		"difficulty": "Easy",
		"test_cases": [{"params": [{"name": "a", "value": 1}, {"name": "b", "value": 2}], "output": "3"}]
	}`

	tests := []struct {
		name      string
		args      []string // without program name
		wantErr   error
		wantErrIn string
		wantID    string
		wantCases int
	}{
		{name: "default problem", wantID: "two-sum", wantCases: 3},
		{name: "from file", args: []string{"-file", writeFile(t, structured)}, wantID: "add-two", wantCases: 1},
		{name: "missing statement", args: []string{"-file", writeFile(t, `{"title":"x","difficulty":"Easy","test_cases":[{"input":"1","output":"1"}]}`)}, wantErr: common.ErrValidation},
		{name: "bad json", args: []string{"-file", writeFile(t, `[`)}, wantErrIn: "parse"},
		{name: "unknown flag", args: []string{"-nope"}, wantErrIn: "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, repos, out := setup(t)
			err := cli.run(append([]string{"seedproblem"}, tt.args...))

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.wantErrIn != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrIn) {
					t.Fatalf("run() error = %v, want it to contain %q", err, tt.wantErrIn)
				}
				return
			case err != nil:
				t.Fatalf("run() error = %v", err)
			}

			p, err := repos.Problems.FindByID(context.Background(), tt.wantID)
			if err != nil {
				t.Fatalf("problem %s not stored: %v", tt.wantID, err)
			}
			if len(p.TestCases) != tt.wantCases {
				t.Errorf("test cases = %d, want %d", len(p.TestCases), tt.wantCases)
			}
			if !strings.Contains(out.String(), tt.wantID) {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestSeedProblemTwiceUpdates(t *testing.T) {
	cli, repos, _ := setup(t)
	for i := 0; i < 2; i++ {
		if err := cli.run([]string{"seedproblem"}); err != nil {
			t.Fatal(err)
		}
	}
	problems, _ := repos.Problems.List(context.Background())
	if len(problems) != 1 {
		t.Errorf("problems = %d, want 1", len(problems))
	}
}
