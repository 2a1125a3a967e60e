package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daily_judge/internal/app/service"
	"daily_judge/internal/common"
	"daily_judge/internal/domain/repository/inmem"
	"daily_judge/internal/platform/store"
)

func setup(t *testing.T) (*commandLine, *store.Repositories, *bytes.Buffer) {
	t.Helper()
	repos := store.Memory(inmem.NewDB())
	out := &bytes.Buffer{}
	return &commandLine{
		courseSvc: service.NewCourseService(repos.Courses, repos.Problems, repos.Users),
		out:       out,
	}, repos, out
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "course.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_commandLine_run(t *testing.T) {
	tests := []struct {
		name      string
		args      []string // without program name
		wantErr   error
		wantErrIn string
		wantTitle string
		wantDays  int
	}{
		{name: "default course", wantTitle: "Curso de Programación Básica", wantDays: 3},
		{
			name:      "from file with keyed days",
			args:      []string{"-file", writeFile(t, `{"title":"Intro","days":{"1":{"problems":["a"]},"2":{"problems":["b"]}}}`)},
			wantTitle: "Intro",
			wantDays:  2,
		},
		{name: "missing file", args: []string{"-file", "/does/not/exist.json"}, wantErrIn: "no such file"},
		{name: "bad json", args: []string{"-file", writeFile(t, `{`)}, wantErrIn: "parse"},
		{name: "double assignment", args: []string{"-file", writeFile(t, `{"title":"x","days":[{"problems":["a"]},{"problems":["a"]}]}`)}, wantErr: common.ErrValidation},
		{name: "help", args: []string{"-h"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, repos, out := setup(t)
			err := cli.run(append([]string{"seedcourse"}, tt.args...))

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

			courses, err := repos.Courses.List(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(courses) != 1 || courses[0].Title != tt.wantTitle || len(courses[0].Days) != tt.wantDays {
				t.Errorf("stored courses = %+v", courses)
			}
			if !strings.Contains(out.String(), "created with id "+courses[0].ID) {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}
