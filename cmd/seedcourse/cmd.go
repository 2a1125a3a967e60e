package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"daily_judge/internal/app/service"
	"daily_judge/internal/domain/model"
)

var errHelp = errors.New("help provided")

// defaultCourse is the course created when no file is given.
var defaultCourse = service.CreateCourseRequest{
	Title:       "Curso de Programación Básica",
	Description: "Un curso de 3 días para practicar problemas esenciales de algoritmos.",
	Category:    "Programación",
	Days: model.Days{
		{Day: 1, Problems: []string{"two-sum", "reverse-string"}},
		{Day: 2, Problems: []string{"palindrome-number", "valid-parentheses"}},
		{Day: 3, Problems: []string{"merge-two-sorted-lists", "remove-duplicates"}},
	},
}

type commandLine struct {
	courseSvc *service.CourseService
	out       io.Writer
}

func (cli *commandLine) run(args []string) error {
	cmd := flag.NewFlagSet("seedcourse", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	file := cmd.String("file", "", "JSON file with the course (title, description, category, days). Defaults to the basic programming course.")
	if err := cmd.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}

	req := defaultCourse
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		req = service.CreateCourseRequest{}
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
	}

	course, err := cli.courseSvc.Create(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "course %q created with id %s\n", course.Title, course.ID)
	return nil
}
