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
	"daily_judge/internal/domain/testcase"
)

const seedActor = "seedproblem"

var errHelp = errors.New("help provided")

// defaultProblem is the problem upserted when no file is given.
var defaultProblem = service.UpsertProblemRequest{
	ID:    "two-sum",
	Title: "1. Two Sum",
	Statement: "Given an array of integers nums and an integer target, return indices of the two " +
		"numbers such that they add up to target.\n\nYou may assume that each input would have " +
		"exactly one solution, and you may not use the same element twice.\n\nYou can return the answer in any order.",
	Constraints:         "2 ≤ nums.length ≤ 10\n-10 ≤ nums[i] ≤ 10\n-10 ≤ target ≤ 10\nOnly one valid answer exists.",
	StarterCode:         "def twoSum(nums, target):\n    # Write your code here\n    pass\n",
	StarterFunctionName: "def twoSum(",
	Examples: []model.Example{
		{Input: "nums = [2,7,11,15], target = 9", Output: "[0,1]", Explanation: "Because nums[0] + nums[1] == 9, we return [0, 1]."},
		{Input: "nums = [3,2,4], target = 6", Output: "[1,2]", Explanation: "Because nums[1] + nums[2] == 6, we return [1, 2]."},
		{Input: "nums = [3,3], target = 6", Output: "[0,1]"},
	},
	TestCases: testcase.List{
		{Input: "[2,7,11,15],9", Output: "[0,1]"},
		{Input: "[3,2,4],6", Output: "[1,2]"},
		{Input: "[3,3],6", Output: "[0,1]"},
	},
	Difficulty: model.DifficultyEasy,
	Category:   "Array",
	Order:      1,
	VideoID:    "8-k1C6ehKuw",
}

type commandLine struct {
	problemSvc *service.ProblemService
	out        io.Writer
}

func (cli *commandLine) run(args []string) error {
	cmd := flag.NewFlagSet("seedproblem", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	file := cmd.String("file", "", "JSON file with the problem. Defaults to Two Sum.")
	if err := cmd.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}

	req := defaultProblem
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		req = service.UpsertProblemRequest{}
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
	}

	problem, err := cli.problemSvc.Upsert(context.Background(), seedActor, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "problem %q created or updated\n", problem.ID)
	return nil
}
