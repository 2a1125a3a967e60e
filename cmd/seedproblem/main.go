package main

import (
	"context"
	"os"

	"daily_judge/internal/app/service"
	"daily_judge/internal/platform/config"
	"daily_judge/internal/platform/logging"
	"daily_judge/internal/platform/store"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	repos, err := store.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("open document store: %v", err)
	}

	courses := service.NewCourseService(repos.Courses, repos.Problems, repos.Users)
	cli := commandLine{
		problemSvc: service.NewProblemService(repos.Problems, courses, cfg.ProblemCacheSize, cfg.ProblemCacheTTL),
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	repos.Close()
	if err != nil {
		if err != errHelp {
			log.Errorf("error creating the problem: %v", err)
		}
		os.Exit(1)
	}
}
