package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily_judge/internal/api"
	"daily_judge/internal/app/service"
	"daily_judge/internal/app/worker"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/platform/config"
	"daily_judge/internal/platform/executor"
	"daily_judge/internal/platform/identity"
	"daily_judge/internal/platform/logging"
	"daily_judge/internal/platform/mail"
	"daily_judge/internal/platform/queue"
	"daily_judge/internal/platform/store"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	ctx := context.Background()

	repos, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open document store: %v", err)
	}
	defer repos.Close()

	rdb, err := queue.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer queue.CloseRedis(rdb)

	identities, err := identity.NewFactory(repos.Credentials,
		identity.Config{Name: identity.Primary, SigningKey: cfg.JWTKey, TokenTTL: cfg.JWTExp, IssueSessions: true},
		identity.Config{Name: identity.Secondary, SigningKey: cfg.SecondaryJWTKey, TokenTTL: cfg.JWTExp},
	)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	primary := identities.MustGet(identity.Primary)

	judge, err := executor.NewClient(executor.Options{
		BaseURL:        cfg.Judge0BaseURL,
		APIKey:         cfg.Judge0APIKey,
		APIHost:        cfg.Judge0APIHost,
		AuthToken:      cfg.Judge0AuthToken,
		PollInterval:   cfg.Judge0PollInterval,
		MaxPolls:       cfg.Judge0MaxPolls,
		RequestTimeout: cfg.Judge0RequestTimeout,
	})
	if err != nil {
		log.Fatalf("execution client: %v", err)
	}

	evaluationQueue := queue.NewEvaluationQueue(rdb, cfg.EvaluationQueueName)
	jobRepo := repository.NewRedisEvaluationJobRepository(rdb, cfg.EvaluationJobTTL)

	courseService := service.NewCourseService(repos.Courses, repos.Problems, repos.Users)
	problemService := service.NewProblemService(repos.Problems, courseService, cfg.ProblemCacheSize, cfg.ProblemCacheTTL)
	progressService := service.NewProgressService(repos.Stats, repos.Users)
	evaluationService := service.NewEvaluationService(problemService, judge, progressService)
	submissionService := service.NewSubmissionService(jobRepo, repos.Users, evaluationQueue, problemService, progressService, cfg.Judge0LanguageID)
	userService := service.NewUserService(repos.Users, identities.MustGet(identity.Secondary), mail.New(cfg))
	authService := service.NewAuthService(repos.Users, primary)
	dashboardService := service.NewDashboardService(repos.Users, repos.Stats, repos.Courses)

	if _, err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	evaluationWorker := worker.NewEvaluationWorker(rdb, evaluationQueue, jobRepo, evaluationService, worker.Options{
		LockTTL:      cfg.EvaluationLockTTL,
		MaxRequeue:   cfg.EvaluationMaxRequeue,
		RequeueDelay: 500 * time.Millisecond,
	})
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		evaluationWorker.Run(workerCtx)
		close(workerDone)
	}()

	router := api.NewRouter(primary.TokenIssuer(), repos.Users, api.Services{
		Auth:       authService,
		Users:      userService,
		Problems:   problemService,
		Courses:    courseService,
		Submission: submissionService,
		Dashboard:  dashboardService,
	}, api.Options{CORSOrigins: cfg.CORSOrigins})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infof("server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("could not listen on %s: %v", cfg.APIPort, err)
		}
	}()

	<-stop

	log.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown failed: %v", err)
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("worker did not stop before the shutdown deadline")
	}
	log.Info("server and worker stopped")
}
