package api

import (
	"net/http"
	"time"

	"daily_judge/internal/api/handler"
	"daily_judge/internal/api/middleware"
	"daily_judge/internal/app/service"
	"daily_judge/internal/common/security"
	"daily_judge/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Problems   *service.ProblemService
	Courses    *service.CourseService
	Submission *service.SubmissionService
	Dashboard  *service.DashboardService
}

type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(sessions *security.TokenIssuer, userRepo repository.UserRepository, svc Services, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Token is read from "Authorization: Bearer T"; routes decide whether
	// it is required.
	r.Use(jwtauth.Verifier(sessions.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", handler.NewAuthHandler(svc.Auth).RegisterRoutes)

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator)
			authed.Use(middleware.LoadUser(userRepo))

			authed.Route("/users", handler.NewUserHandler(svc.Users).RegisterRoutes)
			authed.Route("/problems", handler.NewProblemHandler(svc.Problems, svc.Submission).RegisterRoutes)
			authed.Route("/courses", handler.NewCourseHandler(svc.Courses, svc.Problems).RegisterRoutes)
			authed.Route("/submissions", handler.NewSubmissionHandler(svc.Submission).RegisterRoutes)
			authed.Route("/dashboard", handler.NewDashboardHandler(svc.Dashboard).RegisterRoutes)
		})
	})

	return r
}
