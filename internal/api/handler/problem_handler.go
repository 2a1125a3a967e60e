package handler

import (
	"net/http"

	"daily_judge/internal/api/middleware"
	"daily_judge/internal/app/service"
	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService    *service.ProblemService
	submissionService *service.SubmissionService
}

func NewProblemHandler(ps *service.ProblemService, ss *service.SubmissionService) *ProblemHandler {
	return &ProblemHandler{problemService: ps, submissionService: ss}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem)
	r.Post("/{problemID}/visit", h.visitProblem)

	r.With(middleware.RequireRole(staffRoles...)).Put("/{problemID}", h.upsertProblem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	problems, err := h.problemService.List(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	if !user.IsStaff() {
		for i := range problems {
			problems[i] = problems[i].PublicView()
		}
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	problem, err := h.problemService.Get(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	out := *problem
	if !user.IsStaff() {
		out = problem.PublicView()
	}
	common.RespondWithJSON(w, http.StatusOK, out)
}

func (h *ProblemHandler) upsertProblem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpsertProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "problemID")

	problem, err := h.problemService.Upsert(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) visitProblem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	stat, err := h.submissionService.Visit(r.Context(), user.ID, chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, struct {
		*model.SubmissionStat
		State model.ProgressState `json:"state"`
	}{stat, stat.State()})
}
