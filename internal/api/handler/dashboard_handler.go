package handler

import (
	"net/http"

	"daily_judge/internal/api/middleware"
	"daily_judge/internal/app/service"
	"daily_judge/internal/common"

	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(ds *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(staffRoles...))
	r.Get("/students", h.students)
	r.Get("/students/{studentID}", h.studentDetail)
	r.Get("/teachers", h.byTeacher)
	r.Get("/ranking", h.ranking)
}

func studentsQuery(r *http.Request) service.StudentsQuery {
	q := r.URL.Query()
	return service.StudentsQuery{CourseID: q.Get("course_id"), Search: q.Get("search")}
}

func (h *DashboardHandler) students(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	summaries, err := h.dashboardService.Students(r.Context(), actor, studentsQuery(r))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summaries)
}

func (h *DashboardHandler) byTeacher(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	groups, err := h.dashboardService.ByTeacher(r.Context(), actor, studentsQuery(r))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, groups)
}

func (h *DashboardHandler) ranking(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	entries, err := h.dashboardService.Ranking(r.Context(), actor, studentsQuery(r))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *DashboardHandler) studentDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	detail, err := h.dashboardService.StudentDetail(r.Context(), actor, chi.URLParam(r, "studentID"), r.URL.Query().Get("course_id"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}
