package handler

import (
	"net/http"

	"daily_judge/internal/api/middleware"
	"daily_judge/internal/app/service"
	"daily_judge/internal/common"

	"github.com/go-chi/chi/v5"
)

type CourseHandler struct {
	courseService  *service.CourseService
	problemService *service.ProblemService
}

func NewCourseHandler(cs *service.CourseService, ps *service.ProblemService) *CourseHandler {
	return &CourseHandler{courseService: cs, problemService: ps}
}

func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{courseID}", h.get)
	r.Get("/{courseID}/progress", h.progress)

	r.With(middleware.RequireRole(adminRoles...)).Post("/", h.create)

	r.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(staffRoles...))
		staff.Get("/{courseID}/layout", h.layout)
		staff.Put("/{courseID}/days", h.saveDays)
		staff.Post("/{courseID}/days", h.addDay)
		staff.Post("/{courseID}/assignments", h.assign)
		staff.Post("/{courseID}/exercises", h.registerExercise)
	})
}

func (h *CourseHandler) list(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.List(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) get(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.Get(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course, err := h.courseService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) layout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.courseService.Layout(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, layout)
}

func (h *CourseHandler) saveDays(w http.ResponseWriter, r *http.Request) {
	var req service.SaveDaysRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course, err := h.courseService.SaveDays(r.Context(), chi.URLParam(r, "courseID"), req.Days)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) addDay(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.AddDay(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) assign(w http.ResponseWriter, r *http.Request) {
	var req service.AssignProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := common.ValidateInput(req); err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	course, err := h.courseService.AssignProblem(r.Context(), chi.URLParam(r, "courseID"), req.Day, req.ProblemID)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) registerExercise(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.RegisterExerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, course, err := h.problemService.RegisterExercise(r.Context(), user.ID, chi.URLParam(r, "courseID"), req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"problem": problem,
		"course":  course,
	})
}

// progress returns the caller's progress; staff may pass user_id to look at
// someone else's.
func (h *CourseHandler) progress(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	userID := user.ID
	if other := r.URL.Query().Get("user_id"); other != "" && user.IsStaff() {
		userID = other
	}
	progress, err := h.courseService.StudentProgress(r.Context(), chi.URLParam(r, "courseID"), userID)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}
