package handler

import (
	"net/http"

	"daily_judge/internal/api/middleware"
	"daily_judge/internal/app/service"
	"daily_judge/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(us *service.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.me)

	r.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(staffRoles...))
		staff.Post("/", h.register)
		staff.Post("/bulk", h.bulkRegister)
	})
	r.With(middleware.RequireRole(adminRoles...)).Get("/", h.list)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.RegisterUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.userService.RegisterUser(r.Context(), actor.ID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) bulkRegister(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var rows []service.BulkStudentRow
	if !decodeJSON(w, r, &rows) {
		return
	}
	resp, err := h.userService.BulkRegister(r.Context(), actor.ID, rows)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
