package handler

import (
	"net/http"

	"daily_judge/internal/app/service"
	"daily_judge/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/{jobID}", h.getJob)
}

// submit queues the code for evaluation; clients poll getJob for the verdict.
func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	job, err := h.submissionService.Submit(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *SubmissionHandler) getJob(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	job, err := h.submissionService.GetJob(r.Context(), user.ID, chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithDomainError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}
