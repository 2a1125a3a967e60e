package handler

import (
	"encoding/json"
	"net/http"

	"daily_judge/internal/api/middleware"
	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
)

// Role sets used by route groups.
var (
	staffRoles = []model.Role{model.RoleAdmin, model.RoleTeacher}
	adminRoles = []model.Role{model.RoleAdmin}
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return nil, false
	}
	return user, true
}
