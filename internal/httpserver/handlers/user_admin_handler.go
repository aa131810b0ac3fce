package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"accauth/internal/service"
)

// ListUsers is the admin directory view; routes guard it with the users:*
// permission.
func ListUsers(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context())
		if err != nil {
			lg.Errorw("list users failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, users)
	}
}
