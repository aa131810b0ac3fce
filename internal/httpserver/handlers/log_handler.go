package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"accauth/internal/auth"
	"accauth/internal/rbac"
	"accauth/internal/service"
)

// MyLogs returns recent audit entries. Regular users see entries naming
// them; holders of audit:* can pass ?all=1 for everyone's.
func MyLogs(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		userID := auth.Subject(r.Context())
		if r.URL.Query().Get("all") == "1" &&
			rbac.HasPermission(auth.Role(r.Context()), "audit:*") {
			userID = ""
		}
		logs, err := svc.RecentAuditLogs(r.Context(), userID, limit)
		if err != nil {
			lg.Errorw("list audit logs failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, logs)
	}
}
