package handlers

import (
	"encoding/json"
	"net/http"

	"accauth/internal/auth"
	"accauth/internal/service"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatusJSON(w, http.StatusOK, v)
}

func respondStatusJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// metaFrom collects the request metadata recorded into audit entries and
// tracked sessions. RemoteAddr is already the client IP thanks to the
// RealIP middleware.
func metaFrom(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		DeviceInfo: r.Header.Get("X-Device-Info"),
	}
}

func loginResponse(res *service.LoginResult, callbackURL, baseURL string) map[string]any {
	return map[string]any{
		"token":      res.Token,
		"session_id": res.SessionID,
		"redirect":   auth.SafeRedirect(callbackURL, baseURL),
		"user": map[string]any{
			"id":     res.User.ID,
			"email":  res.User.Email,
			"name":   res.User.FullName(),
			"role":   res.User.Role,
			"status": res.User.Status,
		},
	}
}
