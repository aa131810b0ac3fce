package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"accauth/internal/auth"
	"accauth/internal/service"
	"accauth/internal/store"
)

func Me(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.User(r.Context(), auth.Subject(r.Context()))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			lg.Errorw("load profile failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, u)
	}
}

// RefreshClaims re-issues the session token from the current user row so a
// role change takes effect without waiting for expiry.
func RefreshClaims(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := svc.OnClaimsRefresh(r.Context(), auth.Subject(r.Context()))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			lg.Errorw("claims refresh failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"token": token})
	}
}

func ListSessions(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ActiveSessions(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			lg.Errorw("list sessions failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, rows)
	}
}

// TouchSession is the activity ping for one of the caller's tracked
// sessions.
func TouchSession(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.TouchSession(r.Context(), chi.URLParam(r, "id"), auth.Subject(r.Context()))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			lg.Errorw("session touch failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}

func DeactivateSession(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.DeactivateSession(r.Context(), chi.URLParam(r, "id"), auth.Subject(r.Context()))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			lg.Errorw("session deactivate failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"deactivated": true})
	}
}

// Logout drops the caller's tracked session when one was supplied, or every
// session for the account otherwise. The signed token stays valid until its
// own expiry.
func Logout(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if sid := auth.SessionID(r.Context()); sid != "" {
			err = svc.DeactivateSession(r.Context(), sid, auth.Subject(r.Context()))
			// A stale or foreign session id leaves nothing to deactivate.
			if errors.Is(err, store.ErrNotFound) {
				err = nil
			}
		} else {
			err = svc.DeactivateAllSessions(r.Context(), auth.Subject(r.Context()))
		}
		if err != nil {
			lg.Errorw("logout failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}
