package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"accauth/internal/service"
	"accauth/internal/store"
)

type registerReq struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	Country     string `json:"country,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Department  string `json:"department,omitempty"`
	Position    string `json:"position,omitempty"`
	EmployeeID  string `json:"employeeId,omitempty"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
}

func Register(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in := service.RegisterInput{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			Phone:      req.Phone,
			Address:    req.Address,
			City:       req.City,
			State:      req.State,
			ZipCode:    req.ZipCode,
			Country:    req.Country,
			Department: req.Department,
			Position:   req.Position,
			EmployeeID: req.EmployeeID,
			Password:   req.Password,
			Role:       req.Role,
		}
		if req.DateOfBirth != "" {
			if dob, err := time.Parse("2006-01-02", req.DateOfBirth); err == nil {
				in.DateOfBirth = &dob
			} else {
				http.Error(w, "dateOfBirth: expected YYYY-MM-DD", http.StatusBadRequest)
				return
			}
		}

		id, err := svc.Register(r.Context(), in, metaFrom(r))
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			http.Error(w, verr.Error(), http.StatusBadRequest)
		case errors.Is(err, store.ErrDuplicateEmail):
			http.Error(w, "User already exists", http.StatusBadRequest)
		case err != nil:
			lg.Errorw("registration failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		default:
			respondStatusJSON(w, http.StatusCreated, map[string]any{"id": id, "message": "User created successfully"})
		}
	}
}

type loginReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

func Login(svc *service.Auth, baseURL string, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := svc.Login(r.Context(), req.Email, req.Password, metaFrom(r))
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err != nil {
			lg.Errorw("login failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, loginResponse(res, req.CallbackURL, baseURL))
	}
}

type oauthReq struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// OAuthSignIn accepts an identity the external provider has already
// verified. The provider protocol itself lives outside this service.
func OAuthSignIn(svc *service.Auth, baseURL string, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Email == "" {
			http.Error(w, "email required", http.StatusBadRequest)
			return
		}
		res, err := svc.OAuthSignIn(r.Context(), req.Email, req.Name, metaFrom(r))
		if err != nil {
			lg.Errorw("oauth sign-in failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, loginResponse(res, req.CallbackURL, baseURL))
	}
}

// ForgotPassword acknowledges identically whether or not the email exists.
func ForgotPassword(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Email == "" {
			http.Error(w, "email required", http.StatusBadRequest)
			return
		}
		if err := svc.ForgotPassword(r.Context(), req.Email, metaFrom(r)); err != nil {
			lg.Errorw("forgot-password failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"message": "If an account exists, a reset link will be sent"})
	}
}

func ResetPassword(svc *service.Auth, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err := svc.ResetPassword(r.Context(), req.Token, req.Password, metaFrom(r))
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			http.Error(w, verr.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			http.Error(w, "Invalid or expired token", http.StatusBadRequest)
		case err != nil:
			lg.Errorw("reset-password failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		default:
			respondJSON(w, map[string]any{"message": "Password reset successfully"})
		}
	}
}
