package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/localtourx-api/internal/application/auth"
	"github.com/localtourx-api/internal/application/user"
	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/transport/http/middleware"
)

// CookieConfig describes the session cookie set alongside minted tokens.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// UserHandler handles registration, sessions, passwords and profiles.
type UserHandler struct {
	auth    auth.Service
	users   user.Service
	cookie  CookieConfig
	baseURL string
}

// NewUserHandler builds a UserHandler. An empty baseURL makes password reset
// links use the scheme and host of the incoming request.
func NewUserHandler(authSvc auth.Service, userSvc user.Service, cookie CookieConfig, baseURL string) *UserHandler {
	return &UserHandler{auth: authSvc, users: userSvc, cookie: cookie, baseURL: baseURL}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, err := h.auth.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RegisterEnvelope{
		Success: true,
		Message: fmt.Sprintf("OTP sent to %s, please verify to complete registration", email),
		Email:   email,
	})
}

func (h *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.auth.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	status, msg := http.StatusCreated, "account verified and registered successfully"
	if sess.Outcome == auth.OutcomeVerifiedExisting {
		status, msg = http.StatusOK, "account verified successfully"
	}
	h.setSessionCookie(w, sess.Token)
	writeJSON(w, status, AuthEnvelope{Success: true, Message: msg, Token: sess.Token, User: sess.User})
}

func (h *UserHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, err := h.auth.ResendOTP(r.Context(), req.Email)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RegisterEnvelope{Success: true, Message: "new OTP sent to your email", Email: email})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.auth.Login(r.Context(), req)
	if errors.Is(err, domain.ErrVerificationRequired) {
		writeJSON(w, http.StatusUnauthorized, VerificationRequiredEnvelope{
			Message:              publicMessage(err, domain.ErrUnauthorized),
			Code:                 "verification_required",
			RequiresVerification: true,
			Email:                req.Email,
		})
		return
	}
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, Message: "login successful", Token: sess.Token, User: sess.User})
}

func (h *UserHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "logged out successfully"})
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.ForgotPassword(r.Context(), req.Email, h.resetBaseURL(r)); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success: true,
		Message: fmt.Sprintf("if an account exists for %s, a password reset link has been sent", req.Email),
	})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, token, err := h.users.ResetPassword(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, Message: "password reset successfully", Token: token, User: u})
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req domain.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, token, err := h.users.UpdatePassword(r.Context(), caller.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, Message: "password updated successfully", Token: token, User: u})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	u, err := h.users.GetMe(r.Context(), caller.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Success: true, User: u})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), caller.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Success: true, Message: "profile updated successfully", User: u})
}

// List is the admin-only account listing, paged by an opaque cursor.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, next, err := h.users.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, UsersEnvelope{Success: true, Users: users, NextCursor: next})
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *UserHandler) resetBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
