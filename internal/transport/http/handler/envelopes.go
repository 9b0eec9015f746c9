package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RegisterEnvelope answers register and resend-otp.
type RegisterEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// AuthEnvelope wraps every response that mints a session token.
type AuthEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

// VerificationRequiredEnvelope answers a login for an unverified account.
type VerificationRequiredEnvelope struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	Code                 string `json:"code"`
	RequiresVerification bool   `json:"requires_verification"`
	Email                string `json:"email"`
}

type UserEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// UsersEnvelope wraps a page of the admin user listing.
type UsersEnvelope struct {
	Success    bool          `json:"success"`
	Users      []domain.User `json:"users"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type PostEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Post    *domain.Post `json:"post"`
}

type PostsEnvelope struct {
	Success bool          `json:"success"`
	Posts   []domain.Post `json:"posts"`
}

// FeedEnvelope wraps one page of the global feed.
type FeedEnvelope struct {
	Success bool `json:"success"`
	*domain.PostPage
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg, Code: code})
}

type errorKind struct {
	sentinel error
	status   int
	code     string
}

// errorKinds is checked in order; the first sentinel matched wins.
var errorKinds = []errorKind{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrUpstream, http.StatusInternalServerError, "upstream_error"},
}

// httpError maps a service error onto a status and machine code. The sentinel
// suffix is trimmed so callers see only the contextual message.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			if k.status >= http.StatusInternalServerError {
				slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
			}
			writeError(w, k.status, k.code, publicMessage(err, k.sentinel))
			return
		}
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func publicMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

// decodeJSON reads the body into dst and runs its validate tags. It writes
// the error response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return false
	}
	return true
}
