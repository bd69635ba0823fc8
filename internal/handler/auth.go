// Package handler turns HTTP requests into service calls and service results
// into JSON responses. Handlers hold no business rules: they decode, call one
// service method, and encode.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/auth"
	"github.com/sakif/classroom/internal/model"
	"github.com/sakif/classroom/internal/service"
)

// AuthService is the part of service.AuthService the handlers call.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Refresh(ctx context.Context, token string) (string, error)
	Me(ctx context.Context, id auth.Identity) (*model.User, error)
	ListStudents(ctx context.Context, id auth.Identity) ([]model.User, error)
}

// AuthHandler serves registration, login, token refresh and the caller's
// own profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister     → POST /api/users
//   - HandleLogin        → POST /api/auth/login
//   - HandleRefresh      → POST /api/auth/refresh    (RequireAuth)
//   - HandleMe           → GET  /api/me              (RequireAuth)
//   - HandleListStudents → GET  /api/users           (RequireAuth + LoadRole)
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Username      string `json:"user_name"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	TeacherUserID *int64 `json:"teacher_user_id"`
}

type loginRequest struct {
	Username string `json:"user_name"`
	Password string `json:"password"`
}

// tokenResponse is the body of a successful login or refresh.
type tokenResponse struct {
	AuthToken string `json:"authToken"`
}

// HandleRegister creates a teacher or student account.
//
// HTTP: POST /api/users
// REQUEST BODY: {"user_name","password","first_name","last_name","role","teacher_user_id"?}
// RESPONSE: 201, Location: /api/users/<id>, the user without its password hash.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:      req.Username,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          req.Role,
		TeacherUserID: req.TeacherUserID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/users/%d", user.ID))
	writeJSON(w, h.logger, http.StatusCreated, user)
}

// HandleLogin exchanges a username and password for a token.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"user_name": "...", "password": "..."}
// RESPONSE: {"authToken": "<jwt>"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, tokenResponse{AuthToken: token})
}

// HandleRefresh issues a new token for the bearer of a valid one.
//
// HTTP: POST /api/auth/refresh
// Auth: RequireAuth has already verified the token; it is read again here
// because the refreshed token is built from it.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized("Unauthorized request"))
		return
	}

	token, err := h.svc.Refresh(r.Context(), tokenStr)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, tokenResponse{AuthToken: token})
}

// HandleMe returns the caller's user record.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.svc.Me(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleListStudents returns the calling teacher's students.
//
// HTTP: GET /api/users
// Students get 403.
func (h *AuthHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	students, err := h.svc.ListStudents(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, students)
}

// identity reads the caller from the context and answers 401 when the route
// was mounted without RequireAuth.
func identity(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, logger, apperror.Unauthorized("Unauthorized request"))
		return auth.Identity{}, false
	}
	return id, true
}
