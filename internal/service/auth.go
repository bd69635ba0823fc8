// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces roles and ownership
//	Repository (data layer)  → reads/writes the database
//
// Services know nothing about HTTP. They return apperror values and the
// handler package turns those into status codes.
//
// AUTHORIZATION ORDER:
// Every mutating operation calls auth.RequireRole as its first statement, so
// a student gets 403 for a class ID whether or not that class exists. Reads
// go through auth.OwnerScope and the repositories filter by the owning
// teacher, so another teacher's rows look exactly like missing rows.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/auth"
	"github.com/sakif/classroom/internal/metrics"
	"github.com/sakif/classroom/internal/model"
	"github.com/sakif/classroom/internal/repository"
)

// Outward messages of the auth flow.
const (
	msgBadCredentials = "Incorrect user_name or password"
	msgUnauthorized   = "Unauthorized request"
	msgInvalidRole    = "Role must be either 'teacher' or 'student'"
	msgUnknownTeacher = "teacher_user_id must reference an existing teacher"
)

// AuthService handles registration, login and token refresh.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → issue/refresh JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - metrics    *metrics.Metrics           → login/registration counters (may be nil)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterInput is the registration request. Empty strings count as missing.
type RegisterInput struct {
	Username      string
	Password      string
	FirstName     string
	LastName      string
	Role          string
	TeacherUserID *int64
}

// Register validates the input and creates the account.
//
// VALIDATION ORDER (the first failure is the one reported):
//  1. required fields: first_name, last_name, role, user_name, password
//  2. role is teacher or student
//  3. username policy, then password policy
//  4. a student's teacher_user_id names an existing teacher
//  5. username not taken
//
// Only after all of that is the password hashed.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	user, err := s.register(ctx, in)
	switch {
	case err == nil:
		s.metrics.ObserveRegistration(metrics.ResultSuccess)
	case isClientError(err):
		s.metrics.ObserveRegistration(metrics.ResultRejected)
	default:
		s.metrics.ObserveRegistration(metrics.ResultError)
	}
	return user, err
}

func (s *AuthService) register(ctx context.Context, in RegisterInput) (*model.User, error) {
	for _, f := range []struct{ name, value string }{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"role", in.Role},
		{"user_name", in.Username},
		{"password", in.Password},
	} {
		if f.value == "" {
			return nil, apperror.MissingField(f.name)
		}
	}

	role := model.Role(in.Role)
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", msgInvalidRole)
	}
	if err := auth.ValidateUsername(in.Username); err != nil {
		return nil, apperror.ValidationFailed("user_name", err.Error())
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	var teacherID *int64
	if role == model.RoleStudent && in.TeacherUserID != nil {
		if err := s.checkTeacher(ctx, *in.TeacherUserID); err != nil {
			return nil, err
		}
		id := *in.TeacherUserID
		teacherID = &id
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("user_name", "Username already taken")
	}

	hash, err := s.passwords.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:      in.Username,
		PasswordHash:  hash,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Role:          role,
		TeacherUserID: teacherID,
	}
	// The UNIQUE constraint still decides a race between two registrations
	// that both passed the check above; the loser gets the same Conflict.
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *AuthService) checkTeacher(ctx context.Context, id int64) error {
	teacher, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("teacher_user_id", msgUnknownTeacher)
		}
		return fmt.Errorf("service/auth: looking up teacher %d: %w", id, err)
	}
	if teacher.Role != model.RoleTeacher {
		return apperror.ValidationFailed("teacher_user_id", msgUnknownTeacher)
	}
	return nil
}

// Login checks the credentials and returns a fresh token.
//
// Unknown user and wrong password produce the same error, and an unknown
// user still pays for one bcrypt comparison, so neither the message nor the
// response time reveals which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	token, err := s.login(ctx, username, password)
	switch {
	case err == nil:
		s.metrics.ObserveLogin(metrics.ResultSuccess)
	case isClientError(err):
		s.metrics.ObserveLogin(metrics.ResultRejected)
	default:
		s.metrics.ObserveLogin(metrics.ResultError)
	}
	return token, err
}

func (s *AuthService) login(ctx context.Context, username, password string) (string, error) {
	if username == "" {
		return "", apperror.MissingField("user_name")
	}
	if password == "" {
		return "", apperror.MissingField("password")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("service/auth: finding user: %w", err)
	}
	if user == nil {
		if err := s.passwords.VerifyAbsent(ctx, password); err != nil {
			return "", fmt.Errorf("service/auth: %w", err)
		}
		s.logger.Info("login failed", slog.String("reason", "unknown user"))
		return "", apperror.Unauthorized(msgBadCredentials)
	}

	ok, err := s.passwords.Verify(ctx, user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.logger.Info("login failed",
			slog.String("reason", "wrong password"),
			slog.Int64("userID", user.ID),
		)
		return "", apperror.Unauthorized(msgBadCredentials)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return token, nil
}

// Refresh trades a still-valid token for a new one with the same identity.
func (s *AuthService) Refresh(ctx context.Context, token string) (string, error) {
	refreshed, err := s.tokens.Refresh(token)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh rejected", slog.String("error", err.Error()))
		return "", apperror.Unauthorized(msgUnauthorized)
	}
	return refreshed, nil
}

// Me returns the caller's own user record.
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: getting user %d: %w", id.UserID, err)
	}
	return user, nil
}

// ListStudents returns the calling teacher's students.
func (s *AuthService) ListStudents(ctx context.Context, id auth.Identity) ([]model.User, error) {
	if err := auth.RequireRole(id, model.RoleTeacher); err != nil {
		return nil, err
	}

	students, err := s.users.ListStudentsByTeacher(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing students of %d: %w", id.UserID, err)
	}
	return students, nil
}

// isClientError reports whether err is one of the apperror kinds caused by
// the request rather than by the server.
func isClientError(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrUnauthorized) ||
		errors.Is(err, apperror.ErrForbidden) ||
		errors.Is(err, apperror.ErrNotFound)
}
