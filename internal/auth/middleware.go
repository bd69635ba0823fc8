package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/metrics"
	"github.com/sakif/classroom/internal/model"
)

// unauthorizedMessage is the only thing a rejected caller learns. Which check
// failed (no header, bad signature, expiry...) goes to the logs and metrics.
const unauthorizedMessage = "Unauthorized request"

// UserLookup is the slice of the user directory the Guard needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Guard is the per-request authentication middleware.
//
// MIDDLEWARE ORDER ON A PROTECTED ROUTE:
//
//	RequireAuth  → token → Identity{UserID, Username}       (0 directory reads)
//	LoadRole     → directory → Identity{Role, TeacherUserID} (1 directory read)
//	RequireRole  → 403 unless Identity.Role matches
//
// Routes that only need "who is calling" mount RequireAuth alone.
type Guard struct {
	tokens  *TokenService
	users   UserLookup
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGuard creates a Guard. m may be nil.
func NewGuard(tokens *TokenService, users UserLookup, logger *slog.Logger, m *metrics.Metrics) *Guard {
	return &Guard{
		tokens:  tokens,
		users:   users,
		logger:  logger,
		metrics: m,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token, and otherwise stores the token's Identity in the request context.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := BearerToken(r)
		if !ok {
			g.metrics.ObserveTokenCheck("missing")
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		claims, err := g.tokens.Verify(tokenStr)
		if err != nil {
			result := tokenFailure(err)
			g.metrics.ObserveTokenCheck(result)
			g.logger.Debug("token rejected",
				slog.String("reason", result),
				slog.String("path", r.URL.Path),
			)
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}
		g.metrics.ObserveTokenCheck("ok")

		ctx := WithIdentity(r.Context(), Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoadRole reads the caller's user record once and adds Role and
// TeacherUserID to the Identity. Must be mounted after RequireAuth.
func (g *Guard) LoadRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}
		if id.HasRole() {
			next.ServeHTTP(w, r)
			return
		}

		resolved, status := g.resolve(r.Context(), id)
		if status != 0 {
			writeAuthError(w, status, statusErrorType(status), statusMessage(status))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), resolved)))
	})
}

// RequireRole rejects callers whose role differs from role with 403. It runs
// before any resource lookup, so a wrong-role caller never learns whether the
// addressed resource exists.
func (g *Guard) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.LoadRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())
			if err := RequireRole(id, role); err != nil {
				g.logger.Info("role check failed",
					slog.Int64("userID", id.UserID),
					slog.String("role", string(id.Role)),
					slog.String("required", string(role)),
				)
				writeAuthError(w, http.StatusForbidden, "forbidden", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// resolve returns the Identity with directory fields filled, or a non-zero
// HTTP status to reject with.
func (g *Guard) resolve(ctx context.Context, id Identity) (Identity, int) {
	user, err := g.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			g.logger.Info("token for unknown user", slog.Int64("userID", id.UserID))
			return id, http.StatusUnauthorized
		}
		g.logger.Error("loading user for authorization",
			slog.Int64("userID", id.UserID),
			slog.String("error", err.Error()),
		)
		return id, http.StatusInternalServerError
	}
	if user.Username != id.Username {
		g.logger.Info("token subject does not match user record", slog.Int64("userID", id.UserID))
		return id, http.StatusUnauthorized
	}

	id.Role = user.Role
	id.TeacherUserID = user.TeacherUserID
	return id, 0
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func statusErrorType(status int) string {
	if status == http.StatusUnauthorized {
		return "unauthorized"
	}
	return "internal_error"
}

func statusMessage(status int) string {
	if status == http.StatusUnauthorized {
		return unauthorizedMessage
	}
	return "An internal error occurred"
}

// writeAuthError writes the same {"error","message"} body the handlers use.
func writeAuthError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errType,
		"message": message,
	})
}
