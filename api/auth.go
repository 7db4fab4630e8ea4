/*
auth.go - Bearer-token authentication

PURPOSE:
  Session handling for the API: creating sessions on signup/login,
  resolving bearer tokens back to users on every authenticated route, and
  the bcrypt password helpers.

TOKEN MODEL:
  Sessions are opaque 256-bit random tokens stored server-side with an
  expiry. There is nothing to decode client-side; revocation is a row
  delete. Expired rows are rejected here immediately and garbage-collected
  by the SessionSweeper.

SEE ALSO:
  - handlers.go: Signup/Login/Logout endpoints
  - sweeper.go: Background expiry cleanup
*/
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/warp/commission-tracker/sales"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// generateToken returns a 256-bit random token as hex.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// authenticate resolves a username/password pair to an account. Unknown
// users and wrong passwords both come back as ErrInvalidCredentials so the
// two cases stay indistinguishable to callers.
func (h *Handler) authenticate(ctx context.Context, username, password string) (*sales.User, error) {
	user, err := h.Store.GetUserByUsername(ctx, sales.NormalizeUsername(username))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !checkPassword(user.PasswordHash, password) {
		return nil, sales.ErrInvalidCredentials
	}
	return user, nil
}

// startSession creates and persists a session for the user.
func (h *Handler) startSession(ctx context.Context, userID string) (sales.Session, error) {
	token, err := generateToken()
	if err != nil {
		return sales.Session{}, err
	}

	now := time.Now().UTC()
	session := sales.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(h.SessionTTL),
	}
	if err := h.Store.SaveSession(ctx, session); err != nil {
		return sales.Session{}, err
	}
	return session, nil
}

// RequireAuth resolves the Authorization bearer token to a user and puts
// the user (and token, for logout) on the request context. Requests
// without a live session get a 401.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		ctx := r.Context()
		session, err := h.Store.GetSession(ctx, token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up session", err)
			return
		}
		if session == nil || session.Expired(time.Now().UTC()) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session", nil)
			return
		}

		user, err := h.Store.GetUserByID(ctx, session.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session", nil)
			return
		}

		ctx = context.WithValue(ctx, userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// userFromContext returns the authenticated user placed by RequireAuth.
func userFromContext(ctx context.Context) (*sales.User, bool) {
	user, ok := ctx.Value(userContextKey).(*sales.User)
	return user, ok
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
