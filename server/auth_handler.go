package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"Musga/core/identity"
	"Musga/errs"
	"Musga/model"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "invalid request body"))
		return
	}

	result, err := h.identity.Register(req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "invalid request body"))
		return
	}

	result, err := h.identity.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ProfileHandler returns the caller's account without the credential field.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// VerifyHandler reports whether the presented token is valid and for whom.
func (h *APIHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"user":  user.Sanitized(),
	})
}

// AuthMiddleware resolves the bearer token to a live account and stores it in
// the request context. Core services never read ambient auth state; handlers
// extract the account here and pass it explicitly.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, errs.E(errs.Unauthorized, "authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, errs.E(errs.Unauthorized, "invalid authorization header format"))
			return
		}

		user, err := h.identity.Verify(parts[1])
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRole wraps a handler with an additional role check.
func (h *APIHandler) RequireRole(role model.Role, next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if user.Role != role {
			writeError(w, errs.Ef(errs.Forbidden, "this endpoint requires the %s role", role))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext extracts the resolved account from the request context.
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, errs.E(errs.Unauthorized, "no authenticated user")
	}
	return user, nil
}
