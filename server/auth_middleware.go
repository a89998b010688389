package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/Hungichi/melodies-BE/apperr"
	"github.com/Hungichi/melodies-BE/core/auth"
	"github.com/Hungichi/melodies-BE/logger"
	"github.com/Hungichi/melodies-BE/model"
)

// AuthMiddleware checks for a valid bearer token and attaches the verified
// user ID to the request context. Nothing is retained across requests; every
// request re-verifies from scratch.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, apperr.Auth("missing token"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, apperr.Auth("invalid authorization header format"))
			return
		}

		userID, err := h.tokens.Verify(parts[1])
		if err != nil {
			switch err {
			case auth.ErrTokenExpired:
				writeError(w, apperr.Auth("expired token"))
			case auth.ErrTokenMalformed:
				writeError(w, apperr.Auth("malformed token"))
			default:
				writeError(w, apperr.Auth("invalid token"))
			}
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware attaches the verified user ID when a valid bearer
// token is present, and passes the request through untouched otherwise. Used
// on public routes whose responses are enriched for authenticated callers.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if userID, err := h.tokens.Verify(parts[1]); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
		}
		next.ServeHTTP(w, r)
	}
}

// RequireRole resolves the verified user ID to a live user, attaches it to
// the context, and enforces role membership. With no roles given, any live
// authenticated user passes.
func (h *APIHandler) RequireRole(next http.HandlerFunc, roles ...model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		if err != nil {
			writeError(w, apperr.Auth("missing token"))
			return
		}

		user, err := h.userRepo.GetUserByID(userID)
		if err != nil {
			writeError(w, apperr.Internal(err))
			return
		}
		if user == nil {
			// Token outlived the account.
			writeError(w, apperr.Auth("invalid token"))
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if user.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				logger.Warn("Role check failed",
					logger.Int64("userId", user.ID),
					logger.String("role", string(user.Role)))
				writeError(w, apperr.Forbidden("forbidden"))
				return
			}
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
