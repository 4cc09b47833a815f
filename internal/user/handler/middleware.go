package handler

import (
	"net/http"
	"strings"

	"github.com/eczanem/pharmatrack-backend/internal/user/jwt"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
)

// Authenticator rejects requests without a valid Bearer access token and puts
// the authenticated user on the request context.
func Authenticator(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("authorization header is required"))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httputil.Error(w, errors.Unauthorized("authorization header must be a Bearer token"))
				return
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithUser(r.Context(), claims.UserID, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
