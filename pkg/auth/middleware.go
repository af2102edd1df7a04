package auth

import (
	"net/http"
	"strings"

	apperrors "github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
)

// Middleware resolves the request identity from the Authorization header
// and stores it in the request context. Requests without a bearer token
// proceed as anonymous; policies decide whether that is acceptable.
func Middleware(jwtManager *JWTManager, logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Anonymous())))
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				httpx.Error(w, apperrors.Unauthorized("invalid authorization header"))
				return
			}

			id, err := jwtManager.ValidateAccessToken(token)
			if err != nil {
				logger.Debug("Rejected access token", interfaces.Error(err))
				httpx.Error(w, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuthenticated rejects anonymous requests with 401. Mount it on
// routes that have no anonymous-accessible verbs.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if !id.IsAuthenticated() {
			httpx.Error(w, apperrors.Unauthorized("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
