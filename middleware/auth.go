package middleware

import (
	"net/http"

	"smart-notes/auth"
	"smart-notes/webutil"

	"github.com/sirupsen/logrus"
)

const msgNotAuthorized = "You are not authorized to access this resource"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth verifies the raw token in the Authorization header (no
// "Bearer " prefix) and binds the resolved user id to the request context.
// Every failure, including a missing header, answers 403 with the same body.
func RequireAuth(verifier TokenVerifier, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"path":   r.URL.Path,
					"method": r.Method,
				}).WithError(err).Warn("Auth Middleware - token verification failed")
				webutil.RespondWithMessage(w, http.StatusForbidden, msgNotAuthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
