package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (string, string, error)
}

// Auth resolves a bearer token into the operator identity. Requests without
// a bearer token pass through anonymously; RequireOperator gates the routes
// that need one.
func Auth(validator tokenValidator, writeErr ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			operator, _, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeErr(w, r, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err))
				return
			}
			ctx := ctxutil.WithOperator(r.Context(), operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
