package middleware

import (
	"net/http"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// RequireOperator rejects requests that carry no operator identity.
func RequireOperator(writeErr ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.OperatorFromCtx(r.Context()); !ok {
				writeErr(w, r, domain.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
