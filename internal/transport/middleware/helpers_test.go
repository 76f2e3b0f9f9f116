package middleware

import (
	"errors"
	"net/http"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// statusErrorWriter maps errors to bare status codes in place of the REST
// envelope.
func statusErrorWriter(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}
