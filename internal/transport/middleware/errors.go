package middleware

import "net/http"

// Middleware wraps an http.Handler.
type Middleware = func(http.Handler) http.Handler

// ErrorWriter renders err as the API error envelope. The REST layer supplies
// it so middleware failures share the handlers' response format.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)
