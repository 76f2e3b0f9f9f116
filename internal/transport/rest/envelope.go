package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Error categories of the error envelope.
const (
	CategoryValidation = "validation"
	CategoryConflict   = "conflict"
	CategoryAuth       = "auth"
	CategoryNotFound   = "not_found"
	CategoryServer     = "server"
)

const internalErrorMessage = "internal server error"

type rejectionObserver interface {
	ObserveRejection(category, code string)
}

// Envelope renders every API outcome in the uniform success, list and error
// formats.
type Envelope struct {
	log *slog.Logger
	obs rejectionObserver
}

// NewEnvelope creates an Envelope. obs may be nil.
func NewEnvelope(logger *slog.Logger, obs rejectionObserver) *Envelope {
	return &Envelope{log: logger.With("component", "envelope"), obs: obs}
}

type successBody struct {
	Success  bool              `json:"success"`
	Data     any               `json:"data"`
	Activity *activityResponse `json:"activity,omitempty"`
}

type listBody struct {
	Data  any `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Category     string            `json:"category"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	FieldErrors  map[string]string `json:"fieldErrors,omitempty"`
	RecordErrors []RecordErrorBody `json:"recordErrors,omitempty"`
	Retryable    bool              `json:"retryable"`
}

// RecordErrorBody is one rejected record of a batch.
type RecordErrorBody struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes the success envelope. act may be nil.
func (e *Envelope) Success(w http.ResponseWriter, status int, data any, act *domain.Activity) {
	writeJSON(w, status, successBody{Success: true, Data: data, Activity: toActivity(act)})
}

// List writes the list envelope for one page of results.
func (e *Envelope) List(w http.ResponseWriter, data any, total int, page domain.Page) {
	page = page.Normalize()
	writeJSON(w, http.StatusOK, listBody{Data: data, Total: total, Page: page.Page, Limit: page.Limit})
}

// Error classifies err and writes the error envelope. Server errors are
// logged and answered with a generic message.
func (e *Envelope) Error(w http.ResponseWriter, r *http.Request, err error) {
	body := Classify(err)
	if body.Category == CategoryServer {
		e.log.ErrorContext(r.Context(), "unexpected error",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}
	if e.obs != nil {
		e.obs.ObserveRejection(body.Category, body.Code)
	}
	writeJSON(w, StatusFor(body.Category), body)
}

// Classify maps an error returned by the service layer to the error
// envelope.
func Classify(err error) ErrorBody {
	var (
		ve *domain.ValidationError
		re *domain.RuleError
		be *domain.BatchError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &be):
		body := ErrorBody{
			Category: CategoryValidation,
			Code:     domain.CodeBulkValidation,
			Message:  "batch rejected; no record was changed",
		}
		body.RecordErrors = make([]RecordErrorBody, 0, len(be.Records))
		for _, rec := range be.Records {
			body.RecordErrors = append(body.RecordErrors, RecordErrorBody{
				ID:      rec.ID.String(),
				Code:    rec.Code,
				Message: rec.Message,
			})
		}
		return body

	case errors.As(err, &ve):
		return ErrorBody{
			Category:    CategoryValidation,
			Code:        domain.CodeValidationFailed,
			Message:     "validation failed",
			FieldErrors: fieldErrors(ve.Errors),
		}

	case errors.As(err, &re):
		body := ErrorBody{Category: CategoryValidation, Code: re.Code, Message: re.Message}
		if re.Field != "" {
			body.FieldErrors = map[string]string{re.Field: re.Message}
		}
		return body

	case errors.As(err, &ce), errors.Is(err, domain.ErrConflict):
		return ErrorBody{
			Category: CategoryConflict,
			Code:     domain.CodeConflictDetected,
			Message:  "record was modified by another request; reload and retry",
		}

	case errors.Is(err, domain.ErrAlreadyExists):
		return ErrorBody{Category: CategoryValidation, Code: domain.CodeAlreadyExists, Message: "record already exists"}

	case errors.Is(err, domain.ErrValidation):
		return ErrorBody{Category: CategoryValidation, Code: domain.CodeValidationFailed, Message: "validation failed"}

	case errors.Is(err, domain.ErrNotFound):
		return ErrorBody{Category: CategoryNotFound, Code: domain.CodeNotFound, Message: "record not found"}

	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return ErrorBody{Category: CategoryAuth, Code: domain.CodeUnauthorized, Message: "operator authentication required"}

	default:
		return ErrorBody{Category: CategoryServer, Code: domain.CodeInternal, Message: internalErrorMessage, Retryable: true}
	}
}

// StatusFor returns the HTTP status code of an error category.
func StatusFor(category string) int {
	switch category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryAuth:
		return http.StatusUnauthorized
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fieldErrors(errs []domain.FieldError) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		if prev, ok := out[fe.Field]; ok {
			out[fe.Field] = strings.Join([]string{prev, fe.Message}, "; ")
			continue
		}
		out[fe.Field] = fe.Message
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
