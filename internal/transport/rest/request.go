package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError("body", "request body too large")
		}
		return domain.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

// pathID parses the {id} route parameter. A malformed id resolves to no
// record.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

// queryPage reads the page and limit query parameters. An explicit limit
// below 1 is clamped to 1; an absent one takes the default.
func queryPage(r *http.Request) (domain.Page, error) {
	var (
		p    domain.Page
		errs []domain.FieldError
	)
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "page", Message: "must be an integer"})
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "limit", Message: "must be an integer"})
		}
		p.Limit = max(n, 1)
	}
	if len(errs) > 0 {
		return domain.Page{}, domain.NewValidationErrors(errs)
	}
	return p.Normalize(), nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

func queryEnum[S ~string](r *http.Request, name string) *S {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	s := S(v)
	return &s
}

// tokenRequest is the body of archive, restore and delete calls.
type tokenRequest struct {
	UpdatedAt string `json:"updatedAt"`
}

type statusRequest struct {
	UpdatedAt string `json:"updatedAt"`
	Status    string `json:"status"`
}

// readCommand decodes a token-only body for the record in the path.
func readCommand(r *http.Request) (lifecycle.Command, error) {
	id, err := pathID(r)
	if err != nil {
		return lifecycle.Command{}, err
	}
	var req tokenRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			return lifecycle.Command{}, err
		}
	}
	return lifecycle.Command{ID: id, Token: req.UpdatedAt}, nil
}

func readStatus(r *http.Request) (lifecycle.Command, string, error) {
	id, err := pathID(r)
	if err != nil {
		return lifecycle.Command{}, "", err
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		return lifecycle.Command{}, "", err
	}
	if req.Status == "" {
		errs := lifecycle.Command{ID: id, Token: req.UpdatedAt}.FieldErrors()
		errs = append(errs, domain.FieldError{Field: "status", Message: "required"})
		return lifecycle.Command{}, "", domain.NewValidationErrors(errs)
	}
	return lifecycle.Command{ID: id, Token: req.UpdatedAt}, req.Status, nil
}

type bulkRequest struct {
	Action            string            `json:"action"`
	IDs               []string          `json:"ids"`
	ConcurrencyTokens map[string]string `json:"concurrencyTokens"`
	TargetStatus      string            `json:"targetStatus"`
}

type bulkResponse struct {
	Affected int `json:"affected"`
}

// readBulk decodes a bulk body. Ids that do not parse are field errors on
// "ids"; token keys that do not parse are ignored, which surfaces as a
// missing token for the id they were meant for.
func readBulk[S ~string](r *http.Request) (bulk.Request[S], error) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		return bulk.Request[S]{}, err
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return bulk.Request[S]{}, domain.NewValidationError("ids", "invalid id "+strconv.Quote(raw))
		}
		ids = append(ids, id)
	}

	tokens := make(map[uuid.UUID]string, len(req.ConcurrencyTokens))
	for raw, token := range req.ConcurrencyTokens {
		if id, err := uuid.Parse(raw); err == nil {
			tokens[id] = token
		}
	}

	return bulk.Request[S]{
		Action:       bulk.Action(req.Action),
		IDs:          ids,
		Tokens:       tokens,
		TargetStatus: S(req.TargetStatus),
	}, nil
}
