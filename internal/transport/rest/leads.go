package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lead"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

type leadService interface {
	Create(ctx context.Context, in lead.CreateInput) (*lead.Outcome, error)
	Update(ctx context.Context, in lead.UpdateInput) (*lead.Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, in lead.ListInput) ([]*domain.Lead, int, error)
	ChangeStatus(ctx context.Context, cmd lifecycle.Command, target domain.LeadStatus) (*lead.Outcome, error)
	Archive(ctx context.Context, cmd lifecycle.Command) (*lead.Outcome, error)
	Restore(ctx context.Context, cmd lifecycle.Command) (*lead.Outcome, error)
	Delete(ctx context.Context, cmd lifecycle.Command) (*domain.Activity, error)
	Bulk(ctx context.Context, req bulk.Request[domain.LeadStatus]) (*bulk.Result, error)
	Submit(ctx context.Context, in lead.SubmitInput) (*lead.SubmitResult, error)
}

type submissionObserver interface {
	ObserveSubmission(outcome string)
}

// LeadHandler serves the lead endpoints, including public intake.
type LeadHandler struct {
	svc leadService
	env *Envelope
	obs submissionObserver
	log *slog.Logger
}

// NewLeadHandler creates a LeadHandler. obs may be nil.
func NewLeadHandler(svc leadService, env *Envelope, obs submissionObserver, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{svc: svc, env: env, obs: obs, log: logger.With("handler", "lead")}
}

type leadCreateRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	Company        *string `json:"company"`
	Message        string  `json:"message"`
	ServiceType    *string `json:"serviceType"`
	EstimatedValue *int64  `json:"estimatedValue"`
	Source         string  `json:"source"`
	Note           string  `json:"note"`
}

type leadUpdateRequest struct {
	UpdatedAt      string  `json:"updatedAt"`
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Company        *string `json:"company"`
	Message        *string `json:"message"`
	ServiceType    *string `json:"serviceType"`
	EstimatedValue *int64  `json:"estimatedValue"`
	Source         *string `json:"source"`
	Note           *string `json:"note"`
}

type submitRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	Company     *string `json:"company"`
	Message     string  `json:"message"`
	ServiceType *string `json:"serviceType"`
}

type submitResponse struct {
	Received bool `json:"received"`
}

// Submit handles POST /api/public/leads.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	res, err := h.svc.Submit(r.Context(), lead.SubmitInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Message:     req.Message,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	if h.obs != nil {
		h.obs.ObserveSubmission(res.Outcome)
	}
	h.env.Success(w, http.StatusOK, submitResponse{Received: res.Received}, nil)
}

// List handles GET /api/admin/leads.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	items, total, err := h.svc.List(r.Context(), lead.ListInput{
		Status: queryEnum[domain.LeadStatus](r, "status"),
		Source: queryEnum[domain.LeadSource](r, "source"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
	})
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.List(w, mapSlice(items, toLead), total, page)
}

// Create handles POST /api/admin/leads.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req leadCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Create(r.Context(), lead.CreateInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Message:        req.Message,
		ServiceType:    req.ServiceType,
		EstimatedValue: req.EstimatedValue,
		Source:         domain.LeadSource(req.Source),
		Note:           req.Note,
	})
	h.writeOutcome(w, r, http.StatusCreated, out, err)
}

// Get handles GET /api/admin/leads/{id}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, http.StatusOK, toLead(l), nil)
}

// Update handles PATCH /api/admin/leads/{id}.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	var req leadUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	in := lead.UpdateInput{
		ID:             id,
		Token:          req.UpdatedAt,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Message:        req.Message,
		ServiceType:    req.ServiceType,
		EstimatedValue: req.EstimatedValue,
		Note:           req.Note,
	}
	if req.Source != nil {
		src := domain.LeadSource(*req.Source)
		in.Source = &src
	}
	out, err := h.svc.Update(r.Context(), in)
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// ChangeStatus handles POST /api/admin/leads/{id}/status.
func (h *LeadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	cmd, status, err := readStatus(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.ChangeStatus(r.Context(), cmd, domain.LeadStatus(status))
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Archive handles POST /api/admin/leads/{id}/archive.
func (h *LeadHandler) Archive(w http.ResponseWriter, r *http.Request) {
	cmd, err := readCommand(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Archive(r.Context(), cmd)
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Restore handles POST /api/admin/leads/{id}/restore.
func (h *LeadHandler) Restore(w http.ResponseWriter, r *http.Request) {
	cmd, err := readCommand(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Restore(r.Context(), cmd)
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Delete handles DELETE /api/admin/leads/{id}.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cmd, err := readCommand(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	act, err := h.svc.Delete(r.Context(), cmd)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, http.StatusOK, deletedResponse{ID: cmd.ID.String(), Deleted: true}, act)
}

// Bulk handles POST /api/admin/leads/bulk.
func (h *LeadHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	req, err := readBulk[domain.LeadStatus](r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	res, err := h.svc.Bulk(r.Context(), req)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, http.StatusOK, bulkResponse{Affected: res.Affected}, res.Activity)
}

func (h *LeadHandler) writeOutcome(w http.ResponseWriter, r *http.Request, status int, out *lead.Outcome, err error) {
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, status, toLead(out.Record), out.Activity)
}

type deletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
