package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/engagement"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

type engagementService interface {
	Create(ctx context.Context, in engagement.CreateInput) (*engagement.Outcome, error)
	Update(ctx context.Context, in engagement.UpdateInput) (*engagement.Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Engagement, error)
	List(ctx context.Context, in engagement.ListInput) ([]*domain.Engagement, int, error)
	ChangeStatus(ctx context.Context, cmd lifecycle.Command, target domain.EngagementStatus) (*engagement.Outcome, error)
	Delete(ctx context.Context, cmd lifecycle.Command) (*domain.Activity, error)
	Bulk(ctx context.Context, req bulk.Request[domain.EngagementStatus]) (*bulk.Result, error)
}

// EngagementHandler serves the engagement endpoints.
type EngagementHandler struct {
	svc engagementService
	env *Envelope
	log *slog.Logger
}

// NewEngagementHandler creates an EngagementHandler.
func NewEngagementHandler(svc engagementService, env *Envelope, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{svc: svc, env: env, log: logger.With("handler", "engagement")}
}

type engagementCreateRequest struct {
	ClientID    string  `json:"clientId"`
	Title       string  `json:"title"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Value       *int64  `json:"value"`
	Note        string  `json:"note"`
}

type engagementUpdateRequest struct {
	UpdatedAt   string  `json:"updatedAt"`
	Title       *string `json:"title"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Value       *int64  `json:"value"`
	Note        *string `json:"note"`
}

// List handles GET /api/admin/engagements.
func (h *EngagementHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	in := engagement.ListInput{
		Status: queryEnum[domain.EngagementStatus](r, "status"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
	}
	if raw := r.URL.Query().Get("clientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.env.Error(w, r, domain.NewValidationError("clientId", "invalid id"))
			return
		}
		in.ClientID = &id
	}
	items, total, err := h.svc.List(r.Context(), in)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.List(w, mapSlice(items, toEngagement), total, page)
}

// Create handles POST /api/admin/engagements.
func (h *EngagementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req engagementCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	in := engagement.CreateInput{
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
		Value:       req.Value,
		Note:        req.Note,
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			h.env.Error(w, r, domain.NewValidationError("clientId", "invalid id"))
			return
		}
		in.ClientID = id
	}
	out, err := h.svc.Create(r.Context(), in)
	h.writeOutcome(w, r, http.StatusCreated, out, err)
}

// Get handles GET /api/admin/engagements/{id}.
func (h *EngagementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, http.StatusOK, toEngagement(e), nil)
}

// Update handles PATCH /api/admin/engagements/{id}.
func (h *EngagementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	var req engagementUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Update(r.Context(), engagement.UpdateInput{
		ID:          id,
		Token:       req.UpdatedAt,
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
		Value:       req.Value,
		Note:        req.Note,
	})
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// ChangeStatus handles POST /api/admin/engagements/{id}/status.
func (h *EngagementHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	cmd, status, err := readStatus(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.ChangeStatus(r.Context(), cmd, domain.EngagementStatus(status))
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Delete handles DELETE /api/admin/engagements/{id}.
func (h *EngagementHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Bulk handles POST /api/admin/engagements/bulk.
func (h *EngagementHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	req, err := readBulk[domain.EngagementStatus](r)
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

func (h *EngagementHandler) writeOutcome(w http.ResponseWriter, r *http.Request, status int, out *engagement.Outcome, err error) {
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, status, toEngagement(out.Record), out.Activity)
}
