package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/bulk"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/client"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/lifecycle"
)

type clientService interface {
	Create(ctx context.Context, in client.CreateInput) (*client.Outcome, error)
	Update(ctx context.Context, in client.UpdateInput) (*client.Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, in client.ListInput) ([]*domain.Client, int, error)
	ChangeStatus(ctx context.Context, cmd lifecycle.Command, target domain.ClientStatus) (*client.Outcome, error)
	Archive(ctx context.Context, cmd lifecycle.Command) (*client.Outcome, error)
	Restore(ctx context.Context, cmd lifecycle.Command) (*client.Outcome, error)
	Delete(ctx context.Context, cmd lifecycle.Command) (*domain.Activity, error)
	Bulk(ctx context.Context, req bulk.Request[domain.ClientStatus]) (*bulk.Result, error)
}

// ClientHandler serves the client endpoints.
type ClientHandler struct {
	svc clientService
	env *Envelope
	log *slog.Logger
}

// NewClientHandler creates a ClientHandler.
func NewClientHandler(svc clientService, env *Envelope, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{svc: svc, env: env, log: logger.With("handler", "client")}
}

type clientCreateRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Note    string  `json:"note"`
}

type clientUpdateRequest struct {
	UpdatedAt string  `json:"updatedAt"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Note      *string `json:"note"`
}

// List handles GET /api/admin/clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	items, total, err := h.svc.List(r.Context(), client.ListInput{
		Status: queryEnum[domain.ClientStatus](r, "status"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
	})
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.List(w, mapSlice(items, toClient), total, page)
}

// Create handles POST /api/admin/clients.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Create(r.Context(), client.CreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Note:    req.Note,
	})
	h.writeOutcome(w, r, http.StatusCreated, out, err)
}

// Get handles GET /api/admin/clients/{id}.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, http.StatusOK, toClient(c), nil)
}

// Update handles PATCH /api/admin/clients/{id}.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	var req clientUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Update(r.Context(), client.UpdateInput{
		ID:      id,
		Token:   req.UpdatedAt,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Note:    req.Note,
	})
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// ChangeStatus handles POST /api/admin/clients/{id}/status.
func (h *ClientHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	cmd, status, err := readStatus(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.ChangeStatus(r.Context(), cmd, domain.ClientStatus(status))
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Archive handles POST /api/admin/clients/{id}/archive.
func (h *ClientHandler) Archive(w http.ResponseWriter, r *http.Request) {
	cmd, err := readCommand(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Archive(r.Context(), cmd)
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Restore handles POST /api/admin/clients/{id}/restore.
func (h *ClientHandler) Restore(w http.ResponseWriter, r *http.Request) {
	cmd, err := readCommand(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	out, err := h.svc.Restore(r.Context(), cmd)
	h.writeOutcome(w, r, http.StatusOK, out, err)
}

// Delete handles DELETE /api/admin/clients/{id}.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Bulk handles POST /api/admin/clients/bulk.
func (h *ClientHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	req, err := readBulk[domain.ClientStatus](r)
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

func (h *ClientHandler) writeOutcome(w http.ResponseWriter, r *http.Request, status int, out *client.Outcome, err error) {
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, status, toClient(out.Record), out.Activity)
}
