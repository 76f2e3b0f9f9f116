package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/ledger"
)

type activityReader interface {
	History(ctx context.Context, in ledger.HistoryInput) ([]*domain.Activity, error)
	Recent(ctx context.Context, in ledger.RecentInput) ([]*domain.Activity, error)
}

// ActivityHandler serves record histories and the recent activity feed.
type ActivityHandler struct {
	ledger activityReader
	env    *Envelope
	log    *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(l activityReader, env *Envelope, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{ledger: l, env: env, log: logger.With("handler", "activity")}
}

// History returns the handler for GET /api/admin/{kind}/{id}/activities.
func (h *ActivityHandler) History(kind domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.env.Error(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			h.env.Error(w, r, err)
			return
		}
		items, err := h.ledger.History(r.Context(), ledger.HistoryInput{Kind: kind, EntityID: id, Limit: limit})
		if err != nil {
			h.env.Error(w, r, err)
			return
		}
		h.env.Success(w, http.StatusOK, mapSlice(items, toActivity), nil)
	}
}

// Recent handles GET /api/admin/activities.
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	items, err := h.ledger.Recent(r.Context(), ledger.RecentInput{
		Kind:   queryEnum[domain.EntityKind](r, "kind"),
		Action: queryEnum[domain.ActivityAction](r, "action"),
		Limit:  limit,
	})
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	h.env.Success(w, http.StatusOK, mapSlice(items, toActivity), nil)
}
