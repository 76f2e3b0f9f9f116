package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/service/conversion"
)

type conversionService interface {
	Convert(ctx context.Context, in conversion.Input) (*conversion.Result, error)
}

// ConversionHandler serves lead conversion.
type ConversionHandler struct {
	svc conversionService
	env *Envelope
	log *slog.Logger
}

// NewConversionHandler creates a ConversionHandler.
func NewConversionHandler(svc conversionService, env *Envelope, logger *slog.Logger) *ConversionHandler {
	return &ConversionHandler{svc: svc, env: env, log: logger.With("handler", "conversion")}
}

type convertRequest struct {
	UpdatedAt       string  `json:"updatedAt"`
	EngagementTitle *string `json:"engagementTitle"`
	EngagementType  *string `json:"engagementType"`
	EngagementValue *int64  `json:"engagementValue"`
}

type convertResponse struct {
	Lead       leadResponse        `json:"lead"`
	Client     clientResponse      `json:"client"`
	Engagement engagementResponse  `json:"engagement"`
	Activities []*activityResponse `json:"activities"`
}

// Convert handles POST /api/admin/leads/{id}/convert. The envelope activity
// is the lead_converted entry; all three entries are listed in data.
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.env.Error(w, r, err)
		return
	}
	var req convertRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.Error(w, r, err)
		return
	}
	res, err := h.svc.Convert(r.Context(), conversion.Input{
		LeadID:          id,
		Token:           req.UpdatedAt,
		EngagementTitle: req.EngagementTitle,
		EngagementType:  req.EngagementType,
		EngagementValue: req.EngagementValue,
	})
	if err != nil {
		h.env.Error(w, r, err)
		return
	}

	data := convertResponse{
		Lead:       toLead(res.Lead),
		Client:     toClient(res.Client),
		Engagement: toEngagement(res.Engagement),
		Activities: mapSlice(res.Activities, toActivity),
	}
	if len(res.Activities) > 0 {
		h.env.Success(w, http.StatusOK, data, res.Activities[0])
		return
	}
	h.env.Success(w, http.StatusOK, data, nil)
}
