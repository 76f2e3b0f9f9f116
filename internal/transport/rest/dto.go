package rest

import (
	"time"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

type leadResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               *string    `json:"phone,omitempty"`
	Company             *string    `json:"company,omitempty"`
	Message             string     `json:"message"`
	ServiceType         *string    `json:"serviceType,omitempty"`
	EstimatedValue      *int64     `json:"estimatedValue,omitempty"`
	Source              string     `json:"source"`
	Status              string     `json:"status"`
	Notes               string     `json:"notes"`
	ConvertedToClientID *string    `json:"convertedToClientId,omitempty"`
	ConvertedAt         *time.Time `json:"convertedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           string     `json:"updatedAt"`
}

func toLead(l *domain.Lead) leadResponse {
	out := leadResponse{
		ID:             l.ID.String(),
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		Company:        l.Company,
		Message:        l.Message,
		ServiceType:    l.ServiceType,
		EstimatedValue: l.EstimatedValue,
		Source:         string(l.Source),
		Status:         string(l.Status),
		Notes:          l.Notes,
		ConvertedAt:    l.ConvertedAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      domain.VersionToken(l.UpdatedAt),
	}
	if l.ConvertedToClientID != nil {
		id := l.ConvertedToClientID.String()
		out.ConvertedToClientID = &id
	}
	return out
}

type clientResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	Company      *string   `json:"company,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
	SourceLeadID *string   `json:"sourceLeadId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

func toClient(c *domain.Client) clientResponse {
	out := clientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Status:    string(c.Status),
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: domain.VersionToken(c.UpdatedAt),
	}
	if c.SourceLeadID != nil {
		id := c.SourceLeadID.String()
		out.SourceLeadID = &id
	}
	return out
}

type engagementResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Type         *string   `json:"type,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Value        *int64    `json:"value,omitempty"`
	ClientID     string    `json:"clientId"`
	SourceLeadID *string   `json:"sourceLeadId,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

func toEngagement(e *domain.Engagement) engagementResponse {
	out := engagementResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Type:        e.Type,
		Description: e.Description,
		Value:       e.Value,
		ClientID:    e.ClientID.String(),
		Status:      string(e.Status),
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   domain.VersionToken(e.UpdatedAt),
	}
	if e.SourceLeadID != nil {
		id := e.SourceLeadID.String()
		out.SourceLeadID = &id
	}
	return out
}

type activityResponse struct {
	ID          string         `json:"id"`
	EntityType  string         `json:"entityType"`
	EntityID    *string        `json:"entityId"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	PerformedBy string         `json:"performedBy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toActivity(a *domain.Activity) *activityResponse {
	if a == nil {
		return nil
	}
	out := &activityResponse{
		ID:          a.ID.String(),
		EntityType:  string(a.EntityKind),
		Action:      string(a.Action),
		Description: a.Description,
		PerformedBy: a.PerformedBy,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
	if a.EntityID != nil {
		id := a.EntityID.String()
		out.EntityID = &id
	}
	return out
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}
