package domain

import (
	"time"

	"github.com/google/uuid"
)

// Engagement is a unit of work delivered to a client.
type Engagement struct {
	ID           uuid.UUID
	Title        string
	Type         *string
	Description  *string
	Value        *int64
	ClientID     uuid.UUID
	SourceLeadID *uuid.UUID
	Status       EngagementStatus
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (e *Engagement) RecordID() uuid.UUID { return e.ID }
func (e *Engagement) LastModified() time.Time { return e.UpdatedAt }
func (e *Engagement) CurrentStatus() EngagementStatus { return e.Status }
func (e *Engagement) SetStatus(s EngagementStatus, at time.Time) {
	e.Status = s
	e.UpdatedAt = at
}
func (e *Engagement) Edited(note, operator string, at time.Time) {
	e.Notes = AppendNote(e.Notes, note, operator, at)
	e.UpdatedAt = at
}

// Deletable reports whether the engagement reached a closed state.
func (e *Engagement) Deletable() bool {
	return e.Status == EngagementStatusCompleted || e.Status == EngagementStatusCancelled
}

// Clone returns a deep copy.
func (e *Engagement) Clone() *Engagement {
	out := *e
	out.Type = cloneString(e.Type)
	out.Description = cloneString(e.Description)
	out.Value = cloneInt64(e.Value)
	if e.SourceLeadID != nil {
		id := *e.SourceLeadID
		out.SourceLeadID = &id
	}
	return &out
}

func (e *Engagement) Snapshot() map[string]any {
	return map[string]any{
		"title":    e.Title,
		"clientId": e.ClientID.String(),
		"status":   string(e.Status),
	}
}
