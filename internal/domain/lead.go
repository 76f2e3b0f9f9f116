package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is an inbound sales inquiry.
type Lead struct {
	ID                  uuid.UUID
	Name                string
	Email               string
	Phone               *string
	Company             *string
	Message             string
	ServiceType         *string
	EstimatedValue      *int64
	Source              LeadSource
	Status              LeadStatus
	Notes               string
	ConvertedToClientID *uuid.UUID
	ConvertedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (l *Lead) RecordID() uuid.UUID { return l.ID }
func (l *Lead) LastModified() time.Time { return l.UpdatedAt }
func (l *Lead) CurrentStatus() LeadStatus { return l.Status }
func (l *Lead) Deletable() bool { return l.Status == LeadStatusArchived }
func (l *Lead) IsConverted() bool { return l.ConvertedToClientID != nil }
func (l *Lead) SetStatus(s LeadStatus, at time.Time) {
	l.Status = s
	l.UpdatedAt = at
}
func (l *Lead) Edited(note, operator string, at time.Time) {
	l.Notes = AppendNote(l.Notes, note, operator, at)
	l.UpdatedAt = at
}

// Clone returns a deep copy.
func (l *Lead) Clone() *Lead {
	c := *l
	c.Phone = cloneString(l.Phone)
	c.Company = cloneString(l.Company)
	c.ServiceType = cloneString(l.ServiceType)
	c.EstimatedValue = cloneInt64(l.EstimatedValue)
	if l.ConvertedToClientID != nil {
		id := *l.ConvertedToClientID
		c.ConvertedToClientID = &id
	}
	if l.ConvertedAt != nil {
		at := *l.ConvertedAt
		c.ConvertedAt = &at
	}
	return &c
}

// Snapshot is the metadata captured when the lead is deleted.
func (l *Lead) Snapshot() map[string]any {
	return map[string]any{
		"name":   l.Name,
		"email":  l.Email,
		"status": string(l.Status),
		"source": string(l.Source),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt64(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
