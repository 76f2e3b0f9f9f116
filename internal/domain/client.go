package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a converted customer. Email is unique across all clients.
type Client struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        *string
	Company      *string
	Status       ClientStatus
	Notes        string
	SourceLeadID *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Client) RecordID() uuid.UUID { return c.ID }
func (c *Client) LastModified() time.Time { return c.UpdatedAt }
func (c *Client) CurrentStatus() ClientStatus { return c.Status }
func (c *Client) Deletable() bool { return c.Status == ClientStatusArchived }
func (c *Client) SetStatus(s ClientStatus, at time.Time) {
	c.Status = s
	c.UpdatedAt = at
}
func (c *Client) Edited(note, operator string, at time.Time) {
	c.Notes = AppendNote(c.Notes, note, operator, at)
	c.UpdatedAt = at
}

// Clone returns a deep copy.
func (c *Client) Clone() *Client {
	out := *c
	out.Phone = cloneString(c.Phone)
	out.Company = cloneString(c.Company)
	if c.SourceLeadID != nil {
		id := *c.SourceLeadID
		out.SourceLeadID = &id
	}
	return &out
}

func (c *Client) Snapshot() map[string]any {
	return map[string]any{
		"name":   c.Name,
		"email":  c.Email,
		"status": string(c.Status),
	}
}
