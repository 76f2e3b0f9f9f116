package domain

import "github.com/google/uuid"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a 1-based offset page.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page to >= 1 and limit to [1, MaxPageLimit]. A zero limit
// is an unset one and selects DefaultPageLimit, so parsers of an explicit
// limit clamp it to 1 before calling Normalize.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit == 0:
		p.Limit = DefaultPageLimit
	case p.Limit < 1:
		p.Limit = 1
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// LeadFilter narrows a lead listing. Search matches name, email or company.
type LeadFilter struct {
	Status *LeadStatus
	Source *LeadSource
	Search string
	Page   Page
}

// ClientFilter narrows a client listing.
type ClientFilter struct {
	Status *ClientStatus
	Search string
	Page   Page
}

// EngagementFilter narrows an engagement listing.
type EngagementFilter struct {
	Status   *EngagementStatus
	ClientID *uuid.UUID
	Search   string
	Page     Page
}

// ActivityFilter narrows the cross-record activity feed.
type ActivityFilter struct {
	Kind   *EntityKind
	Action *ActivityAction
	Limit  int
}
