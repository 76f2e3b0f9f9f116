package domain

// Matrix maps a status to the statuses reachable from it in one step.
// A status missing from the matrix has no outgoing transitions.
type Matrix[S ~string] map[S][]S

// Allows reports whether moving from -> to is a legal single step.
// Unknown source statuses fail closed.
func (m Matrix[S]) Allows(from, to S) bool {
	for _, next := range m[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Knows reports whether s is a row of the matrix.
func (m Matrix[S]) Knows(s S) bool {
	_, ok := m[s]
	return ok
}

// LeadTransitions is the lead pipeline. won and lost are terminal; archived
// is left only through restore.
var LeadTransitions = Matrix[LeadStatus]{
	LeadStatusNew:          {LeadStatusContacted, LeadStatusQualified, LeadStatusLost},
	LeadStatusContacted:    {LeadStatusQualified, LeadStatusProposalSent, LeadStatusLost},
	LeadStatusQualified:    {LeadStatusContacted, LeadStatusProposalSent, LeadStatusLost},
	LeadStatusProposalSent: {LeadStatusQualified, LeadStatusWon, LeadStatusLost},
	LeadStatusWon:          {},
	LeadStatusLost:         {},
	LeadStatusArchived:     {},
}

// ClientTransitions is the client relationship lifecycle.
var ClientTransitions = Matrix[ClientStatus]{
	ClientStatusActive:    {ClientStatusCompleted, ClientStatusInactive},
	ClientStatusCompleted: {ClientStatusActive, ClientStatusInactive},
	ClientStatusInactive:  {ClientStatusActive},
	ClientStatusArchived:  {},
}

// EngagementTransitions is the delivery lifecycle.
var EngagementTransitions = Matrix[EngagementStatus]{
	EngagementStatusNew:        {EngagementStatusInProgress, EngagementStatusPaused, EngagementStatusCancelled},
	EngagementStatusInProgress: {EngagementStatusReview, EngagementStatusDelivered, EngagementStatusPaused, EngagementStatusCancelled},
	EngagementStatusReview:     {EngagementStatusInProgress, EngagementStatusDelivered, EngagementStatusCancelled},
	EngagementStatusDelivered:  {EngagementStatusReview, EngagementStatusCompleted},
	EngagementStatusPaused:     {EngagementStatusInProgress, EngagementStatusCancelled},
	EngagementStatusCompleted:  {},
	EngagementStatusCancelled:  {},
}
