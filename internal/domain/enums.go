package domain

// EntityKind identifies which CRM collection a record belongs to.
type EntityKind string

const (
	EntityKindLead       EntityKind = "lead"
	EntityKindClient     EntityKind = "client"
	EntityKindEngagement EntityKind = "engagement"
)

func (k EntityKind) String() string { return string(k) }

func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindLead, EntityKindClient, EntityKindEngagement:
		return true
	}
	return false
}

// LeadStatus is the pipeline position of a lead.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusProposalSent LeadStatus = "proposal_sent"
	LeadStatusWon          LeadStatus = "won"
	LeadStatusLost         LeadStatus = "lost"
	LeadStatusArchived     LeadStatus = "archived"
)

func (s LeadStatus) String() string { return string(s) }

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposalSent,
		LeadStatusWon, LeadStatusLost, LeadStatusArchived:
		return true
	}
	return false
}

// LeadSource records how a lead entered the system.
type LeadSource string

const (
	LeadSourceWebsite  LeadSource = "website"
	LeadSourceManual   LeadSource = "manual"
	LeadSourceReferral LeadSource = "referral"
)

func (s LeadSource) String() string { return string(s) }

func (s LeadSource) IsValid() bool {
	switch s {
	case LeadSourceWebsite, LeadSourceManual, LeadSourceReferral:
		return true
	}
	return false
}

// ClientStatus is the relationship state of a client.
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusCompleted ClientStatus = "completed"
	ClientStatusInactive  ClientStatus = "inactive"
	ClientStatusArchived  ClientStatus = "archived"
)

func (s ClientStatus) String() string { return string(s) }

func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusCompleted, ClientStatusInactive, ClientStatusArchived:
		return true
	}
	return false
}

// EngagementStatus is the delivery state of an engagement.
type EngagementStatus string

const (
	EngagementStatusNew        EngagementStatus = "new"
	EngagementStatusInProgress EngagementStatus = "in_progress"
	EngagementStatusReview     EngagementStatus = "review"
	EngagementStatusDelivered  EngagementStatus = "delivered"
	EngagementStatusCompleted  EngagementStatus = "completed"
	EngagementStatusPaused     EngagementStatus = "paused"
	EngagementStatusCancelled  EngagementStatus = "cancelled"
)

func (s EngagementStatus) String() string { return string(s) }

func (s EngagementStatus) IsValid() bool {
	switch s {
	case EngagementStatusNew, EngagementStatusInProgress, EngagementStatusReview,
		EngagementStatusDelivered, EngagementStatusCompleted, EngagementStatusPaused,
		EngagementStatusCancelled:
		return true
	}
	return false
}

// ActivityAction is the closed set of audit action codes.
type ActivityAction string

const (
	ActionLeadCreated         ActivityAction = "lead_created"
	ActionClientCreated       ActivityAction = "client_created"
	ActionEngagementCreated   ActivityAction = "engagement_created"
	ActionRecordUpdated       ActivityAction = "record_updated"
	ActionNoteAdded           ActivityAction = "note_added"
	ActionStatusChange        ActivityAction = "status_change"
	ActionRecordArchived      ActivityAction = "record_archived"
	ActionRecordRestored      ActivityAction = "record_restored"
	ActionRecordDeleted       ActivityAction = "record_deleted"
	ActionLeadConverted       ActivityAction = "lead_converted"
	ActionDuplicateSubmission ActivityAction = "duplicate_submission"
	ActionBulkOperation       ActivityAction = "bulk_operation"
)

func (a ActivityAction) String() string { return string(a) }

func (a ActivityAction) IsValid() bool {
	switch a {
	case ActionLeadCreated, ActionClientCreated, ActionEngagementCreated, ActionRecordUpdated,
		ActionNoteAdded, ActionStatusChange, ActionRecordArchived, ActionRecordRestored,
		ActionRecordDeleted, ActionLeadConverted, ActionDuplicateSubmission, ActionBulkOperation:
		return true
	}
	return false
}
