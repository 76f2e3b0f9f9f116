package domain

import "testing"

func TestLeadStatus_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status LeadStatus
		want   bool
	}{
		{LeadStatusNew, true},
		{LeadStatusProposalSent, true},
		{LeadStatusArchived, true},
		{LeadStatus("converted"), false},
		{LeadStatus(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("LeadStatus(%q).IsValid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestEngagementStatus_IsValid(t *testing.T) {
	t.Parallel()

	if !EngagementStatusInProgress.IsValid() {
		t.Error("in_progress should be valid")
	}
	if EngagementStatus("archived").IsValid() {
		t.Error("engagements have no archived status")
	}
}

func TestClientStatus_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []ClientStatus{ClientStatusActive, ClientStatusCompleted, ClientStatusInactive, ClientStatusArchived} {
		if !s.IsValid() {
			t.Errorf("ClientStatus(%q).IsValid() = false", s)
		}
	}
	if ClientStatus("won").IsValid() {
		t.Error("won is not a client status")
	}
}

func TestActivityAction_IsValid(t *testing.T) {
	t.Parallel()

	if !ActionBulkOperation.IsValid() {
		t.Error("bulk_operation should be valid")
	}
	if ActivityAction("record_touched").IsValid() {
		t.Error("unexpected action accepted")
	}
}

func TestEntityKind_String(t *testing.T) {
	t.Parallel()

	if got := EntityKindEngagement.String(); got != "engagement" {
		t.Errorf("String() = %q", got)
	}
	if EntityKind("card").IsValid() {
		t.Error("card is not a CRM kind")
	}
}
