// Package lifecycle is the read-side projection that merges domain records,
// audit logs, email logs, and notifications into a single chronological
// timeline with a progress score. It owns no persisted state: every view is
// computed fresh from current store contents.
package lifecycle

import (
	"math"
	"time"

	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
)

// EntryType tags a timeline entry. Closed enumeration; dashboards key icons
// and colors off these values.
type EntryType string

const (
	EntryCompanyCreated     EntryType = "COMPANY_CREATED"
	EntryCompanyVerified    EntryType = "COMPANY_VERIFIED"
	EntryCompanyRejected    EntryType = "COMPANY_REJECTED"
	EntryEventCreated       EntryType = "EVENT_CREATED"
	EntryEventVerified      EntryType = "EVENT_VERIFIED"
	EntryEventRejected      EntryType = "EVENT_REJECTED"
	EntrySponsorshipCreated EntryType = "SPONSORSHIP_CREATED"
	EntryProposalSubmitted  EntryType = "PROPOSAL_SUBMITTED"
	EntryProposalApproved   EntryType = "PROPOSAL_APPROVED"
	EntryProposalRejected   EntryType = "PROPOSAL_REJECTED"
	EntryEmailSent          EntryType = "EMAIL_SENT"
	EntryEmailFailed        EntryType = "EMAIL_FAILED"
	EntryNotification       EntryType = "NOTIFICATION"
)

// TimelineEntry is one derived timeline row. Never persisted.
type TimelineEntry struct {
	Type        EntryType    `json:"type"`
	Entity      id.EntityRef `json:"entity"`
	ActorID     string       `json:"actor_id,omitempty"`
	ActorRole   string       `json:"actor_role,omitempty"`
	Status      string       `json:"status,omitempty"`
	Recipient   string       `json:"recipient,omitempty"`
	Subject     string       `json:"subject,omitempty"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Progress is the completed-over-total step score for an entity.
type Progress struct {
	TotalSteps     int `json:"total_steps"`
	CompletedSteps int `json:"completed_steps"`
	Percentage     int `json:"percentage"`
}

func (p Progress) withPercentage() Progress {
	if p.TotalSteps > 0 {
		p.Percentage = int(math.Round(float64(p.CompletedSteps) / float64(p.TotalSteps) * 100))
	}
	return p
}

// Stats are the aggregate counts shown beside the timeline.
type Stats struct {
	Sponsorships      int `json:"sponsorships"`
	Proposals         int `json:"proposals"`
	ApprovedProposals int `json:"approved_proposals"`
	RejectedProposals int `json:"rejected_proposals"`
	EmailsSent        int `json:"emails_sent"`
	EmailsFailed      int `json:"emails_failed"`
}

// CompanyView is the full lifecycle response for a company.
type CompanyView struct {
	Company  records.Company `json:"company"`
	Stats    Stats           `json:"stats"`
	Progress Progress        `json:"progress"`
	Timeline []TimelineEntry `json:"timeline"`
}

// EventView is the full lifecycle response for an event.
type EventView struct {
	Event    records.Event   `json:"event"`
	Stats    Stats           `json:"stats"`
	Progress Progress        `json:"progress"`
	Timeline []TimelineEntry `json:"timeline"`
}
