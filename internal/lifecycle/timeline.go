package lifecycle

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
)

// auditEntryTypes maps audit actions onto timeline entry types. Actions
// outside this table are dropped silently: not every recorded action charts.
var auditEntryTypes = map[audit.Action]EntryType{
	audit.ActionCompanyVerified:    EntryCompanyVerified,
	audit.ActionCompanyRejected:    EntryCompanyRejected,
	audit.ActionEventVerified:      EntryEventVerified,
	audit.ActionEventRejected:      EntryEventRejected,
	audit.ActionSponsorshipCreated: EntrySponsorshipCreated,
	audit.ActionProposalSubmitted:  EntryProposalSubmitted,
	audit.ActionProposalApproved:   EntryProposalApproved,
	audit.ActionProposalRejected:   EntryProposalRejected,
}

var auditDescriptions = map[EntryType]string{
	EntryCompanyVerified:    "Company verified by reviewer",
	EntryCompanyRejected:    "Company rejected by reviewer",
	EntryEventVerified:      "Event verified by reviewer",
	EntryEventRejected:      "Event rejected by reviewer",
	EntrySponsorshipCreated: "Sponsorship created",
	EntryProposalSubmitted:  "Proposal submitted",
	EntryProposalApproved:   "Proposal approved",
	EntryProposalRejected:   "Proposal rejected",
}

// builder accumulates candidate entries in construction order. Construction
// order matters: dedup keeps the first occurrence, so earlier sources win
// over later re-derivations of the same fact.
type builder struct {
	entries []TimelineEntry
}

func (b *builder) add(e TimelineEntry) {
	b.entries = append(b.entries, e)
}

// has reports whether an entry of the given type already exists for the
// entity. It guards the proposal-derived entries against double-counting a
// fact the audit log already contributed.
func (b *builder) has(entryType EntryType, entityID uuid.UUID) bool {
	for _, e := range b.entries {
		if e.Type == entryType && e.Entity.ID == entityID {
			return true
		}
	}
	return false
}

func (b *builder) addAuditEntries(entries []audit.Entry) {
	for _, e := range entries {
		entryType, charted := auditEntryTypes[e.Action]
		if !charted {
			continue
		}
		b.add(TimelineEntry{
			Type:        entryType,
			Entity:      e.Entity,
			ActorID:     e.ActorID.String(),
			ActorRole:   string(e.ActorRole),
			Description: auditDescriptions[entryType],
			Timestamp:   e.CreatedAt,
		})
	}
}

func (b *builder) addSponsorships(sponsorships []records.Sponsorship) {
	for _, sp := range sponsorships {
		if b.has(EntrySponsorshipCreated, uuid.UUID(sp.ID)) {
			continue
		}
		b.add(TimelineEntry{
			Type:        EntrySponsorshipCreated,
			Entity:      id.SponsorshipRef(sp.ID),
			Description: "Sponsorship created",
			Timestamp:   sp.CreatedAt,
		})
	}
}

// addProposals derives submission and decision entries from proposal state.
// Each is added only when no prior entry of the same type exists for the
// proposal; audit-log entries added earlier take precedence.
func (b *builder) addProposals(proposals []records.Proposal) {
	for _, p := range proposals {
		if p.SubmittedAt != nil && !b.has(EntryProposalSubmitted, uuid.UUID(p.ID)) {
			b.add(TimelineEntry{
				Type:        EntryProposalSubmitted,
				Entity:      id.ProposalRef(p.ID),
				Status:      string(records.ProposalSubmitted),
				Description: fmt.Sprintf("Proposal %q submitted", p.Title),
				Timestamp:   *p.SubmittedAt,
			})
		}
		if p.ReviewedAt != nil && p.Status.IsTerminal() {
			entryType := EntryProposalApproved
			if p.Status == records.ProposalRejected {
				entryType = EntryProposalRejected
			}
			if !b.has(entryType, uuid.UUID(p.ID)) {
				b.add(TimelineEntry{
					Type:        entryType,
					Entity:      id.ProposalRef(p.ID),
					Status:      string(p.Status),
					Description: fmt.Sprintf("Proposal %q %s", p.Title, lowerStatus(p.Status)),
					Timestamp:   *p.ReviewedAt,
				})
			}
		}
	}
}

func (b *builder) addEmailEntries(entries []emaillog.Entry) {
	for _, e := range entries {
		entry := TimelineEntry{
			Type:        EntryEmailSent,
			Entity:      e.Entity,
			Recipient:   e.Recipient,
			Subject:     e.Subject,
			Description: fmt.Sprintf("Email sent to %s", e.Recipient),
			Timestamp:   e.CreatedAt,
		}
		if e.Status != emaillog.StatusSent {
			entry.Type = EntryEmailFailed
			entry.Description = fmt.Sprintf("Email to %s failed: %s", e.Recipient, e.ErrorMessage)
		}
		b.add(entry)
	}
}

func (b *builder) addNotifications(entries []notification.Notification) {
	for _, n := range entries {
		b.add(TimelineEntry{
			Type:        EntryNotification,
			Entity:      n.Entity,
			Subject:     n.Title,
			Description: n.Message,
			Timestamp:   n.CreatedAt,
		})
	}
}

// finish deduplicates and sorts the accumulated entries.
func (b *builder) finish() []TimelineEntry {
	deduped := dedupe(b.entries)
	sortTimeline(deduped)
	return deduped
}

type dedupKey struct {
	entryType EntryType
	entityID  uuid.UUID
	second    int64
}

// dedupe collapses entries sharing (type, entity, unix-second) onto the
// first occurrence, preserving construction order. Idempotent.
func dedupe(entries []TimelineEntry) []TimelineEntry {
	seen := make(map[dedupKey]struct{}, len(entries))
	out := make([]TimelineEntry, 0, len(entries))
	for _, e := range entries {
		key := dedupKey{entryType: e.Type, entityID: e.Entity.ID, second: e.Timestamp.Unix()}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// sortTimeline orders ascending by timestamp. The sort is stable: entries
// with identical timestamps keep their construction order.
func sortTimeline(entries []TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}

func lowerStatus(s records.ProposalStatus) string {
	if s == records.ProposalApproved {
		return "approved"
	}
	return "rejected"
}
