package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sponsorhub/internal/bus"
	"sponsorhub/internal/mailer"
	"sponsorhub/internal/queue"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/email"
	"sponsorhub/pkg/platform/sentinel"
	pkgstrings "sponsorhub/pkg/platform/strings"
)

// emailContent is the per-job-name template. The body is assembled from the
// intro plus reviewer notes when present.
type emailContent struct {
	subject string
	intro   string
}

var emailTemplates = map[string]emailContent{
	bus.NameCompanyVerified: {
		subject: "Your company has been verified",
		intro:   "Good news: your company passed verification and can now sponsor events.",
	},
	bus.NameCompanyRejected: {
		subject: "Your company verification was declined",
		intro:   "Your company did not pass verification. Review the notes below and resubmit.",
	},
	bus.NameEventVerified: {
		subject: "Your event has been verified",
		intro:   "Your event passed verification and is now open for sponsorships.",
	},
	bus.NameEventRejected: {
		subject: "Your event verification was declined",
		intro:   "Your event did not pass verification. Review the notes below and resubmit.",
	},
	bus.NameProposalSubmitted: {
		subject: "A sponsorship proposal was submitted",
		intro:   "A sponsor submitted a proposal for your event. Sign in to review it.",
	},
	bus.NameProposalApproved: {
		subject: "Sponsorship proposal approved",
		intro:   "A sponsorship proposal for your event has been approved.",
	},
	bus.NameProposalRejected: {
		subject: "Sponsorship proposal rejected",
		intro:   "A sponsorship proposal for your event has been rejected.",
	},
}

// EmailProcessor consumes jobs from the email queue, resolves recipients by
// walking current records, and hands one message per recipient to the
// sender. A send failure aborts and surfaces the error so the queue retries;
// already-sent recipients may receive the mail again on retry, which the
// templates tolerate.
type EmailProcessor struct {
	records Records
	sender  mailer.Sender
	logger  *slog.Logger
}

func NewEmailProcessor(store Records, sender mailer.Sender, logger *slog.Logger) *EmailProcessor {
	return &EmailProcessor{records: store, sender: sender, logger: logger}
}

func (p *EmailProcessor) Process(ctx context.Context, job queue.Job) error {
	content, known := emailTemplates[job.Name]
	if !known {
		p.logger.Warn("unknown email job name, acknowledging", "job", job.Name, "job_id", job.ID)
		return nil
	}

	payload, err := decodePayload(job.Payload)
	if err != nil {
		p.logger.Warn("undecodable email job payload, acknowledging", "job_id", job.ID, "error", err)
		return nil
	}
	tenantID, err := payload.tenantID()
	if err != nil {
		p.logger.Warn("email job has invalid tenant, acknowledging", "job_id", job.ID, "error", err)
		return nil
	}

	recipients, ref, err := p.resolveRecipients(ctx, tenantID, payload)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Entity removed since the event fired; retrying cannot help.
			p.logger.Warn("email job entity no longer exists, acknowledging",
				"job_id", job.ID,
				"entity_type", payload.EntityType,
				"entity_id", payload.EntityID,
			)
			return nil
		}
		return fmt.Errorf("resolve recipients for %s: %w", job.ID, err)
	}
	if len(recipients) == 0 {
		p.logger.Warn("no recipients resolved, nothing to send",
			"job", job.Name,
			"entity_type", payload.EntityType,
			"entity_id", payload.EntityID,
		)
		return nil
	}

	for _, recipient := range recipients {
		msg := mailer.Message{
			TenantID:  tenantID,
			Recipient: recipient,
			Subject:   content.subject,
			Body:      renderBody(recipient, content, payload),
			JobName:   job.Name,
			Entity:    ref,
		}
		if err := p.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send %s to %s: %w", job.Name, recipient, err)
		}
	}
	return nil
}

// resolveRecipients walks the ownership chain for the job's entity and
// returns a deduplicated address list plus the entity ref used for email
// log correlation.
func (p *EmailProcessor) resolveRecipients(ctx context.Context, tenantID id.TenantID, payload Payload) ([]string, id.EntityRef, error) {
	switch id.EntityType(payload.EntityType) {
	case id.EntityCompany:
		companyID, err := id.ParseCompanyID(payload.EntityID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		addrs, err := p.companyRecipients(ctx, tenantID, companyID)
		return addrs, id.CompanyRef(companyID), err

	case id.EntityEvent:
		eventID, err := id.ParseEventID(payload.EntityID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		event, err := p.records.FindEvent(ctx, tenantID, eventID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		addrs, err := p.organizerRecipients(ctx, tenantID, event.OrganizerID)
		return addrs, id.EventRef(eventID), err

	case id.EntityProposal:
		proposalID, err := id.ParseProposalID(payload.EntityID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		proposal, err := p.records.FindProposal(ctx, tenantID, proposalID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		sponsorship, err := p.records.FindSponsorship(ctx, tenantID, proposal.SponsorshipID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		event, err := p.records.FindEvent(ctx, tenantID, sponsorship.EventID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		addrs, err := p.organizerRecipients(ctx, tenantID, event.OrganizerID)
		return addrs, id.ProposalRef(proposalID), err

	default:
		return nil, id.EntityRef{}, nil
	}
}

func (p *EmailProcessor) companyRecipients(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]string, error) {
	users, err := p.records.ListActiveUsersByCompany(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return pkgstrings.DedupeAndTrimLower(userEmails(users)), nil
	}
	// No active accounts: fall back to the company's stored contact.
	company, err := p.records.FindCompany(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	return pkgstrings.DedupeAndTrimLower([]string{company.ContactEmail}), nil
}

func (p *EmailProcessor) organizerRecipients(ctx context.Context, tenantID id.TenantID, organizerID id.OrganizerID) ([]string, error) {
	users, err := p.records.ListActiveUsersByOrganizer(ctx, tenantID, organizerID, id.RoleOrganizer)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return pkgstrings.DedupeAndTrimLower(userEmails(users)), nil
	}
	organizer, err := p.records.FindOrganizer(ctx, tenantID, organizerID)
	if err != nil {
		return nil, err
	}
	return pkgstrings.DedupeAndTrimLower([]string{organizer.ContactEmail}), nil
}

func userEmails(users []records.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Email)
	}
	return out
}

func renderBody(recipient string, content emailContent, payload Payload) string {
	first, _ := email.DeriveNameFromEmail(recipient)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", first)
	b.WriteString(content.intro)
	b.WriteString("\n")
	if payload.ReviewerNotes != "" {
		fmt.Fprintf(&b, "\nReviewer notes: %s\n", payload.ReviewerNotes)
	}
	b.WriteString("\nThe SponsorHub Team\n")
	return b.String()
}
