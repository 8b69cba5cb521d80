package lifecycle

import (
	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/records"
)

// computeProgress scores an entity's lifecycle. Steps:
//
//	1 for creation, always complete
//	1 for the verification review, complete once a decision exists
//	  (rejection is a completed review, not a failure)
//	1 per sponsorship, always complete
//	2 per proposal: submission (complete when submitted) and decision
//	  (complete on any terminal status)
//	1 per email log row, complete only when SENT; a FAILED row widens the
//	  total without completing, which is what surfaces delivery gaps
func computeProgress(status records.VerificationStatus, sponsorships []records.Sponsorship, proposals []records.Proposal, emails []emaillog.Entry) Progress {
	p := Progress{TotalSteps: 1, CompletedSteps: 1}

	p.TotalSteps++
	if status.IsReviewed() {
		p.CompletedSteps++
	}

	p.TotalSteps += len(sponsorships)
	p.CompletedSteps += len(sponsorships)

	for _, proposal := range proposals {
		p.TotalSteps++
		if proposal.SubmittedAt != nil {
			p.CompletedSteps++
		}
		p.TotalSteps++
		if proposal.Status.IsTerminal() {
			p.CompletedSteps++
		}
	}

	for _, e := range emails {
		p.TotalSteps++
		if e.Status == emaillog.StatusSent {
			p.CompletedSteps++
		}
	}

	return p.withPercentage()
}

func computeStats(sponsorships []records.Sponsorship, proposals []records.Proposal, emails []emaillog.Entry) Stats {
	s := Stats{
		Sponsorships: len(sponsorships),
		Proposals:    len(proposals),
	}
	for _, p := range proposals {
		switch p.Status {
		case records.ProposalApproved:
			s.ApprovedProposals++
		case records.ProposalRejected:
			s.RejectedProposals++
		}
	}
	for _, e := range emails {
		if e.Status == emaillog.StatusSent {
			s.EmailsSent++
		} else {
			s.EmailsFailed++
		}
	}
	return s
}
