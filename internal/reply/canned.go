package reply

import "github.com/Aureaautomations/aurea-chat/internal/router"

// Lead-capture paragraphs, keyed by the blocking fact that opened the job.
// No model is involved anywhere in this file.
const (
	leadReminderText = "Happy to have the team follow up when the timing is better. Tap “Leave contact info” below and they’ll reach out to you."

	leadScheduleUnknownText = "No rush at all. Leave your contact info with the button below and the team can reach out once you’ve had a chance to check your schedule."

	leadNoAvailabilityText = "Sorry none of those times work. Leave your contact info with the button below and the team will let you know the moment something opens up."

	leadDeclineText = "Totally fine. If you’d like, leave your contact info with the button below and the team can follow up whenever it suits you."
)

func captureLeadText(facts router.Facts) string {
	switch {
	case facts.WantsReminderLater:
		return leadReminderText
	case facts.NoAvailability:
		return leadNoAvailabilityText
	case facts.BookingDecline:
		return leadDeclineText
	case facts.CannotBookNow:
		return leadScheduleUnknownText
	}
	return leadScheduleUnknownText
}

// Escalation paragraphs, keyed by reason. The assistant never tries to
// resolve the underlying issue; it hands over.
const (
	escalationSafetyText = "This sounds serious and a person should handle it directly. Please use the button below to contact the team right away."

	escalationLegalText = "Billing and legal matters need someone with account access. Please use the button below to contact the team and they’ll take it from there."

	escalationMedicalText = "I can’t give medical guidance. Please use the button below to contact the team and they’ll connect you with someone qualified to help."

	escalationPrivacyText = "Data and privacy requests go straight to the team. Please use the button below to contact them and they’ll handle your request."

	escalationStaffText = "I’m sorry you had that experience. The team takes this seriously. Please use the button below to contact them directly."
)

func escalationText(reason router.EscalationReason) string {
	switch reason {
	case router.ReasonSafety:
		return escalationSafetyText
	case router.ReasonLegalDispute:
		return escalationLegalText
	case router.ReasonMedical:
		return escalationMedicalText
	case router.ReasonPrivacyRequest:
		return escalationPrivacyText
	case router.ReasonStaffComplaint:
		return escalationStaffText
	}
	return escalationSafetyText
}
