// Package router implements the deterministic pre-model router: it derives
// per-turn facts from the visitor's message and picks exactly one job for the
// turn. No model calls happen in here.
package router

import "time"

// Job is one of the fixed conversational objectives the assistant pursues for
// a single turn. The set is closed; reply construction switches over it
// exhaustively.
type Job string

const (
	JobConvertVisitor      Job = "JOB_1_CONVERT_VISITOR"
	JobExecuteBooking      Job = "JOB_2_EXECUTE_BOOKING"
	JobIncreaseABV         Job = "JOB_3_INCREASE_ABV"
	JobCaptureLead         Job = "JOB_4_CAPTURE_LEAD"
	JobRefillCancellations Job = "JOB_5_REFILL_CANCELLATIONS"
	JobRetainRebook        Job = "JOB_6_RETAIN_REBOOK"
	JobEscalationGate      Job = "JOB_7_ESCALATION_GATE"
)

// CtaType identifies the single actionable button offered to the visitor.
type CtaType string

const (
	CtaBookNow        CtaType = "BOOK_NOW"
	CtaChooseTime     CtaType = "CHOOSE_TIME"
	CtaConfirmBooking CtaType = "CONFIRM_BOOKING"
	CtaLeaveContact   CtaType = "LEAVE_CONTACT"
	CtaEscalate       CtaType = "ESCALATE"
)

// EscalationReason classifies why a turn was handed to a human channel.
type EscalationReason string

const (
	ReasonSafety         EscalationReason = "SAFETY"
	ReasonLegalDispute   EscalationReason = "LEGAL_DISPUTE"
	ReasonMedical        EscalationReason = "MEDICAL"
	ReasonPrivacyRequest EscalationReason = "PRIVACY_REQUEST"
	ReasonStaffComplaint EscalationReason = "STAFF_COMPLAINT"
)

// Message is one entry of the conversation history the widget sends along.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Facts are the deterministic booleans/strings derived from the current turn,
// merged onto the prior turn's facts. They are the conversation's accumulated
// memory, distinct from the raw history.
type Facts struct {
	BookingIntent       bool             `json:"bookingIntent"`
	ReminderIntent      bool             `json:"reminderIntent"`
	WantsReminderLater  bool             `json:"wantsReminderLater"`
	BookingDecline      bool             `json:"bookingDecline"`
	CannotBookNow       bool             `json:"cannotBookNow"`
	NoAvailability      bool             `json:"noAvailability"`
	AfterLeadCapture    bool             `json:"afterLeadCapture"`
	BrowseIntent        bool             `json:"browseIntent"`
	PricingIntent       bool             `json:"pricingIntent"`
	HasServiceSelected  bool             `json:"hasServiceSelected"`
	DesiredDay          string           `json:"desiredDay,omitempty"`
	DesiredTimeWindow   string           `json:"desiredTimeWindow,omitempty"`
	ServiceInterest     string           `json:"serviceInterest,omitempty"`
	TimeSelectionIntent bool             `json:"timeSelectionIntent"`
	FirstTimeLikely     bool             `json:"firstTimeLikely"`
	UpgradeEligible     bool             `json:"upgradeEligible"`
	BookingBlocked      bool             `json:"bookingBlocked"`
	EscalationReason    EscalationReason `json:"escalationReason,omitempty"`
}

// Signals is the caller-persisted state bridging turns: CTA clicks, page
// opens, the one-shot lead-offer flag, and the prior turn's facts. The server
// holds none of this; it travels with every request.
type Signals struct {
	LastCtaClicked    string `json:"lastCtaClicked,omitempty"`
	BookingPageOpened bool   `json:"bookingPageOpened,omitempty"`
	ContactPageOpened bool   `json:"contactPageOpened,omitempty"`
	LeadOfferMade     bool   `json:"leadOfferMade,omitempty"`
	LastJob           Job    `json:"lastJob,omitempty"`
	RouterFacts       *Facts `json:"routerFacts,omitempty"`
}

// CTA carries the call-to-action type selected for the turn. The URL is
// resolved separately.
type CTA struct {
	Type CtaType `json:"type"`
}

// Route is the router's per-turn output. Its Facts become the next turn's
// prior facts via Signals.RouterFacts.
type Route struct {
	Job   Job   `json:"job"`
	Facts Facts `json:"facts"`
	CTA   CTA   `json:"cta"`
}

// Input is everything the router looks at for one turn.
type Input struct {
	Message string
	History []Message
	Signals Signals
	Channel string // defaults to "widget"
}

// bookingCtaClicked reports whether the last clicked CTA was one of the
// booking-category buttons.
func bookingCtaClicked(lastCta string) bool {
	switch CtaType(lastCta) {
	case CtaBookNow, CtaChooseTime, CtaConfirmBooking:
		return true
	}
	return false
}
