package router

import (
	"regexp"
	"strings"
)

// LastUserMessage returns the content of the most recent user entry in the
// history, or "".
func LastUserMessage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" && history[i].Content != "" {
			return history[i].Content
		}
	}
	return ""
}

// historyShowsBookingIntent scans the most recent user messages for any sign
// that a booking conversation happened.
func historyShowsBookingIntent(history []Message) bool {
	recent := history
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	for _, m := range recent {
		if !strings.EqualFold(m.Role, "user") {
			continue
		}
		if reHistoryBooking.MatchString(m.Content) {
			return true
		}
	}
	return false
}

// priorFacts returns the facts carried forward by the caller, or a zero value.
func priorFacts(s Signals) Facts {
	if s.RouterFacts != nil {
		return *s.RouterFacts
	}
	return Facts{}
}

// ExtractFacts derives the per-turn facts from the current message, the last
// user message in history, and the caller-supplied signals. It is a pure
// function: every detector is evaluated independently, so several facts can
// be true at once.
func ExtractFacts(text string, history []Message, signals Signals) Facts {
	text = strings.TrimSpace(text)
	lastUser := LastUserMessage(history)
	prior := priorFacts(signals)

	bookingContext := signals.BookingPageOpened ||
		bookingCtaClicked(signals.LastCtaClicked) ||
		prior.BookingIntent ||
		historyShowsBookingIntent(history)

	facts := Facts{
		BookingIntent: reBookingIntent.MatchString(text) ||
			reBookingIntent.MatchString(lastUser) ||
			bookingCtaClicked(signals.LastCtaClicked) ||
			signals.BookingPageOpened,

		ReminderIntent: reReminderIntent.MatchString(text),

		WantsReminderLater: bookingContext &&
			(reBookingDelay.MatchString(text) || reReminderIntent.MatchString(text)) &&
			!reCannotBookNow.MatchString(text) &&
			!reBookingDecline.MatchString(text) &&
			!reNoAvailability.MatchString(text),

		// Decline means "do not continue the booking flow". "No availability"
		// is NOT a decline; it is a capture-lead scenario.
		BookingDecline: bookingContext &&
			reBookingDecline.MatchString(text) &&
			!reBrowseIntent.MatchString(text) &&
			!reNoAvailability.MatchString(text),

		CannotBookNow:  reCannotBookNow.MatchString(text),
		NoAvailability: reNoAvailability.MatchString(text),

		AfterLeadCapture: signals.LeadOfferMade,

		BrowseIntent:  reBrowseIntent.MatchString(text),
		PricingIntent: rePricingIntent.MatchString(text) && !reBrowseIntent.MatchString(text),

		HasServiceSelected: reDuration.MatchString(text) ||
			reServiceHint.MatchString(text) ||
			reServiceInterest.MatchString(text),

		DesiredDay:        firstMatch(reDayHint, text, lastUser),
		DesiredTimeWindow: firstMatch(reTimeWindow, text, lastUser),
		ServiceInterest:   firstMatch(reServiceInterest, text, ""),

		TimeSelectionIntent: reDayHint.MatchString(text) ||
			reTimeWindow.MatchString(text) ||
			reTimeSelection.MatchString(text),

		FirstTimeLikely: reFirstTime.MatchString(text),

		// Upsell eligibility is deliberately never derived from text; the ABV
		// job stays disabled.
		UpgradeEligible: false,

		BookingBlocked: prior.BookingBlocked,
	}

	return facts
}

// MergeFacts layers this turn's facts onto the prior turn's. New non-zero
// values win; desiredDay/desiredTimeWindow persist until re-extracted;
// serviceInterest and pricingIntent reset each turn. bookingBlocked latches:
// once noAvailability fires it stays set until a fresh booking intent clears
// it.
func MergeFacts(prior, cur Facts) Facts {
	merged := cur

	if merged.DesiredDay == "" {
		merged.DesiredDay = prior.DesiredDay
	}
	if merged.DesiredTimeWindow == "" {
		merged.DesiredTimeWindow = prior.DesiredTimeWindow
	}

	merged.BookingBlocked = (prior.BookingBlocked && !cur.BookingIntent) || cur.NoAvailability

	// Escalation reasons never persist across turns. A fresh reason is
	// stamped by the route step when this turn is actively escalating.
	merged.EscalationReason = ""

	return merged
}

func firstMatch(re *regexp.Regexp, text, fallback string) string {
	if m := re.FindString(text); m != "" {
		return m
	}
	if fallback != "" {
		return re.FindString(fallback)
	}
	return ""
}
