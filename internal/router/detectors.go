package router

import "regexp"

// Keyword/regex detectors. Kept tight and auditable: every routing decision
// must be explainable by pointing at one of these.
var (
	reEscalationSafety = regexp.MustCompile(`(?i)\b(threat(en)?|kill|hurt|attack|violence|weapon|stalk(ing)?|harass(ment)?|unsafe|danger)\b`)

	reEscalationLegal = regexp.MustCompile(`(?i)\b(chargeback|dispute|lawsuit|sue|attorney|lawyer|legal action|fraud|scam|report you)\b`)

	reEscalationMedical = regexp.MustCompile(`(?i)\b(diagnose|diagnosis|medical advice|treat(ment)? advice|is it safe|contraindication|pregnan(t|cy)|symptom(s)?)\b`)

	reEscalationPrivacy = regexp.MustCompile(`(?i)\b(delete my data|remove my data|privacy request|PIPEDA|PHIPA|HIPAA|GDPR)\b`)

	reEscalationStaffComplaint = regexp.MustCompile(`(?i)\b(complain(t)?|complaint|rude|unprofessional|assault|inappropriate|touched me|injured me|refund)\b`)

	reCannotBookNow = regexp.MustCompile(`(?i)\b(i\s*(do\s*not|don'?t)\s*(know|have)\s*(my\s*)?(availability|schedule)|i\s*(do\s*not|don'?t)\s*(know|have)\s*when\s*i'?m\s*free|(not|n'?t)\s*sure(\s*yet)?(\s*when\s*i'?m\s*free)?|need\s*to\s*check(\s*my)?\s*(availability|schedule)|have\s*to\s*check(\s*my)?\s*(availability|schedule)|let\s*me\s*check(\s*my)?\s*(availability|schedule)|i\s*need\s*to\s*look\s*at\s*my\s*schedule|i\s*have\s*to\s*look\s*at\s*my\s*schedule|i\s*(do\s*not|don'?t)\s*know\s*yet|not\s*sure\s*yet)\b`)

	reBookingIntent = regexp.MustCompile(`(?i)\b(book|booking|schedule|appointment|times?|today|tomorrow|this week|next week)\b`)

	// Booking DELAY = explicit deferral (NOT rescheduling or time preference)
	reBookingDelay = regexp.MustCompile(`(?i)\b(not yet|maybe later|not now|another time|some other time|i[' ]?ll (book|schedule) (later|another time)|i[' ]?ll do it later|in a bit)\b`)

	reReminderIntent = regexp.MustCompile(`(?i)\b(remind|reminder|notify|notification|follow\s*up|check\s*back|touch\s*back|touch\s*base|circle\s*back|reach\s*out|ping\s*me)\b`)

	// Booking DECLINE (exit the booking flow)
	reBookingDecline = regexp.MustCompile(`(?i)\b(no thanks|no thank you|nah|nope|don'?t want to book|not booking|stop|leave me alone)\b`)

	reNoAvailability = regexp.MustCompile(`(?i)\b(no times|nothing available|fully booked|no availability|sold out)\b`)

	// Bare "ready" confirmations, only meaningful inside time selection
	reReadyConfirm = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|ok(ay)?|let'?s do it|book it)\s*$`)

	reDuration    = regexp.MustCompile(`(?i)\b(30|45|60|75|90)\s*(min|mins|minutes)\b`)
	reServiceHint = regexp.MustCompile(`(?i)\b(service|treatment|session|package|plan|membership|add-?on|upgrade)\b`)

	rePricingIntent = regexp.MustCompile(`(?i)\b(prices?|pricing|costs?|rates?|fee|fees|how much|plans?)\b`)

	reDayHint         = regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|this week|next week)\b`)
	reTimeWindow      = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|tonight)\b`)
	reServiceInterest = regexp.MustCompile(`(?i)\b(sms|text|email|re-?engagement|welcome|lead capture|reminders?|reviews?)\b`)

	reTimeSelection = regexp.MustCompile(`(?i)\b(choose a time|pick a time|select a time|what (day|time)|when (are you|is)|available times?|openings?|slots?)\b`)

	reBrowseIntent = regexp.MustCompile(`(?i)\b(just browsing|just looking|browsing|looking around|curious|info|information|tell me about|what do you offer|services|how does it work|website( link)?|site( link)?|url|link)\b`)

	reFirstTime = regexp.MustCompile(`(?i)\b(first time|new (client|customer)|never been)\b`)

	// Looser than reBookingIntent on purpose: scanning history for evidence
	// that a booking conversation happened at all.
	reHistoryBooking = regexp.MustCompile(`(?i)\b(book|booking|consultation|schedule|appointment|call)\b`)
)

// escalationDetectors is the fixed escalation priority: safety outranks
// legal, legal outranks medical, and so on. At most one reason is ever
// reported per turn.
var escalationDetectors = []struct {
	reason EscalationReason
	re     *regexp.Regexp
}{
	{ReasonSafety, reEscalationSafety},
	{ReasonLegalDispute, reEscalationLegal},
	{ReasonMedical, reEscalationMedical},
	{ReasonPrivacyRequest, reEscalationPrivacy},
	{ReasonStaffComplaint, reEscalationStaffComplaint},
}

// DetectEscalation returns the highest-priority escalation reason matching
// the text, or "" when none fire.
func DetectEscalation(text string) EscalationReason {
	for _, d := range escalationDetectors {
		if d.re.MatchString(text) {
			return d.reason
		}
	}
	return ""
}

// DetectsReminderIntent reports whether the text contains reminder/follow-up
// language. The chat pipeline uses this for the forced capture-lead override.
func DetectsReminderIntent(text string) bool {
	return reReminderIntent.MatchString(text)
}

// DetectsBookingIntent reports in-turn booking language. Reply construction
// uses this to distinguish "not yet" from "not tomorrow, Friday instead".
func DetectsBookingIntent(text string) bool {
	return reBookingIntent.MatchString(text)
}

// DetectsBookingDelay reports explicit deferral language.
func DetectsBookingDelay(text string) bool {
	return reBookingDelay.MatchString(text)
}
