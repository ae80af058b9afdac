// Package guard post-processes model-generated replies before they reach the
// widget. It is the last line of defense against hallucinated hours, pricing,
// capability claims and in-chat contact collection.
package guard

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Aureaautomations/aurea-chat/internal/router"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
)

var tracer = otel.Tracer("aurea/guard")

// Rewrite reasons attached to filter results and audit events.
const (
	ReasonContactInChat   = "ASKS_FOR_CONTACT_IN_CHAT"
	ReasonCantFindLink    = "CANT_FIND_BOOKING_OR_CONTACT"
	ReasonCapabilityDrift = "CAPABILITY_DRIFT"
	ReasonHoursNoSource   = "HOURS_WITHOUT_SOURCE"
	ReasonPricingNoSource = "PRICING_WITHOUT_SOURCE"
)

// Input is a model-produced reply plus the context needed to judge it.
type Input struct {
	Reply           string
	CtaType         router.CtaType
	CtaURL          string
	BusinessSummary *sitesummary.BusinessSummary
}

// Result is the filtered reply. Changed is false when the text passed
// untouched, which also makes the filter idempotent: running it again on its
// own output changes nothing.
type Result struct {
	Text    string   `json:"text"`
	Changed bool     `json:"changed"`
	Reasons []string `json:"reasons"`
}

var (
	// Asking for or collecting contact info in chat.
	reContactAsk1 = regexp.MustCompile(`\b(leave|drop|share|send)\s+(your\s+)?(phone|number|email)\b`)
	reContactAsk2 = regexp.MustCompile(`\bwhat('?s| is)\s+your\s+(phone|number|email)\b`)
	reContactAsk3 = regexp.MustCompile(`\b(can you|please)\s+(give|share|send)\s+(me\s+)?(your\s+)?(phone|number|email)\b`)
	reContactAsk4 = regexp.MustCompile(`\b(text|sms|email)\s+me\s+at\b`)
	reContactAsk5 = regexp.MustCompile(`\b(contact\s*info|your\s*contact\s*info|leave\s*(your\s*)?contact\s*info)\b`)

	// Claims the assistant must not make: it cannot text, call, remind, or
	// book anything itself.
	reDrift1 = regexp.MustCompile(`\b(i('| a)?ll|we('| a)?ll)\s+(text|sms|email|call)\b`)
	reDrift2 = regexp.MustCompile(`\b(i|we)\s+can\s+(text|sms|email|call)\b`)
	reDrift3 = regexp.MustCompile(`\b(i|we)\s+will\s+remind\b`)
	reDrift4 = regexp.MustCompile(`\b(set up|schedule)\s+(a\s+)?reminder\b`)
	reDrift5 = regexp.MustCompile(`\b(i|we)\s+(booked|scheduled)\s+(you|it)\b`)
	reDrift6 = regexp.MustCompile(`\b(i|we)\s+confirmed\s+(your\s+)?appointment\b`)

	reCantFind1 = regexp.MustCompile(`\b(can'?t|cannot|couldn'?t|unable to)\s+(find|see|locate)\b`)
	reCantFind2 = regexp.MustCompile(`\b(i don'?t see)\s+(a\s+)?(booking|contact)\b`)
	reCantFind3 = regexp.MustCompile(`\b(no\s+booking\s+link|no\s+contact\s+link)\b`)

	rePriceDollar  = regexp.MustCompile(`\$\s*\d`)
	rePriceWords   = regexp.MustCompile(`\b\d+\s*(dollars|cad|usd)\b`)
	rePriceFrom    = regexp.MustCompile(`\b(from|starting at|only)\s*\$?\s*\d`)
	reHoursWords   = regexp.MustCompile(`\b(hours?|open|opens|opening|close|closes|closing)\b`)
	reHoursClock   = regexp.MustCompile(`\b\d{1,2}(:\d{2})?\s*(am|pm)\b`)
	reHoursWeekday = regexp.MustCompile(`\b(mon|tue|wed|thu|fri|sat|sun)(day)?\b`)
	reHoursSignal  = regexp.MustCompile(`\b(open|close|am|pm)\b`)
)

func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

func containsContactCollection(text string) bool {
	t := strings.ToLower(text)
	return reContactAsk1.MatchString(t) ||
		reContactAsk2.MatchString(t) ||
		reContactAsk3.MatchString(t) ||
		reContactAsk4.MatchString(t) ||
		reContactAsk5.MatchString(t)
}

func containsCapabilityDrift(text string) bool {
	t := strings.ToLower(text)
	return reDrift1.MatchString(t) ||
		reDrift2.MatchString(t) ||
		reDrift3.MatchString(t) ||
		reDrift4.MatchString(t) ||
		reDrift5.MatchString(t) ||
		reDrift6.MatchString(t)
}

func containsCantFindLinkLanguage(text string) bool {
	t := strings.ToLower(text)
	return reCantFind1.MatchString(t) || reCantFind2.MatchString(t) || reCantFind3.MatchString(t)
}

func containsPricingClaim(text string) bool {
	t := strings.ToLower(text)
	return rePriceDollar.MatchString(t) || rePriceWords.MatchString(t) || rePriceFrom.MatchString(t)
}

func containsHoursClaim(text string) bool {
	t := strings.ToLower(text)
	if reHoursWords.MatchString(t) {
		return true
	}
	if reHoursClock.MatchString(t) {
		return true
	}
	if reHoursWeekday.MatchString(t) && reHoursSignal.MatchString(t) {
		return true
	}
	return false
}

// SafeCTAInstruction is the single source of truth for "what to say instead"
// when a reply has to be rewritten. If there is no CTA URL it never tells the
// visitor to tap a button.
func SafeCTAInstruction(ctaType router.CtaType, ctaURL string) string {
	if strings.TrimSpace(ctaURL) == "" {
		return "I can help with services, pricing, or how booking works — what do you want to know?"
	}
	switch ctaType {
	case router.CtaLeaveContact:
		return "Tap “Leave contact info” and the team will follow up."
	case router.CtaEscalate:
		return "Please use the button below to contact the team."
	default:
		return "Tap “Book now” to choose an available time."
	}
}

// Apply runs the ordered rule set over a reply. Rules are independent but
// order-sensitive: later rules see the output of earlier ones, so one reply
// can be rewritten several times in a single pass. The CTA type and URL are
// never changed here, only the text.
func Apply(ctx context.Context, in Input) Result {
	_, span := tracer.Start(ctx, "guard.apply")
	defer span.End()

	text := normalize(in.Reply)
	original := text
	var reasons []string

	set := func(next, reason string) {
		next = normalize(next)
		if next != "" && next != text {
			text = next
		}
		reasons = append(reasons, reason)
	}

	// 1) In-chat contact capture language
	if containsContactCollection(text) {
		set(SafeCTAInstruction(in.CtaType, in.CtaURL), ReasonContactInChat)
	}

	// 2) "can't find booking/contact". We either have a verified link or we
	// don't mention one; we never claim to be unable to locate it.
	if containsCantFindLinkLanguage(text) {
		set(SafeCTAInstruction(in.CtaType, in.CtaURL), ReasonCantFindLink)
	}

	// 3) Capability drift (text/email/call/remind/booked/confirmed)
	if containsCapabilityDrift(text) {
		set(SafeCTAInstruction(in.CtaType, in.CtaURL), ReasonCapabilityDrift)
	}

	// 4) Hours guard: only allowed when the business summary carries hours.
	hasHours := in.BusinessSummary != nil && strings.TrimSpace(in.BusinessSummary.Hours) != ""
	if !hasHours && containsHoursClaim(text) {
		set("I don’t see hours listed on this page. "+SafeCTAInstruction(in.CtaType, in.CtaURL), ReasonHoursNoSource)
	}

	// 5) Pricing guard: numeric pricing is blocked only when no pricing data
	// exists.
	hasPricing := in.BusinessSummary != nil && len(in.BusinessSummary.Pricing) > 0
	if !hasPricing && containsPricingClaim(text) {
		set("I don’t see pricing listed on this page. What are you looking for—services, how it works, or booking?", ReasonPricingNoSource)
	}

	changed := text != original
	span.SetAttributes(
		attribute.Bool("guard.changed", changed),
		attribute.StringSlice("guard.reasons", reasons),
	)

	return Result{Text: text, Changed: changed, Reasons: reasons}
}
