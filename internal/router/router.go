package router

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("aurea/router")

// RouteMessage picks exactly one job for the turn. It is a priority-ordered
// decision list, not a persistent state machine: first match wins, and all
// cross-turn state arrives via Input.Signals. Ties inside a step never need
// scoring because the list order is the tie-break.
func RouteMessage(ctx context.Context, in Input) Route {
	_, span := tracer.Start(ctx, "router.route")
	defer span.End()

	text := strings.TrimSpace(in.Message)
	prior := priorFacts(in.Signals)

	facts := ExtractFacts(text, in.History, in.Signals)
	merged := MergeFacts(prior, facts)

	bookingContext := in.Signals.BookingPageOpened ||
		bookingCtaClicked(in.Signals.LastCtaClicked) ||
		prior.BookingIntent ||
		historyShowsBookingIntent(in.History)

	route := decide(text, facts, merged, bookingContext, in)

	span.SetAttributes(
		attribute.String("router.job", string(route.Job)),
		attribute.String("router.cta", string(route.CTA.Type)),
		attribute.String("router.escalation_reason", string(route.Facts.EscalationReason)),
		attribute.Bool("router.booking_blocked", route.Facts.BookingBlocked),
	)

	return route
}

func decide(text string, facts, merged Facts, bookingContext bool, in Input) Route {
	// 1) Escalation gate always outranks everything, booking included.
	if reason := DetectEscalation(text); reason != "" {
		merged.EscalationReason = reason
		return Route{Job: JobEscalationGate, Facts: merged, CTA: CTA{Type: CtaEscalate}}
	}

	// 2) Refill-cancellations and retain-rebook are reserved for outbound
	// channels; nothing routes to them from the widget.

	// 3) Execute booking, fresh entry. Only when no blocking fact is set and
	// the visitor is clearly in (or entering) time selection.
	noBlockers := !facts.NoAvailability &&
		!facts.BookingDecline &&
		!facts.CannotBookNow &&
		!facts.WantsReminderLater &&
		!merged.BookingBlocked

	if noBlockers &&
		(bookingCtaClicked(in.Signals.LastCtaClicked) ||
			in.Signals.BookingPageOpened ||
			(facts.BookingIntent && facts.TimeSelectionIntent) ||
			(reReadyConfirm.MatchString(text) && facts.TimeSelectionIntent)) {
		return Route{Job: JobExecuteBooking, Facts: merged, CTA: CTA{Type: CtaChooseTime}}
	}

	// 4) Sticky continuation: a single ambiguous utterance must not bounce
	// the visitor out of an active booking flow.
	bookingInProgress := merged.BookingIntent || historyShowsBookingIntent(in.History)
	if bookingInProgress && noBlockers &&
		(bookingCtaClicked(in.Signals.LastCtaClicked) ||
			in.Signals.BookingPageOpened ||
			facts.TimeSelectionIntent) {
		merged.BookingIntent = true
		return Route{Job: JobExecuteBooking, Facts: merged, CTA: CTA{Type: CtaChooseTime}}
	}

	// 5) Capture lead, one-shot per conversation. The caller must flip
	// Signals.LeadOfferMade after this fires or it will re-trigger.
	if (facts.NoAvailability ||
		facts.BookingDecline ||
		facts.WantsReminderLater ||
		(facts.CannotBookNow && bookingContext)) &&
		!in.Signals.LeadOfferMade {
		return Route{Job: JobCaptureLead, Facts: merged, CTA: CTA{Type: CtaLeaveContact}}
	}

	// 6) Convert visitor, the total default. Post-lead-capture, browsing and
	// pricing turns point at leaving contact info instead of booking.
	cta := CtaBookNow
	if facts.AfterLeadCapture || facts.BrowseIntent || rePricingIntent.MatchString(text) {
		cta = CtaLeaveContact
	}
	return Route{Job: JobConvertVisitor, Facts: merged, CTA: CTA{Type: cta}}
}

// ApplyJobDisable forces the fail-safe default when a tenant has disabled the
// resolved job. Never fail closed: a disabled job becomes a plain convert
// turn, not an error.
func ApplyJobDisable(route Route, disabled map[string]bool) Route {
	if disabled[string(route.Job)] {
		route.Job = JobConvertVisitor
		route.CTA = CTA{Type: CtaBookNow}
	}
	return route
}

// ReminderOverride forcibly reroutes a turn to capture-lead when reminder
// language was detected, regardless of what the priority list selected.
// Escalation still wins; everything else is abandoned, including an active
// booking flow (known product ambiguity, kept as shipped).
func ReminderOverride(route Route) Route {
	if route.Job == JobEscalationGate {
		return route
	}
	route.Facts.WantsReminderLater = true
	route.Job = JobCaptureLead
	route.CTA = CTA{Type: CtaLeaveContact}
	return route
}
