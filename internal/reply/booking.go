package reply

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Aureaautomations/aurea-chat/internal/llm"
	"github.com/Aureaautomations/aurea-chat/internal/router"
)

// HandoffSentence is the canonical hand-over to the external booking
// surface. The tail validator accepts it byte-for-byte or not at all.
const HandoffSentence = "Tap “Choose a time” below and pick the slot that works best for you."

// maxTailLen bounds a model-generated tail question.
const maxTailLen = 160

// Hedging language that means "not right now" rather than "not this slot".
var reHedge = regexp.MustCompile(`(?i)\b(never ?mind|not yet|maybe later|not now|another time|some other time|hold off|forget it|actually no)\b`)

var reTailURL = regexp.MustCompile(`(?i)(https?://|www\.)`)

// executeBooking assembles acknowledgment + tail. The acknowledgment is
// computed purely from facts; the tail may come from the model but only
// survives if it passes the grammar gate.
func (e *Executor) executeBooking(ctx context.Context, in Input) Result {
	facts := in.Route.Facts
	ack := bookingAck(in.Message, facts)
	fallback := bookingTail(facts)

	if fallback == HandoffSentence {
		// Nothing left to ask; no reason to involve the model.
		return Result{Text: ack + " " + fallback}
	}

	tail, modelErr := e.modelTail(ctx, in, fallback)
	if modelErr {
		return Result{Text: ApologyText, ModelUsed: true, ModelError: true}
	}
	if !ValidTail(tail) {
		tail = fallback
	}
	return Result{Text: ack + " " + tail, ModelUsed: true}
}

// bookingAck echoes whatever scheduling facts the conversation has pinned
// down. Pure deferral gets exactly "No problem." with no echo.
func bookingAck(message string, facts router.Facts) string {
	if reHedge.MatchString(message) && !router.DetectsBookingIntent(message) {
		return "No problem."
	}
	switch {
	case facts.DesiredDay != "" && facts.DesiredTimeWindow != "":
		return fmt.Sprintf("Got it, %s %s.", facts.DesiredDay, facts.DesiredTimeWindow)
	case facts.DesiredDay != "":
		return fmt.Sprintf("Got it, %s.", facts.DesiredDay)
	case facts.DesiredTimeWindow != "":
		return fmt.Sprintf("Got it, %s works.", facts.DesiredTimeWindow)
	}
	return "Great, let’s get you booked."
}

// bookingTail is the deterministic tail: the one missing-field question, or
// the handoff once both fields are pinned down.
func bookingTail(facts router.Facts) string {
	switch {
	case facts.DesiredDay == "":
		return "What day works best for you?"
	case facts.DesiredTimeWindow == "":
		return "Do mornings or afternoons usually work better?"
	}
	return HandoffSentence
}

func (e *Executor) modelTail(ctx context.Context, in Input, fallback string) (string, bool) {
	resp, err := e.llm.Complete(ctx, llm.Request{
		System: []string{
			systemPrompt,
			"You are in the middle of a booking flow. Reply with exactly one short clarifying question about scheduling, nothing else. The question to cover: " + fallback,
		},
		Messages: []llm.ChatMessage{
			{Role: llm.ChatRoleUser, Content: strings.TrimSpace(in.Message)},
		},
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		e.log.Error("booking tail model call failed", "error", err)
		return "", true
	}
	return strings.TrimSpace(resp.Text), false
}

// ValidTail enforces the tail grammar: a single sentence that asks exactly
// one question in at most 160 characters with no links, or the canonical
// handoff sentence unmodified.
func ValidTail(tail string) bool {
	if tail == HandoffSentence {
		return true
	}
	if tail == "" || len(tail) > maxTailLen {
		return false
	}
	if !strings.HasSuffix(tail, "?") || strings.Count(tail, "?") != 1 {
		return false
	}
	if strings.ContainsAny(tail, "\n") {
		return false
	}
	// A terminator anywhere before the final "?" means more than one
	// sentence slipped in.
	if strings.ContainsAny(strings.TrimSuffix(tail, "?"), ".!?") {
		return false
	}
	if reTailURL.MatchString(tail) {
		return false
	}
	return true
}
