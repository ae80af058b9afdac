package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFactsDayAndWindow(t *testing.T) {
	facts := ExtractFacts("can I come in friday morning?", nil, Signals{})
	assert.Equal(t, "friday", facts.DesiredDay)
	assert.Equal(t, "morning", facts.DesiredTimeWindow)
	assert.True(t, facts.TimeSelectionIntent)
}

func TestExtractFactsFallsBackToLastUserMessage(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "does saturday evening work?"},
		{Role: "assistant", Content: "Let me check."},
	}
	facts := ExtractFacts("great", history, Signals{})
	assert.Equal(t, "saturday", facts.DesiredDay)
	assert.Equal(t, "evening", facts.DesiredTimeWindow)
}

func TestExtractFactsPricingExcludedByBrowse(t *testing.T) {
	facts := ExtractFacts("just browsing, what are your prices?", nil, Signals{})
	assert.True(t, facts.BrowseIntent)
	assert.False(t, facts.PricingIntent, "browse language suppresses the pricing fact")

	facts = ExtractFacts("what are your prices?", nil, Signals{})
	assert.True(t, facts.PricingIntent)
}

func TestExtractFactsWantsReminderLater(t *testing.T) {
	bookingSignals := Signals{LastCtaClicked: string(CtaBookNow)}

	facts := ExtractFacts("can you remind me next month?", nil, bookingSignals)
	assert.True(t, facts.WantsReminderLater)

	// Reminder language without booking context does not set the fact.
	facts = ExtractFacts("can you remind me next month?", nil, Signals{})
	assert.False(t, facts.WantsReminderLater)

	// A decline wins over reminder phrasing.
	facts = ExtractFacts("no thanks, maybe remind me", nil, bookingSignals)
	assert.False(t, facts.WantsReminderLater)
	assert.True(t, facts.BookingDecline)
}

func TestMergeFactsLatchesBookingBlocked(t *testing.T) {
	prior := Facts{BookingBlocked: true}

	merged := MergeFacts(prior, Facts{})
	assert.True(t, merged.BookingBlocked)

	merged = MergeFacts(prior, Facts{BookingIntent: true})
	assert.False(t, merged.BookingBlocked, "fresh booking intent clears the latch")

	merged = MergeFacts(Facts{}, Facts{NoAvailability: true})
	assert.True(t, merged.BookingBlocked, "no availability always sets the latch")
}

func TestMergeFactsServiceInterestResetsEachTurn(t *testing.T) {
	prior := Facts{ServiceInterest: "sms", DesiredDay: "monday"}
	merged := MergeFacts(prior, Facts{})

	assert.Empty(t, merged.ServiceInterest)
	assert.Equal(t, "monday", merged.DesiredDay)
}

func TestDetectEscalationOrderIsFixed(t *testing.T) {
	// Every detector fires on this text; only the highest-priority reason is
	// reported.
	text := "threat lawsuit diagnosis GDPR rude"
	assert.Equal(t, ReasonSafety, DetectEscalation(text))
	assert.Equal(t, EscalationReason(""), DetectEscalation("I love this place"))
}

func TestLastUserMessage(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}
	assert.Equal(t, "second", LastUserMessage(history))
	assert.Equal(t, "", LastUserMessage(nil))
}
