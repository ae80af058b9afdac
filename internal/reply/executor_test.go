package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aureaautomations/aurea-chat/internal/events"
	"github.com/Aureaautomations/aurea-chat/internal/llm"
	"github.com/Aureaautomations/aurea-chat/internal/router"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

type fakeLLM struct {
	text    string
	err     error
	calls   int
	lastReq llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func newExecutor(client llm.Client) *Executor {
	return NewExecutor(client, events.NewSink(nil, logging.Default()), logging.Default())
}

func convertInput(msg string, facts router.Facts, summary *sitesummary.BusinessSummary) Input {
	return Input{
		Route:   router.Route{Job: router.JobConvertVisitor, Facts: facts},
		Message: msg,
		Summary: summary,
	}
}

func TestConvertVisitorListsKnownPricing(t *testing.T) {
	client := &fakeLLM{}
	summary := &sitesummary.BusinessSummary{
		Pricing: []sitesummary.PricingItem{
			{Item: "Classic lash set", Price: "$120"},
			{Item: "Fill", Price: "$60", Notes: "within 3 weeks"},
		},
	}

	res := newExecutor(client).Execute(context.Background(), convertInput("how much is a lash set", router.Facts{PricingIntent: true}, summary))

	assert.Contains(t, res.Text, "Classic lash set: $120")
	assert.Contains(t, res.Text, "Fill: $60 (within 3 weeks)")
	assert.Contains(t, res.Text, "Which one are you interested in?")
	assert.False(t, res.ModelUsed)
	assert.Zero(t, client.calls, "pricing must never reach the model")
}

func TestConvertVisitorPricingNotListed(t *testing.T) {
	client := &fakeLLM{}
	res := newExecutor(client).Execute(context.Background(), convertInput("how much does it cost", router.Facts{PricingIntent: true}, &sitesummary.BusinessSummary{}))

	assert.Equal(t, notListedPricing, res.Text)
	assert.Zero(t, client.calls)
}

func TestConvertVisitorAnswersHoursFromSummary(t *testing.T) {
	client := &fakeLLM{}
	summary := &sitesummary.BusinessSummary{Hours: "Tue-Sat 9am-6pm"}

	res := newExecutor(client).Execute(context.Background(), convertInput("what are your hours", router.Facts{}, summary))

	assert.Contains(t, res.Text, "Tue-Sat 9am-6pm")
	assert.Zero(t, client.calls, "hours must never reach the model")
}

func TestConvertVisitorHoursNotListed(t *testing.T) {
	client := &fakeLLM{}
	res := newExecutor(client).Execute(context.Background(), convertInput("are you open sunday", router.Facts{}, nil))

	assert.Equal(t, notListedHours, res.Text)
	assert.Zero(t, client.calls)
}

func TestConvertVisitorDelegatesToModel(t *testing.T) {
	client := &fakeLLM{text: "  We offer lash and brow services. Want to book a visit?  "}
	in := convertInput("tell me about your services", router.Facts{BrowseIntent: true}, &sitesummary.BusinessSummary{BusinessName: "Glow Studio"})
	in.History = []router.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "Hi, I’m Aurea. How can I help?"},
	}

	res := newExecutor(client).Execute(context.Background(), in)

	assert.Equal(t, "We offer lash and brow services. Want to book a visit?", res.Text)
	assert.True(t, res.ModelUsed)
	assert.False(t, res.ModelError)
	require.Equal(t, 1, client.calls)
	assert.Contains(t, strings.Join(client.lastReq.System, "\n\n"), "Glow Studio")
	// Latest message is appended when history doesn't already end with it.
	last := client.lastReq.Messages[len(client.lastReq.Messages)-1]
	assert.Equal(t, llm.ChatRoleUser, last.Role)
	assert.Equal(t, "tell me about your services", last.Content)
}

func TestConvertVisitorDoesNotDuplicateLatestMessage(t *testing.T) {
	client := &fakeLLM{text: "Sure."}
	in := convertInput("tell me more", router.Facts{}, nil)
	in.History = []router.Message{{Role: "user", Content: "tell me more"}}

	newExecutor(client).Execute(context.Background(), in)

	require.Equal(t, 1, client.calls)
	assert.Len(t, client.lastReq.Messages, 1)
}

func TestConvertVisitorModelFailure(t *testing.T) {
	client := &fakeLLM{err: errors.New("model unavailable")}
	res := newExecutor(client).Execute(context.Background(), convertInput("tell me more", router.Facts{}, nil))

	assert.Equal(t, ApologyText, res.Text)
	assert.True(t, res.ModelError)
}

func TestCaptureLeadParagraphByBlockingFact(t *testing.T) {
	tests := []struct {
		name  string
		facts router.Facts
		want  string
	}{
		{"reminder wins", router.Facts{WantsReminderLater: true, NoAvailability: true}, leadReminderText},
		{"no availability", router.Facts{NoAvailability: true, BookingDecline: true}, leadNoAvailabilityText},
		{"decline", router.Facts{BookingDecline: true}, leadDeclineText},
		{"schedule unknown", router.Facts{CannotBookNow: true}, leadScheduleUnknownText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newExecutor(&fakeLLM{}).Execute(context.Background(), Input{
				Route:   router.Route{Job: router.JobCaptureLead, Facts: tt.facts},
				Message: "ok",
			})
			assert.Equal(t, tt.want, res.Text)
			assert.False(t, res.ModelUsed)
		})
	}
}

func TestEscalationGateParagraphByReason(t *testing.T) {
	tests := []struct {
		reason router.EscalationReason
		want   string
	}{
		{router.ReasonSafety, escalationSafetyText},
		{router.ReasonLegalDispute, escalationLegalText},
		{router.ReasonMedical, escalationMedicalText},
		{router.ReasonPrivacyRequest, escalationPrivacyText},
		{router.ReasonStaffComplaint, escalationStaffText},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			res := newExecutor(&fakeLLM{}).Execute(context.Background(), Input{
				Route:    router.Route{Job: router.JobEscalationGate, Facts: router.Facts{EscalationReason: tt.reason}},
				Message:  "I want to complain",
				ClientID: "glow-studio",
			})
			assert.Equal(t, tt.want, res.Text)
			assert.False(t, res.ModelUsed, "escalation must never call the model")
			assert.Contains(t, res.Text, "button below")
		})
	}
}

func TestEscalationTextsNeverResolveTheIssue(t *testing.T) {
	for _, text := range []string{
		escalationSafetyText, escalationLegalText, escalationMedicalText,
		escalationPrivacyText, escalationStaffText,
	} {
		assert.False(t, strings.Contains(strings.ToLower(text), "i can help"), text)
	}
}
