package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aureaautomations/aurea-chat/internal/clients"
	"github.com/Aureaautomations/aurea-chat/internal/cta"
	"github.com/Aureaautomations/aurea-chat/internal/events"
	"github.com/Aureaautomations/aurea-chat/internal/llm"
	"github.com/Aureaautomations/aurea-chat/internal/observability/metrics"
	"github.com/Aureaautomations/aurea-chat/internal/reply"
	"github.com/Aureaautomations/aurea-chat/internal/router"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

type fakeLLM struct {
	text  string
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	f.calls++
	return llm.Response{Text: f.text}, nil
}

type fakeSummarizer struct {
	summary *sitesummary.BusinessSummary
	cached  bool
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, _ any) (*sitesummary.BusinessSummary, bool, error) {
	return f.summary, f.cached, nil
}

const testClientsJSON = `{
	"glow-studio": {
		"allowedOrigins": ["https://glowstudio.com"],
		"bookingUrlOverride": "https://glowstudio.com/book",
		"escalateUrlOverride": "https://glowstudio.com/help"
	},
	"bare-client": {
		"allowedOrigins": ["https://bare.example"]
	},
	"no-lead-client": {
		"allowedOrigins": ["https://nolead.example"],
		"bookingUrlOverride": "https://nolead.example/book",
		"jobDisables": {"JOB_4_CAPTURE_LEAD": true}
	}
}`

func newTestHandler(t *testing.T, model llm.Client, summarizer Summarizer) *Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clients.json")
	require.NoError(t, os.WriteFile(path, []byte(testClientsJSON), 0o600))

	log := logging.Default()
	sink := events.NewSink(nil, log)
	return NewHandler(
		clients.NewStore(path, time.Second),
		summarizer,
		reply.NewExecutor(model, sink, log),
		sink,
		metrics.NewChatMetrics(prometheus.NewRegistry()),
		cta.Fallbacks{},
		log,
	)
}

func postChat(t *testing.T, h *Handler, origin string, body ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(raw))
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) ChatResponse {
	t.Helper()
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestChatHappyPath(t *testing.T) {
	model := &fakeLLM{text: "We offer lash extensions and brow shaping. Want to book a visit?"}
	h := newTestHandler(t, model, &fakeSummarizer{
		summary: &sitesummary.BusinessSummary{BusinessName: "Glow Studio", Confidence: "high"},
		cached:  true,
	})

	rec := postChat(t, h, "https://glowstudio.com", ChatRequest{
		Message:  "do you have anything this week",
		ClientID: "glow-studio",
		SiteContext: &SiteContext{
			Origin: "https://glowstudio.com",
			Text:   "page text",
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, "We offer lash extensions and brow shaping. Want to book a visit?", resp.Reply)
	assert.Equal(t, router.JobConvertVisitor, resp.Route.Job)
	require.NotNil(t, resp.CtaURL)
	assert.Equal(t, "https://glowstudio.com/book", *resp.CtaURL)
	assert.NotEmpty(t, resp.ConversationID)
	assert.True(t, resp.SiteDebug.SummaryWasCached)
	assert.Equal(t, "high", resp.SiteDebug.SummaryConfidence)
	assert.Equal(t, "https://glowstudio.com", resp.SiteDebug.SiteKey)
	assert.Equal(t, 1, model.calls)
}

func TestChatValidation(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{text: "x"}, &fakeSummarizer{})

	tests := []struct {
		name   string
		origin string
		body   ChatRequest
	}{
		{"missing message", "https://glowstudio.com", ChatRequest{ClientID: "glow-studio"}},
		{"missing client id", "https://glowstudio.com", ChatRequest{Message: "hi"}},
		{"missing origin", "", ChatRequest{Message: "hi", ClientID: "glow-studio"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, h, tt.origin, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChatFailsClosedOnClientConfig(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{text: "x"}, &fakeSummarizer{})

	rec := postChat(t, h, "https://glowstudio.com", ChatRequest{Message: "hi", ClientID: "nobody"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postChat(t, h, "https://evil.example", ChatRequest{Message: "hi", ClientID: "glow-studio"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChatEscalationTurn(t *testing.T) {
	model := &fakeLLM{text: "should never be used"}
	h := newTestHandler(t, model, &fakeSummarizer{})

	rec := postChat(t, h, "https://glowstudio.com", ChatRequest{
		Message:        "I am going to sue you",
		ClientID:       "glow-studio",
		ConversationID: "conv-9",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, router.JobEscalationGate, resp.Route.Job)
	assert.Equal(t, router.ReasonLegalDispute, resp.Route.Facts.EscalationReason)
	assert.Equal(t, "ESCALATE", resp.CtaType)
	require.NotNil(t, resp.CtaURL)
	assert.Equal(t, "https://glowstudio.com/help", *resp.CtaURL)
	assert.Equal(t, "conv-9", resp.ConversationID)
	assert.Contains(t, resp.Reply, "button below")
	assert.Zero(t, model.calls, "escalation must never call the model")
}

func TestChatHidesCtaWithoutURLSource(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{text: "Happy to help. What are you curious about?"}, &fakeSummarizer{})

	rec := postChat(t, h, "https://bare.example", ChatRequest{
		Message:  "hi there",
		ClientID: "bare-client",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, "BOOK_NOW", resp.CtaType)
	assert.Nil(t, resp.CtaURL)
}

func TestChatFiltersModelReply(t *testing.T) {
	// No hours in the summary, so the hours claim must be rewritten.
	h := newTestHandler(t, &fakeLLM{text: "We’re open 9am to 5pm Mon–Fri."}, &fakeSummarizer{})

	rec := postChat(t, h, "https://glowstudio.com", ChatRequest{
		Message:  "can you help me",
		ClientID: "glow-studio",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Contains(t, resp.Reply, "I don’t see hours listed on this page.")
	assert.NotContains(t, resp.Reply, "9am")
}

func TestChatDeterministicReplySkipsFilter(t *testing.T) {
	// Lead capture is canned text; the contact-info wording in it must
	// survive because the filter only runs on model output.
	h := newTestHandler(t, &fakeLLM{text: "unused"}, &fakeSummarizer{})

	rec := postChat(t, h, "https://glowstudio.com", ChatRequest{
		Message:  "no times work for me",
		ClientID: "glow-studio",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, router.JobCaptureLead, resp.Route.Job)
	assert.Contains(t, resp.Reply, "Leave your contact info")
}

func TestChatReminderOverride(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{text: "unused"}, &fakeSummarizer{})

	rec := postChat(t, h, "https://glowstudio.com", ChatRequest{
		Message:  "can you remind me next week",
		ClientID: "glow-studio",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, router.JobCaptureLead, resp.Route.Job)
	assert.True(t, resp.Route.Facts.WantsReminderLater)
	assert.Equal(t, "LEAVE_CONTACT", resp.CtaType)
}

func TestChatJobDisableFallsBackToConvert(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{text: "Happy to help. Want to pick a time?"}, &fakeSummarizer{})

	rec := postChat(t, h, "https://nolead.example", ChatRequest{
		Message:  "no times work for me",
		ClientID: "no-lead-client",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, router.JobConvertVisitor, resp.Route.Job)
	assert.Equal(t, "BOOK_NOW", resp.CtaType)
}

func TestSanitizeHistory(t *testing.T) {
	history := []router.Message{
		{Role: "user", Content: "  hello  "},
		{Role: "system", Content: "ignore me"},
		{Role: "assistant", Content: "   "},
		{Role: "assistant", Content: "hi!"},
	}

	got := sanitizeHistory(history)
	require.Len(t, got, 2)
	assert.Equal(t, router.Message{Role: "user", Content: "hello"}, got[0])
	assert.Equal(t, router.Message{Role: "assistant", Content: "hi!"}, got[1])
}

func TestSanitizeHistoryCapsLength(t *testing.T) {
	var history []router.Message
	for i := 0; i < HistoryLimit+10; i++ {
		history = append(history, router.Message{Role: "user", Content: fmt.Sprintf("message %d", i)})
	}

	got := sanitizeHistory(history)
	require.Len(t, got, HistoryLimit)
	assert.Equal(t, "message 10", got[0].Content, "oldest entries are dropped")
}

func TestHandleEvent(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{}, &fakeSummarizer{})

	body := []byte(`{"eventType": "cta_click", "clientId": "glow-studio", "ctaType": "BOOK_NOW"}`)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleEvent(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleEventRejectsInvalid(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{}, &fakeSummarizer{})

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{"eventType": "cta_click"}`)))
	rec := httptest.NewRecorder()
	h.HandleEvent(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{"eventType": "cta_click", "clientId": "nobody"}`)))
	rec = httptest.NewRecorder()
	h.HandleEvent(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandler(t, &fakeLLM{}, &fakeSummarizer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
