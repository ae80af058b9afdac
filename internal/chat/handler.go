// Package chat is the HTTP surface of the widget backend: one stateless
// POST /chat turn pipeline plus event ingestion and health.
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Aureaautomations/aurea-chat/internal/clients"
	"github.com/Aureaautomations/aurea-chat/internal/cta"
	"github.com/Aureaautomations/aurea-chat/internal/events"
	"github.com/Aureaautomations/aurea-chat/internal/guard"
	"github.com/Aureaautomations/aurea-chat/internal/observability/metrics"
	"github.com/Aureaautomations/aurea-chat/internal/reply"
	"github.com/Aureaautomations/aurea-chat/internal/router"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

var tracer = otel.Tracer("aurea/chat")

// HistoryLimit caps how many history entries a request may carry forward.
const HistoryLimit = 40

// Summarizer is the site summary dependency of the handler.
type Summarizer interface {
	Summarize(ctx context.Context, origin string, rawContext any) (*sitesummary.BusinessSummary, bool, error)
}

// Handler wires the full turn pipeline.
type Handler struct {
	clients    *clients.Store
	summarizer Summarizer
	executor   *reply.Executor
	sink       *events.Sink
	metrics    *metrics.ChatMetrics
	fallbacks  cta.Fallbacks
	logger     *logging.Logger
}

func NewHandler(store *clients.Store, summarizer Summarizer, executor *reply.Executor, sink *events.Sink, m *metrics.ChatMetrics, fallbacks cta.Fallbacks, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		clients:    store,
		summarizer: summarizer,
		executor:   executor,
		sink:       sink,
		metrics:    m,
		fallbacks:  fallbacks,
		logger:     logger,
	}
}

// SiteContext is the page snapshot the widget ships with each turn.
type SiteContext struct {
	Origin string `json:"origin"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Meta carries page/session identifiers from the widget.
type Meta struct {
	PageURL   string `json:"pageUrl,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message        string           `json:"message"`
	ConversationID string           `json:"conversationId,omitempty"`
	ClientID       string           `json:"clientId"`
	History        []router.Message `json:"history,omitempty"`
	Signals        router.Signals   `json:"signals,omitempty"`
	SiteContext    *SiteContext     `json:"siteContext,omitempty"`
	Meta           *Meta            `json:"meta,omitempty"`
}

// RouteView is the routed-turn slice of the response; its facts feed the
// widget's next-turn signals.
type RouteView struct {
	Job   router.Job   `json:"job"`
	Facts router.Facts `json:"facts"`
	CTA   router.CTA   `json:"cta"`
}

// SiteDebug surfaces summary provenance for widget debugging.
type SiteDebug struct {
	SiteKey           string `json:"siteKey"`
	SummaryWasCached  bool   `json:"summaryWasCached"`
	SummaryConfidence string `json:"summaryConfidence,omitempty"`
	ContextChars      int    `json:"contextChars"`
}

// ChatResponse is the POST /chat reply body. CtaURL is null when no
// verified URL exists, which tells the widget to hide the button.
type ChatResponse struct {
	Reply          string    `json:"reply"`
	ConversationID string    `json:"conversationId"`
	Route          RouteView `json:"route"`
	CtaType        string    `json:"ctaType"`
	CtaURL         *string   `json:"ctaUrl"`
	SiteDebug      SiteDebug `json:"siteDebug"`
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// sanitizeHistory keeps well-formed entries and at most the newest
// HistoryLimit of them.
func sanitizeHistory(history []router.Message) []router.Message {
	out := make([]router.Message, 0, len(history))
	for _, m := range history {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		out = append(out, router.Message{Role: m.Role, Content: content, Timestamp: m.Timestamp})
	}
	if len(out) > HistoryLimit {
		out = out[len(out)-HistoryLimit:]
	}
	return out
}

// HandleChat runs one turn end to end.
// POST /chat
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracer.Start(r.Context(), "chat.turn")
	defer span.End()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	message := strings.TrimSpace(req.Message)
	clientID := strings.TrimSpace(req.ClientID)
	origin := strings.TrimSpace(r.Header.Get("Origin"))

	if message == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}
	if clientID == "" {
		jsonError(w, "clientId is required", http.StatusBadRequest)
		return
	}
	if origin == "" {
		jsonError(w, "Origin header is required", http.StatusBadRequest)
		return
	}

	cfg, err := h.clients.Get(clientID)
	if err != nil {
		h.logger.Error("client config load failed", "client_id", clientID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if cfg == nil {
		jsonError(w, "unknown client", http.StatusForbidden)
		return
	}
	if !clients.IsOriginAllowed(origin, cfg) {
		jsonError(w, "origin not allowed for this client", http.StatusForbidden)
		return
	}

	span.SetAttributes(attribute.String("chat.client_id", clientID))

	pageURL := ""
	if req.Meta != nil {
		pageURL = req.Meta.PageURL
	}
	summaryOrigin := pageURL
	var rawContext any
	if req.SiteContext != nil {
		if req.SiteContext.Origin != "" {
			summaryOrigin = req.SiteContext.Origin
		}
		rawContext = req.SiteContext.Text
	}

	summary, summaryCached, err := h.summarizer.Summarize(ctx, summaryOrigin, rawContext)
	if err != nil {
		// A missing summary is a first-class state, not a failed turn.
		summary = nil
	}
	h.metrics.ObserveSummaryCache(summaryCached)

	history := sanitizeHistory(req.History)

	route := router.RouteMessage(ctx, router.Input{
		Message: message,
		History: history,
		Signals: req.Signals,
		Channel: "widget",
	})
	if router.DetectsReminderIntent(message) {
		route = router.ReminderOverride(route)
	}
	route = router.ApplyJobDisable(route, cfg.JobDisables)

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	ctaURL := cta.Resolve(route.CTA.Type, cfg, summary, h.fallbacks)

	res := h.executor.Execute(ctx, reply.Input{
		Route:          route,
		Message:        message,
		History:        history,
		Summary:        summary,
		ConversationID: conversationID,
		ClientID:       clientID,
		PageURL:        pageURL,
	})
	if res.ModelError {
		h.metrics.ObserveLLMError()
	}

	text := res.Text
	if res.ModelUsed {
		filtered := guard.Apply(ctx, guard.Input{
			Reply:           text,
			CtaType:         route.CTA.Type,
			CtaURL:          ctaURL,
			BusinessSummary: summary,
		})
		if filtered.Changed {
			for _, reason := range filtered.Reasons {
				h.metrics.ObserveRewrite(reason)
			}
		}
		text = filtered.Text
	}

	switch route.Job {
	case router.JobEscalationGate:
		h.metrics.ObserveEscalation(string(route.Facts.EscalationReason))
	case router.JobCaptureLead:
		h.sink.Insert(events.Event{
			EventType:      events.TypeLeadOffer,
			ClientID:       clientID,
			ConversationID: conversationID,
			PageURL:        pageURL,
			Job:            string(route.Job),
		})
	}

	var ctaURLField *string
	if ctaURL != "" {
		ctaURLField = &ctaURL
	}

	resp := ChatResponse{
		Reply:          text,
		ConversationID: conversationID,
		Route:          RouteView{Job: route.Job, Facts: route.Facts, CTA: route.CTA},
		CtaType:        string(route.CTA.Type),
		CtaURL:         ctaURLField,
		SiteDebug: SiteDebug{
			SiteKey:          sitesummary.SiteKey(summaryOrigin),
			SummaryWasCached: summaryCached,
			ContextChars:     len(sitesummary.TrimContext(rawContext)),
		},
	}
	if summary != nil {
		resp.SiteDebug.SummaryConfidence = summary.Confidence
	}

	h.metrics.ObserveTurn(string(route.Job), time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

// EventRequest is the POST /events body sent by the widget on CTA clicks.
type EventRequest struct {
	EventType      string         `json:"eventType"`
	ClientID       string         `json:"clientId"`
	ConversationID string         `json:"conversationId,omitempty"`
	SessionID      string         `json:"sessionId,omitempty"`
	PageURL        string         `json:"pageUrl,omitempty"`
	CtaType        string         `json:"ctaType,omitempty"`
	Job            string         `json:"job,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// HandleEvent ingests a widget event.
// POST /events
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.EventType) == "" || strings.TrimSpace(req.ClientID) == "" {
		jsonError(w, "eventType and clientId are required", http.StatusBadRequest)
		return
	}

	cfg, err := h.clients.Get(req.ClientID)
	if err != nil || cfg == nil {
		jsonError(w, "unknown client", http.StatusForbidden)
		return
	}

	h.sink.Insert(events.Event{
		EventType:      req.EventType,
		ClientID:       req.ClientID,
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		PageURL:        req.PageURL,
		CtaType:        req.CtaType,
		Job:            req.Job,
		Metadata:       req.Metadata,
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleHealth reports liveness.
// GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
