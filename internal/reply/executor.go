// Package reply builds the assistant's reply text for a routed turn. Each
// job has a fixed construction contract; only CONVERT_VISITOR and the
// EXECUTE_BOOKING tail ever touch the model.
package reply

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Aureaautomations/aurea-chat/internal/events"
	"github.com/Aureaautomations/aurea-chat/internal/llm"
	"github.com/Aureaautomations/aurea-chat/internal/router"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

var tracer = otel.Tracer("aurea/reply")

// ApologyText is the single degraded reply for a failed model call. The
// turn still returns 200; nothing is retried.
const ApologyText = "Sorry, something went wrong on my end. Please try again in a moment."

const systemPrompt = `You are Aurea, an AI sales assistant for a service business.
Your job is to help convert website visitors into booked appointments or qualified leads.

How you should respond:
- Be friendly, confident, and concise. Keep replies short.
- Ask at most 1 short clarifying question.
- Never include URLs or links of any kind.
- Never invent services, prices, hours, or policies. If a detail is not in the Business Summary, say you don't see it listed and offer the best next step.
- Never mention you are a language model. You are Aurea, the assistant.`

// Input is everything an executor may draw on for one turn.
type Input struct {
	Route          router.Route
	Message        string
	History        []router.Message
	Summary        *sitesummary.BusinessSummary
	ConversationID string
	ClientID       string
	PageURL        string
}

// Result carries the reply plus whether any part of it came from the model.
// The safety filter runs only on model-touched replies.
type Result struct {
	Text       string
	ModelUsed  bool
	ModelError bool
}

// Executor builds replies. sink may be a no-op sink; client may be nil only
// in tests that never reach a model-backed path.
type Executor struct {
	llm  llm.Client
	sink *events.Sink
	log  *logging.Logger
}

func NewExecutor(client llm.Client, sink *events.Sink, log *logging.Logger) *Executor {
	return &Executor{llm: client, sink: sink, log: log}
}

// Execute builds the reply for the routed job.
func (e *Executor) Execute(ctx context.Context, in Input) Result {
	ctx, span := tracer.Start(ctx, "reply.execute")
	defer span.End()
	span.SetAttributes(attribute.String("reply.job", string(in.Route.Job)))

	switch in.Route.Job {
	case router.JobExecuteBooking:
		return e.executeBooking(ctx, in)
	case router.JobCaptureLead:
		return Result{Text: captureLeadText(in.Route.Facts)}
	case router.JobEscalationGate:
		e.auditEscalation(in)
		return Result{Text: escalationText(in.Route.Facts.EscalationReason)}
	case router.JobConvertVisitor,
		router.JobIncreaseABV,
		router.JobRefillCancellations,
		router.JobRetainRebook:
		// The outbound jobs never route from the widget; if one ever
		// reaches here, answer with the safe default behavior.
		return e.convertVisitor(ctx, in)
	}
	return e.convertVisitor(ctx, in)
}

func (e *Executor) auditEscalation(in Input) {
	fingerprint := sha256.Sum256([]byte(strings.TrimSpace(in.Message)))
	e.sink.Insert(events.Event{
		EventType:      events.TypeEscalation,
		ClientID:       in.ClientID,
		ConversationID: in.ConversationID,
		PageURL:        in.PageURL,
		Job:            string(in.Route.Job),
		Metadata: map[string]any{
			"reason":              string(in.Route.Facts.EscalationReason),
			"message_fingerprint": hex.EncodeToString(fingerprint[:]),
		},
	})
}

func (e *Executor) convertVisitor(ctx context.Context, in Input) Result {
	if text, ok := interceptPricing(in); ok {
		return Result{Text: text}
	}
	if text, ok := interceptHours(in); ok {
		return Result{Text: text}
	}

	messages := historyToChat(in.History)
	latest := strings.TrimSpace(in.Message)
	if n := len(messages); n == 0 || messages[n-1].Role != llm.ChatRoleUser || messages[n-1].Content != latest {
		messages = append(messages, llm.ChatMessage{Role: llm.ChatRoleUser, Content: latest})
	}

	resp, err := e.llm.Complete(ctx, llm.Request{
		System:      []string{systemPrompt, summaryContext(in.Summary)},
		Messages:    messages,
		MaxTokens:   512,
		Temperature: 0.2,
	})
	if err != nil {
		e.log.Error("convert visitor model call failed", "error", err)
		return Result{Text: ApologyText, ModelUsed: true, ModelError: true}
	}
	return Result{Text: strings.TrimSpace(resp.Text), ModelUsed: true}
}

func summaryContext(summary *sitesummary.BusinessSummary) string {
	if summary == nil {
		return "No Business Summary is available for this site. Do not state any specific services, prices, or hours."
	}
	b, err := json.Marshal(summary)
	if err != nil {
		return "No Business Summary is available for this site. Do not state any specific services, prices, or hours."
	}
	return "Business Summary (extracted from the website the widget is embedded on). This is the only source of truth for services, pricing, hours, and policies:\n" + string(b)
}

func historyToChat(history []router.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "user":
			out = append(out, llm.ChatMessage{Role: llm.ChatRoleUser, Content: m.Content})
		case "assistant":
			out = append(out, llm.ChatMessage{Role: llm.ChatRoleAssistant, Content: m.Content})
		}
	}
	return out
}
