// Package events records widget and conversation events in Postgres.
// Recording is strictly best-effort; a down database never slows a turn.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

// Event types emitted by the chat pipeline and the widget.
const (
	TypeEscalation = "escalation"
	TypeCtaClick   = "cta_click"
	TypeLeadOffer  = "lead_offer"
)

// Event is one audit row.
type Event struct {
	EventType      string
	ClientID       string
	ConversationID string
	SessionID      string
	PageURL        string
	CtaType        string
	Job            string
	Metadata       map[string]any
}

// Sink writes events without ever surfacing errors to the caller.
type Sink struct {
	db  *sql.DB
	log *logging.Logger
}

// NewSink wires a sink. db may be nil, in which case every insert is a
// no-op (local runs without DATABASE_URL).
func NewSink(db *sql.DB, log *logging.Logger) *Sink {
	return &Sink{db: db, log: log}
}

const insertEvent = `
	INSERT INTO events
		(event_type, client_id, conversation_id, session_id, page_url, cta_type, job, metadata)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)
`

// Insert records one event in the background. Invalid events are dropped
// silently; insert failures are logged and swallowed.
func (s *Sink) Insert(event Event) {
	if s.db == nil {
		return
	}
	if event.EventType == "" || event.ClientID == "" {
		return
	}
	go s.write(event)
}

func (s *Sink) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var metadata any
	if event.Metadata != nil {
		if b, err := json.Marshal(event.Metadata); err == nil {
			metadata = string(b)
		}
	}

	_, err := s.db.ExecContext(ctx, insertEvent,
		event.EventType,
		event.ClientID,
		nullString(event.ConversationID),
		nullString(event.SessionID),
		nullString(event.PageURL),
		nullString(event.CtaType),
		nullString(event.Job),
		metadata,
	)
	if err != nil {
		s.log.Error("event insert failed", "event_type", event.EventType, "error", err)
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
