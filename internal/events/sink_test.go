package events

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

func TestWriteInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO events").
		WithArgs(
			TypeCtaClick,
			"glow-studio",
			"conv-1",
			"sess-1",
			"https://glowstudio.com/pricing",
			"BOOK_NOW",
			"JOB_1_CONVERT_VISITOR",
			`{"source":"widget"}`,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sink := NewSink(db, logging.Default())
	sink.write(Event{
		EventType:      TypeCtaClick,
		ClientID:       "glow-studio",
		ConversationID: "conv-1",
		SessionID:      "sess-1",
		PageURL:        "https://glowstudio.com/pricing",
		CtaType:        "BOOK_NOW",
		Job:            "JOB_1_CONVERT_VISITOR",
		Metadata:       map[string]any{"source": "widget"},
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteNullsEmptyFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO events").
		WithArgs(
			TypeEscalation,
			"glow-studio",
			nil, nil, nil, nil, nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sink := NewSink(db, logging.Default())
	sink.write(Event{EventType: TypeEscalation, ClientID: "glow-studio"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteSwallowsErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO events").
		WillReturnError(assert.AnError)

	sink := NewSink(db, logging.Default())
	// Must not panic or surface the error.
	sink.write(Event{EventType: TypeEscalation, ClientID: "glow-studio"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSkipsInvalidOrUnconfigured(t *testing.T) {
	// Nil db is a no-op sink.
	NewSink(nil, logging.Default()).Insert(Event{EventType: TypeCtaClick, ClientID: "glow-studio"})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewSink(db, logging.Default())
	sink.Insert(Event{ClientID: "glow-studio"}) // missing type
	sink.Insert(Event{EventType: TypeCtaClick}) // missing client

	assert.NoError(t, mock.ExpectationsWereMet())
}
