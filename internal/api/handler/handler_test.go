package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sapira-io/triage/internal/api/handler"
	"github.com/sapira-io/triage/internal/conversation"
	"github.com/sapira-io/triage/internal/domain"
	"github.com/sapira-io/triage/internal/llm"
	"github.com/sapira-io/triage/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSender records outbound replies without a Bot Framework connection
type stubSender struct {
	replies []string
}

func (s *stubSender) SendReply(_ context.Context, _ domain.InboundMessage, text string) error {
	s.replies = append(s.replies, text)
	return nil
}

// stubTickets never gets called in these tests; included to satisfy wiring
type stubTickets struct{}

func (s *stubTickets) Create(context.Context, *domain.Conversation, *domain.TicketProposal) (*domain.CreatedTicket, error) {
	return &domain.CreatedTicket{Key: "SAP-1", URL: "https://example.com/SAP-1"}, nil
}

func newTestMessagesHandler(t *testing.T) (*handler.MessagesHandler, *stubSender) {
	t.Helper()

	store, err := conversation.NewStore(1<<20, time.Hour)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	// Router with no providers: every generation takes the deterministic
	// fallback path, which is exactly what a transport-level test wants.
	gen := triage.NewGenerator(llm.NewRouter("none"), time.Second, 6)
	sender := &stubSender{}
	svc := triage.NewService(store, gen, &stubTickets{}, sender)

	return handler.NewMessagesHandler(svc, sender, nil), sender
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, true, response["success"])

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestMessagesHandler_Post(t *testing.T) {
	const activityJSON = `{
		"type": "message",
		"id": "act-1",
		"text": "la app no funciona desde ayer",
		"channelId": "msteams",
		"serviceUrl": "https://smba.trafficmanager.net/emea/",
		"from": {"id": "29:user", "name": "Ana"},
		"conversation": {"id": "19:thread"}
	}`

	t.Run("accepts and processes a message", func(t *testing.T) {
		h, sender := newTestMessagesHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(activityJSON))
		rec := httptest.NewRecorder()
		h.Post(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, sender.replies, 1)
		assert.NotEmpty(t, sender.replies[0])
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		h, _ := newTestMessagesHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader("{broken"))
		rec := httptest.NewRecorder()
		h.Post(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("drops non-message activities", func(t *testing.T) {
		h, sender := newTestMessagesHandler(t)

		typing := strings.Replace(activityJSON, `"type": "message"`, `"type": "typing"`, 1)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(typing))
		rec := httptest.NewRecorder()
		h.Post(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, sender.replies)
	})
}
