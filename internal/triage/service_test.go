package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sapira-io/triage/internal/conversation"
	"github.com/sapira-io/triage/internal/domain"
	"github.com/sapira-io/triage/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const proposalJSON = `{
	"title": "Fallo de login en producción",
	"description": "Los usuarios reciben un error 500 al iniciar sesión.",
	"priority": "P1",
	"suggested_labels": ["login"],
	"assignee_suggestion": "Tech Team",
	"confidence": "high"
}`

type serviceFixture struct {
	store    *conversation.Store
	provider *MockProvider
	tickets  *MockTicketCreator
	sender   *MockSender
	svc      *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	store, err := conversation.NewStore(1<<20, time.Hour)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	provider := new(MockProvider)
	provider.On("Name").Return("mock")
	provider.On("IsConfigured").Return(true)
	router := llm.NewRouter("mock")
	router.RegisterProvider(provider)

	tickets := new(MockTicketCreator)
	sender := new(MockSender)
	sender.On("SendReply", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	gen := NewGenerator(router, 5*time.Second, 6)
	return &serviceFixture{
		store:    store,
		provider: provider,
		tickets:  tickets,
		sender:   sender,
		svc:      NewService(store, gen, tickets, sender),
	}
}

func inbound(text string) domain.InboundMessage {
	return domain.InboundMessage{
		ConversationID: "19:thread",
		UserID:         "u1",
		UserName:       "Ana",
		ChannelID:      "msteams",
		ServiceURL:     "https://smba.trafficmanager.net/emea/",
		Text:           text,
	}
}

// completeOnce queues one completion response in registration order
func (f *serviceFixture) completeOnce(text string) {
	f.provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.Response{Text: text}, nil).Once()
}

func (f *serviceFixture) lastReply() string {
	calls := f.sender.Calls
	if len(calls) == 0 {
		return ""
	}
	return calls[len(calls)-1].Arguments.String(2)
}

func (f *serviceFixture) conv() *domain.Conversation {
	conv, ok := f.store.Get("19:thread", "u1")
	if !ok {
		return nil
	}
	return conv
}

func TestService_HandleMessage_OpenFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("asks a continuation question while gathering info", func(t *testing.T) {
		f := newServiceFixture(t)
		f.completeOnce("NO")
		f.completeOnce("¿Qué error exacto ves en pantalla?")

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("la app no funciona")))

		assert.Equal(t, "¿Qué error exacto ves en pantalla?", f.lastReply())
		conv := f.conv()
		require.NotNil(t, conv)
		assert.Equal(t, domain.StateOpen, conv.State)
		// user turn plus bot turn
		assert.Len(t, conv.Turns, 2)
	})

	t.Run("proposes a ticket when there is enough detail", func(t *testing.T) {
		f := newServiceFixture(t)
		f.completeOnce("SI")
		f.completeOnce(proposalJSON)

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("error 500 al iniciar sesión en Chrome")))

		conv := f.conv()
		require.NotNil(t, conv)
		assert.True(t, conv.IsAwaitingConfirmation())
		assert.Equal(t, "Fallo de login en producción", conv.Proposal.Title)
		assert.Contains(t, f.lastReply(), "Fallo de login en producción")
		assert.Contains(t, f.lastReply(), "¿Quieres que cree este ticket?")
	})

	t.Run("rejects an empty message", func(t *testing.T) {
		f := newServiceFixture(t)

		err := f.svc.HandleMessage(ctx, inbound("   "))
		assert.ErrorIs(t, err, domain.ErrEmptyTurn)
	})
}

func TestService_HandleMessage_Confirm(t *testing.T) {
	ctx := context.Background()

	setupAwaiting := func(t *testing.T) *serviceFixture {
		f := newServiceFixture(t)
		f.completeOnce("SI")
		f.completeOnce(proposalJSON)
		require.NoError(t, f.svc.HandleMessage(ctx, inbound("error 500 al iniciar sesión")))
		require.True(t, f.conv().IsAwaitingConfirmation())
		return f
	}

	t.Run("confirmation creates the ticket and completes", func(t *testing.T) {
		f := setupAwaiting(t)
		f.completeOnce(`{"action": "confirm"}`)
		f.tickets.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(&domain.CreatedTicket{Key: "SAP-123", URL: "https://sapira.atlassian.net/browse/SAP-123"}, nil)

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("sí")))

		assert.Contains(t, f.lastReply(), "SAP-123")
		assert.Contains(t, f.lastReply(), "https://sapira.atlassian.net/browse/SAP-123")
		conv := f.conv()
		assert.True(t, conv.IsCompleted())
		assert.Nil(t, conv.Proposal)
		f.tickets.AssertExpectations(t)
	})

	t.Run("submission failure apologizes and keeps the proposal pending", func(t *testing.T) {
		f := setupAwaiting(t)
		f.completeOnce(`{"action": "confirm"}`)
		f.tickets.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("jira unavailable")).Once()

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("sí")))

		assert.Contains(t, f.lastReply(), "no pude crear el ticket")
		conv := f.conv()
		assert.True(t, conv.IsAwaitingConfirmation())

		// Confirming again retries the submission
		f.completeOnce(`{"action": "confirm"}`)
		f.tickets.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(&domain.CreatedTicket{Key: "SAP-124", URL: "https://sapira.atlassian.net/browse/SAP-124"}, nil).Once()

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("sí")))
		assert.Contains(t, f.lastReply(), "SAP-124")
		assert.True(t, f.conv().IsCompleted())
	})

	t.Run("messages after completion get the closed reply", func(t *testing.T) {
		f := setupAwaiting(t)
		f.completeOnce(`{"action": "confirm"}`)
		f.tickets.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(&domain.CreatedTicket{Key: "SAP-123", URL: "https://example.com/SAP-123"}, nil).Once()
		require.NoError(t, f.svc.HandleMessage(ctx, inbound("sí")))

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("sí")))
		assert.Contains(t, f.lastReply(), "ya está cerrada")
		f.tickets.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestService_HandleMessage_CancelAndModify(t *testing.T) {
	ctx := context.Background()

	setupAwaiting := func(t *testing.T) *serviceFixture {
		f := newServiceFixture(t)
		f.completeOnce("SI")
		f.completeOnce(proposalJSON)
		require.NoError(t, f.svc.HandleMessage(ctx, inbound("error 500 al iniciar sesión")))
		require.True(t, f.conv().IsAwaitingConfirmation())
		return f
	}

	t.Run("cancel completes without creating a ticket", func(t *testing.T) {
		f := setupAwaiting(t)
		f.completeOnce(`{"action": "cancel"}`)

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("no, cancélalo")))

		assert.Contains(t, f.lastReply(), "no crearé el ticket")
		assert.True(t, f.conv().IsCompleted())
		f.tickets.AssertNumberOfCalls(t, "Create", 0)
	})

	t.Run("modify regenerates the proposal and stays pending", func(t *testing.T) {
		f := setupAwaiting(t)
		f.completeOnce(`{"action": "modify", "modifications": {"priority": "P0"}, "followUpQuestion": "¿Así está mejor?"}`)
		f.completeOnce(`{
			"title": "Fallo de login en producción",
			"description": "Los usuarios reciben un error 500 al iniciar sesión.",
			"priority": "P0",
			"confidence": "high"
		}`)

		require.NoError(t, f.svc.HandleMessage(ctx, inbound("súbela a P0")))

		conv := f.conv()
		assert.True(t, conv.IsAwaitingConfirmation())
		assert.Equal(t, domain.PriorityP0, conv.Proposal.Priority)
		assert.Contains(t, f.lastReply(), "¿Así está mejor?")
		assert.Contains(t, f.lastReply(), "¿Quieres que cree este ticket?")
	})
}

func TestService_HandleMessage_SendFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()

	store, err := conversation.NewStore(1<<20, time.Hour)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	provider := new(MockProvider)
	provider.On("Name").Return("mock")
	provider.On("IsConfigured").Return(true)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.Response{Text: "NO"}, nil).Once()
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.Response{Text: "¿Qué error ves?"}, nil).Once()
	router := llm.NewRouter("mock")
	router.RegisterProvider(provider)

	sender := new(MockSender)
	sender.On("SendReply", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("serviceUrl unreachable"))

	svc := NewService(store, NewGenerator(router, 5*time.Second, 6), new(MockTicketCreator), sender)

	// Delivery failure is logged, not returned; the turn is still recorded
	require.NoError(t, svc.HandleMessage(ctx, inbound("la app no funciona")))

	conv, ok := store.Get("19:thread", "u1")
	require.True(t, ok)
	assert.Len(t, conv.Turns, 2)
}
