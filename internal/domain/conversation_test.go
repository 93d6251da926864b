package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversation() *Conversation {
	return NewConversation("19:thread", "user-1", "Ana", "ana@example.com", "msteams")
}

func TestConversation_AppendTurn(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		conv := newTestConversation()

		require.NoError(t, conv.AppendTurn("hola", SenderUser))
		require.NoError(t, conv.AppendTurn("¿en qué puedo ayudarte?", SenderBot))
		require.NoError(t, conv.AppendTurn("la app no carga", SenderUser))

		require.Len(t, conv.Turns, 3)
		assert.Equal(t, "hola", conv.Turns[0].Text)
		assert.Equal(t, SenderBot, conv.Turns[1].Sender)
		assert.Equal(t, "la app no carga", conv.Turns[2].Text)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		conv := newTestConversation()

		assert.ErrorIs(t, conv.AppendTurn("", SenderUser), ErrEmptyTurn)
		assert.ErrorIs(t, conv.AppendTurn("   \t\n", SenderUser), ErrEmptyTurn)
		assert.Empty(t, conv.Turns)
	})

	t.Run("carries attachments", func(t *testing.T) {
		conv := newTestConversation()

		att := Attachment{Name: "error.png", ContentType: "image/png"}
		require.NoError(t, conv.AppendTurn("mira esta captura", SenderUser, att))

		require.Len(t, conv.Turns[0].Attachments, 1)
		assert.Equal(t, "error.png", conv.Turns[0].Attachments[0].Name)
	})
}

func TestConversation_RenderHistory(t *testing.T) {
	conv := newTestConversation()
	require.NoError(t, conv.AppendTurn("no puedo entrar", SenderUser))
	require.NoError(t, conv.AppendTurn("¿Qué error ves?", SenderBot))
	require.NoError(t, conv.AppendTurn("dice 500", SenderUser))

	expected := "Usuario: no puedo entrar\nBot: ¿Qué error ves?\nUsuario: dice 500"
	assert.Equal(t, expected, conv.RenderHistory())
}

func TestConversation_LastUserUtterance(t *testing.T) {
	conv := newTestConversation()
	assert.Equal(t, "", conv.LastUserUtterance())

	require.NoError(t, conv.AppendTurn("primero", SenderUser))
	require.NoError(t, conv.AppendTurn("respuesta", SenderBot))
	assert.Equal(t, "primero", conv.LastUserUtterance())

	require.NoError(t, conv.AppendTurn("segundo", SenderUser))
	assert.Equal(t, "segundo", conv.LastUserUtterance())
}

func TestConversation_UserTurnCount(t *testing.T) {
	conv := newTestConversation()
	require.NoError(t, conv.AppendTurn("uno", SenderUser))
	require.NoError(t, conv.AppendTurn("bot", SenderBot))
	require.NoError(t, conv.AppendTurn("dos", SenderUser))

	assert.Equal(t, 2, conv.UserTurnCount())
}

func TestConversation_Transition(t *testing.T) {
	t.Run("open to awaiting to completed", func(t *testing.T) {
		conv := newTestConversation()

		require.NoError(t, conv.Transition(StateAwaitingConfirmation))
		assert.Equal(t, StateAwaitingConfirmation, conv.State)

		require.NoError(t, conv.Transition(StateCompleted))
		assert.Equal(t, StateCompleted, conv.State)
	})

	t.Run("awaiting loops on itself for revisions", func(t *testing.T) {
		conv := newTestConversation()
		require.NoError(t, conv.Transition(StateAwaitingConfirmation))

		assert.NoError(t, conv.Transition(StateAwaitingConfirmation))
	})

	t.Run("open cannot jump to completed", func(t *testing.T) {
		conv := newTestConversation()

		assert.ErrorIs(t, conv.Transition(StateCompleted), ErrInvalidTransition)
		assert.Equal(t, StateOpen, conv.State)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		conv := newTestConversation()
		require.NoError(t, conv.Transition(StateAwaitingConfirmation))
		require.NoError(t, conv.Transition(StateCompleted))

		assert.ErrorIs(t, conv.Transition(StateOpen), ErrInvalidTransition)
		assert.ErrorIs(t, conv.Transition(StateAwaitingConfirmation), ErrInvalidTransition)
		assert.ErrorIs(t, conv.Transition(StateCompleted), ErrInvalidTransition)
	})
}

func TestConversation_ProposalLifecycle(t *testing.T) {
	proposal := &TicketProposal{
		Title:       "La app no carga",
		Description: "El usuario reporta que la aplicación no carga.",
		Priority:    PriorityP2,
	}

	t.Run("set proposal moves to awaiting", func(t *testing.T) {
		conv := newTestConversation()

		require.NoError(t, conv.SetProposal(proposal))
		assert.Equal(t, StateAwaitingConfirmation, conv.State)
		assert.True(t, conv.IsAwaitingConfirmation())
	})

	t.Run("revised proposal replaces the pending one", func(t *testing.T) {
		conv := newTestConversation()
		require.NoError(t, conv.SetProposal(proposal))

		revised := &TicketProposal{
			Title:       "La app no carga en Chrome",
			Description: "El usuario reporta que la aplicación no carga en Chrome.",
			Priority:    PriorityP1,
		}
		require.NoError(t, conv.SetProposal(revised))
		assert.Equal(t, revised, conv.Proposal)
		assert.True(t, conv.IsAwaitingConfirmation())
	})

	t.Run("complete clears the proposal", func(t *testing.T) {
		conv := newTestConversation()
		require.NoError(t, conv.SetProposal(proposal))

		require.NoError(t, conv.Complete())
		assert.Nil(t, conv.Proposal)
		assert.True(t, conv.IsCompleted())
		assert.False(t, conv.IsAwaitingConfirmation())
	})

	t.Run("no proposal outside awaiting", func(t *testing.T) {
		conv := newTestConversation()
		assert.False(t, conv.IsAwaitingConfirmation())

		require.NoError(t, conv.SetProposal(proposal))
		require.NoError(t, conv.Complete())
		assert.ErrorIs(t, conv.SetProposal(proposal), ErrInvalidTransition)
		assert.Nil(t, conv.Proposal)
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "19:thread:user-1", Key("19:thread", "user-1"))

	conv := newTestConversation()
	assert.Equal(t, "19:thread:user-1", conv.Key())
}
