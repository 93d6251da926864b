package triage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sapira-io/triage/internal/conversation"
	"github.com/sapira-io/triage/internal/domain"
)

const (
	apologyReply   = "Lo siento, no pude crear el ticket en este momento. Por favor, intenta confirmarlo de nuevo más tarde."
	cancelledReply = "Entendido, no crearé el ticket. Si necesitas algo más, aquí estoy."
	closedReply    = "Esta conversación ya está cerrada. Escríbeme en un hilo nuevo si necesitas reportar otro problema."
)

// Sender delivers one outbound chat message back to the originating thread
type Sender interface {
	SendReply(ctx context.Context, msg domain.InboundMessage, text string) error
}

// TicketCreator commits a confirmed proposal to the system of record
type TicketCreator interface {
	Create(ctx context.Context, conv *domain.Conversation, proposal *domain.TicketProposal) (*domain.CreatedTicket, error)
}

// Service orchestrates the per-message triage workflow: load or create the
// conversation, append the user turn, pick one of the three behaviors
// (feedback interpretation, proposal generation, continuation), append the
// bot turn and hand the text to the outbound sender.
type Service struct {
	store   *conversation.Store
	gen     *Generator
	tickets TicketCreator
	sender  Sender
}

// NewService creates the triage orchestrator
func NewService(store *conversation.Store, gen *Generator, tickets TicketCreator, sender Sender) *Service {
	return &Service{
		store:   store,
		gen:     gen,
		tickets: tickets,
		sender:  sender,
	}
}

// HandleMessage processes one inbound chat message end to end. Messages for
// the same (conversation, user) key are serialized; generation failures never
// propagate (the generator owns its fallbacks), so an error return here means
// the message itself was unusable.
func (s *Service) HandleMessage(ctx context.Context, msg domain.InboundMessage) error {
	unlock := s.store.Lock(msg.ConversationID, msg.UserID)
	defer unlock()

	conv, existed := s.store.GetOrCreate(msg)
	if !existed {
		log.Info().
			Str("conversation_id", conv.ID).
			Str("user_id", conv.UserID).
			Msg("new conversation started")
	}

	if err := conv.AppendTurn(msg.Text, domain.SenderUser, msg.Attachments...); err != nil {
		return fmt.Errorf("failed to append user turn: %w", err)
	}

	// The awaiting-confirmation branch wins over everything else: once a
	// proposal exists, every turn is a feedback turn until completion.
	var reply string
	switch {
	case conv.IsAwaitingConfirmation():
		reply = s.handleFeedback(ctx, conv)
	case conv.IsCompleted():
		reply = closedReply
	default:
		reply = s.handleOpen(ctx, conv)
	}

	if err := conv.AppendTurn(reply, domain.SenderBot); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conv.ID).
			Msg("failed to append bot turn")
	}
	s.store.Touch(conv)

	if err := s.sender.SendReply(ctx, msg, reply); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conv.ID).
			Msg("failed to send reply")
	}
	return nil
}

// handleOpen decides between proposing a ticket and asking the next question
func (s *Service) handleOpen(ctx context.Context, conv *domain.Conversation) string {
	if !s.gen.ShouldCreateTicket(ctx, conv) {
		return s.gen.GenerateContinuation(ctx, conv)
	}

	proposal := s.gen.GenerateProposal(ctx, conv, nil, nil)
	if err := conv.SetProposal(proposal); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conv.ID).
			Msg("failed to attach proposal")
		return s.gen.GenerateContinuation(ctx, conv)
	}

	log.Info().
		Str("conversation_id", conv.ID).
		Str("priority", string(proposal.Priority)).
		Str("confidence", string(proposal.Confidence)).
		Msg("ticket proposal generated")
	return formatProposal(proposal)
}

// handleFeedback interprets the user's reply to the pending proposal
func (s *Service) handleFeedback(ctx context.Context, conv *domain.Conversation) string {
	feedback := s.gen.InterpretFeedback(ctx, conv, conv.LastUserUtterance())

	switch feedback.Action {
	case domain.FeedbackConfirm:
		created, err := s.tickets.Create(ctx, conv, conv.Proposal)
		if err != nil {
			// State stays at awaiting_confirmation so the user can retry
			// by confirming again.
			log.Error().Err(err).
				Str("conversation_id", conv.ID).
				Msg("ticket creation failed")
			return apologyReply
		}
		if err := conv.Complete(); err != nil {
			log.Error().Err(err).
				Str("conversation_id", conv.ID).
				Msg("failed to complete conversation")
		}
		log.Info().
			Str("conversation_id", conv.ID).
			Str("ticket_key", created.Key).
			Msg("ticket created")
		return fmt.Sprintf("Listo, creé el ticket %s. Puedes seguirlo aquí: %s", created.Key, created.URL)

	case domain.FeedbackCancel:
		if err := conv.Complete(); err != nil {
			log.Error().Err(err).
				Str("conversation_id", conv.ID).
				Msg("failed to complete conversation")
		}
		return cancelledReply

	default:
		proposal := s.gen.GenerateProposal(ctx, conv, conv.Proposal, feedback.Modifications)
		if err := conv.SetProposal(proposal); err != nil {
			log.Error().Err(err).
				Str("conversation_id", conv.ID).
				Msg("failed to replace proposal")
		}
		text := formatProposal(proposal)
		if feedback.FollowUpQuestion != "" {
			text = feedback.FollowUpQuestion + "\n\n" + text
		}
		return text
	}
}

// formatProposal renders the proposal summary shown to the user together
// with the confirmation question.
func formatProposal(p *domain.TicketProposal) string {
	labels := "ninguna"
	if len(p.SuggestedLabels) > 0 {
		labels = ""
		for i, l := range p.SuggestedLabels {
			if i > 0 {
				labels += ", "
			}
			labels += l
		}
	}

	return fmt.Sprintf(`Esta es la propuesta de ticket:

**%s**
%s

Prioridad: %s · Equipo sugerido: %s · Etiquetas: %s

¿Quieres que cree este ticket? Responde "sí" para confirmar, "no" para cancelar, o dime qué cambiar.`,
		p.Title, p.Description, p.Priority, p.AssigneeTeam, labels)
}
