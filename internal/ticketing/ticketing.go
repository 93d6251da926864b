// Package ticketing turns a confirmed proposal plus its conversation into a
// ticket in the external system of record.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sapira-io/triage/internal/domain"
)

// ErrSubmission wraps any failure from the ticketing collaborator
var ErrSubmission = errors.New("ticket submission failed")

// Ticketer is the external ticketing collaborator's creation entrypoint
type Ticketer interface {
	CreateTicket(ctx context.Context, req CreateRequest) (*domain.CreatedTicket, error)
}

// CreateRequest is the assembled payload sent to the collaborator
type CreateRequest struct {
	Proposal   domain.TicketProposal `json:"proposal"`
	Transcript Transcript            `json:"transcript"`
}

// Transcript carries the conversation provenance attached to a ticket
type Transcript struct {
	Participants []string            `json:"participants"`
	Messages     []TranscriptMessage `json:"messages"`
	Analysis     Analysis            `json:"analysis"`
}

// TranscriptMessage is one turn in submission form
type TranscriptMessage struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Analysis is the short AI-analysis summary attached to a submitted ticket
type Analysis struct {
	Summary         string                `json:"summary"`
	Priority        domain.TicketPriority `json:"priority"`
	SuggestedLabels []string              `json:"suggested_labels,omitempty"`
	KeyPoints       []string              `json:"key_points,omitempty"`
}

// Service is the ticket creation flow: validate the proposal, build the
// transcript payload, submit, and record the created ticket for audit.
type Service struct {
	client       Ticketer
	records      domain.TicketRepository
	maxKeyPoints int
}

// NewService creates the ticket creation flow. records may be nil to skip
// audit persistence.
func NewService(client Ticketer, records domain.TicketRepository, maxKeyPoints int) *Service {
	if maxKeyPoints <= 0 {
		maxKeyPoints = 5
	}
	return &Service{
		client:       client,
		records:      records,
		maxKeyPoints: maxKeyPoints,
	}
}

// Create validates and submits the proposal. The validator runs before
// anything reaches the collaborator; collaborator failures come back wrapped
// in ErrSubmission with the full cause logged server-side.
func (s *Service) Create(ctx context.Context, conv *domain.Conversation, proposal *domain.TicketProposal) (*domain.CreatedTicket, error) {
	if err := ValidateProposal(proposal); err != nil {
		return nil, err
	}

	req := CreateRequest{
		Proposal:   *proposal,
		Transcript: BuildTranscript(conv, proposal, s.maxKeyPoints),
	}

	created, err := s.client.CreateTicket(ctx, req)
	if err != nil {
		log.Error().Err(err).
			Str("conversation_id", conv.ID).
			Str("title", proposal.Title).
			Msg("ticketing collaborator rejected the ticket")
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	s.record(ctx, conv, proposal, created)
	return created, nil
}

// record persists the audit row; failures are logged, never surfaced, since
// the ticket itself already exists.
func (s *Service) record(ctx context.Context, conv *domain.Conversation, proposal *domain.TicketProposal, created *domain.CreatedTicket) {
	if s.records == nil {
		return
	}

	rec := &domain.TicketRecord{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		UserName:       conv.UserName,
		TicketKey:      created.Key,
		TicketURL:      created.URL,
		Title:          proposal.Title,
		Priority:       proposal.Priority,
		Labels:         proposal.SuggestedLabels,
		AssigneeTeam:   proposal.AssigneeTeam,
		Confidence:     proposal.Confidence,
		CreatedAt:      time.Now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conv.ID).
			Str("ticket_key", created.Key).
			Msg("failed to persist ticket record")
	}
}
