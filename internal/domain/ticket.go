package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TicketPriority is the ordinal severity of a proposal, most to least urgent
type TicketPriority string

const (
	PriorityP0 TicketPriority = "P0"
	PriorityP1 TicketPriority = "P1"
	PriorityP2 TicketPriority = "P2"
	PriorityP3 TicketPriority = "P3"
)

// Valid reports whether p is one of the four known severities
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityP0, PriorityP1, PriorityP2, PriorityP3:
		return true
	}
	return false
}

// Confidence qualifies how sure the generator is about a proposal
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// OriginTeams tags proposals sourced from the Teams channel
const OriginTeams = "teams"

// TicketProposal is a candidate support ticket derived from a conversation,
// not yet committed to the ticketing system.
type TicketProposal struct {
	Title           string         `json:"title" validate:"required,min=5"`
	Description     string         `json:"description" validate:"required,min=10"`
	Priority        TicketPriority `json:"priority" validate:"required,oneof=P0 P1 P2 P3"`
	Origin          string         `json:"origin"`
	SuggestedLabels []string       `json:"suggested_labels,omitempty"`
	AssigneeTeam    string         `json:"assignee_suggestion,omitempty"`
	Confidence      Confidence     `json:"confidence"`
}

// FeedbackAction classifies the user's reply to a pending proposal
type FeedbackAction string

const (
	FeedbackConfirm FeedbackAction = "confirm"
	FeedbackCancel  FeedbackAction = "cancel"
	FeedbackModify  FeedbackAction = "modify"
)

// Feedback is the interpreted reply to a proposal. Modifications carries
// field-level overrides when the action is modify.
type Feedback struct {
	Action           FeedbackAction    `json:"action"`
	Modifications    map[string]string `json:"modifications,omitempty"`
	FollowUpQuestion string            `json:"followUpQuestion,omitempty"`
}

// CreatedTicket references a ticket committed to the system of record
type CreatedTicket struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// TicketRecord is the audit row persisted for every ticket the bot creates
type TicketRecord struct {
	ID             uuid.UUID      `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	UserName       string         `json:"user_name"`
	TicketKey      string         `json:"ticket_key"`
	TicketURL      string         `json:"ticket_url"`
	Title          string         `json:"title"`
	Priority       TicketPriority `json:"priority"`
	Labels         []string       `json:"labels,omitempty"`
	AssigneeTeam   string         `json:"assignee_team,omitempty"`
	Confidence     Confidence     `json:"confidence"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TicketRepository defines the interface for ticket audit storage
type TicketRepository interface {
	Create(ctx context.Context, record *TicketRecord) error
	ListRecent(ctx context.Context, limit int) ([]TicketRecord, error)
	ListByConversation(ctx context.Context, conversationID string) ([]TicketRecord, error)
}
