package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConversationState represents the lifecycle state of a conversation
type ConversationState string

const (
	// StateOpen covers everything from first contact until a proposal is issued
	StateOpen ConversationState = "open"
	// StateAwaitingConfirmation means a ticket proposal is pending a user reply
	StateAwaitingConfirmation ConversationState = "awaiting_confirmation"
	// StateCompleted is terminal: the ticket was created or the user cancelled
	StateCompleted ConversationState = "completed"
)

// TurnSender identifies who produced a turn
type TurnSender string

const (
	SenderUser TurnSender = "user"
	SenderBot  TurnSender = "bot"
)

var (
	// ErrEmptyTurn is returned when a turn carries no text
	ErrEmptyTurn = errors.New("turn text is empty")
	// ErrInvalidTransition is returned for a state change the lifecycle does not allow
	ErrInvalidTransition = errors.New("invalid conversation state transition")
)

// Attachment is a file or card attached to a turn
type Attachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url,omitempty"`
	Content     any    `json:"content,omitempty"`
}

// Turn is one message in a conversation transcript. Immutable once appended.
type Turn struct {
	Text        string       `json:"text"`
	Sender      TurnSender   `json:"sender"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Conversation is the aggregate for one user's exchange with the bot
// within a single chat thread. It is the single source of truth the
// generator and the ticket flow read from and write through.
type Conversation struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	UserName      string            `json:"user_name"`
	UserEmail     string            `json:"user_email,omitempty"`
	ChannelID     string            `json:"channel_id"`
	Turns         []Turn            `json:"turns"`
	State         ConversationState `json:"state"`
	Proposal      *TicketProposal   `json:"proposal,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// transitions is the allowed lifecycle table. awaiting_confirmation loops on
// itself when the user asks for modifications and the proposal is regenerated.
var transitions = map[ConversationState][]ConversationState{
	StateOpen:                 {StateOpen, StateAwaitingConfirmation},
	StateAwaitingConfirmation: {StateAwaitingConfirmation, StateCompleted},
	StateCompleted:            {},
}

// NewConversation constructs an open conversation with no turns
func NewConversation(id, userID, userName, userEmail, channelID string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		UserEmail: userEmail,
		ChannelID: channelID,
		State:     StateOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Key builds the store key for a (conversation, user) pair
func Key(conversationID, userID string) string {
	return conversationID + ":" + userID
}

// Key returns the store key for this conversation
func (c *Conversation) Key() string {
	return Key(c.ID, c.UserID)
}

// AppendTurn records a message with the current timestamp. Whitespace-only
// text is rejected; turns are append-only and keep insertion order.
func (c *Conversation) AppendTurn(text string, sender TurnSender, attachments ...Attachment) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyTurn
	}

	now := time.Now()
	c.Turns = append(c.Turns, Turn{
		Text:        text,
		Sender:      sender,
		Timestamp:   now,
		Attachments: attachments,
	})
	c.UpdatedAt = now
	return nil
}

// RenderHistory produces the transcript as one role-labelled line per turn,
// in chronological order. Used as a prompt fragment and as ticket provenance.
func (c *Conversation) RenderHistory() string {
	var b strings.Builder
	for i, turn := range c.Turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := "Usuario"
		if turn.Sender == SenderBot {
			label = "Bot"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}

// LastUserUtterance returns the most recent user turn's text, or ""
func (c *Conversation) LastUserUtterance() string {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Sender == SenderUser {
			return c.Turns[i].Text
		}
	}
	return ""
}

// UserTurnCount returns how many turns were sent by the user
func (c *Conversation) UserTurnCount() int {
	n := 0
	for _, turn := range c.Turns {
		if turn.Sender == SenderUser {
			n++
		}
	}
	return n
}

// Transition moves the conversation to newState if the lifecycle allows it
func (c *Conversation) Transition(newState ConversationState) error {
	for _, allowed := range transitions[c.State] {
		if allowed == newState {
			c.State = newState
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.State, newState)
}

// SetProposal attaches a proposal and moves to awaiting_confirmation. This is
// the only way a pending proposal comes to exist; callers must never set the
// field directly.
func (c *Conversation) SetProposal(p *TicketProposal) error {
	if err := c.Transition(StateAwaitingConfirmation); err != nil {
		return err
	}
	c.Proposal = p
	return nil
}

// Complete moves the conversation to its terminal state and drops any
// pending proposal, keeping the proposal-iff-awaiting invariant.
func (c *Conversation) Complete() error {
	if err := c.Transition(StateCompleted); err != nil {
		return err
	}
	c.Proposal = nil
	return nil
}

// IsAwaitingConfirmation reports whether a proposal is pending a user reply
func (c *Conversation) IsAwaitingConfirmation() bool {
	return c.State == StateAwaitingConfirmation && c.Proposal != nil
}

// IsCompleted reports whether the conversation reached its terminal state
func (c *Conversation) IsCompleted() bool {
	return c.State == StateCompleted
}
