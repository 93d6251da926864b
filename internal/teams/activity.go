// Package teams is the Bot Framework transport boundary: it parses and
// validates inbound activities and delivers outbound replies.
package teams

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sapira-io/triage/internal/domain"
)

var (
	// ErrInvalidActivity marks payloads that fail structural validation
	ErrInvalidActivity = errors.New("invalid activity payload")
	// ErrNotUserMessage marks well-formed activities that are not a text
	// message from a user (typing indicators, membership updates, etc.)
	ErrNotUserMessage = errors.New("activity is not a user text message")
)

var validate = validator.New()

// Account identifies a chat participant
type Account struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name"`
	AADObjectID string `json:"aadObjectId"`
}

// ConversationAccount identifies the chat thread
type ConversationAccount struct {
	ID string `json:"id" validate:"required"`
}

// ActivityAttachment is a file or card on an activity
type ActivityAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl"`
	Content     any    `json:"content"`
}

// channelData carries Teams-specific extras; only the user principal is used
type channelData struct {
	UserPrincipalName string `json:"userPrincipalName"`
}

// Activity is one inbound Bot Framework activity. Non-message types are
// accepted by the parser and rejected by ToInbound, so the caller can drop
// them without treating them as errors.
type Activity struct {
	Type         string               `json:"type" validate:"required"`
	ID           string               `json:"id"`
	Text         string               `json:"text"`
	ChannelID    string               `json:"channelId"`
	ServiceURL   string               `json:"serviceUrl" validate:"required,url"`
	From         Account              `json:"from"`
	Conversation ConversationAccount  `json:"conversation"`
	ReplyToID    string               `json:"replyToId"`
	Attachments  []ActivityAttachment `json:"attachments"`
	ChannelData  channelData          `json:"channelData"`
}

// ParseActivity decodes and validates one activity from the request body
func ParseActivity(r io.Reader) (*Activity, error) {
	var activity Activity
	if err := json.NewDecoder(r).Decode(&activity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	if err := validate.Struct(&activity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	return &activity, nil
}

// ToInbound converts a message activity into the transport-neutral form the
// orchestrator consumes. Anything that is not a non-empty user text message
// is rejected with ErrNotUserMessage.
func (a *Activity) ToInbound() (domain.InboundMessage, error) {
	if a.Type != "message" {
		return domain.InboundMessage{}, fmt.Errorf("%w: type %q", ErrNotUserMessage, a.Type)
	}
	if strings.TrimSpace(a.Text) == "" {
		return domain.InboundMessage{}, fmt.Errorf("%w: empty text", ErrNotUserMessage)
	}

	attachments := make([]domain.Attachment, 0, len(a.Attachments))
	for _, att := range a.Attachments {
		attachments = append(attachments, domain.Attachment{
			Name:        att.Name,
			ContentType: att.ContentType,
			ContentURL:  att.ContentURL,
			Content:     att.Content,
		})
	}

	return domain.InboundMessage{
		ConversationID: a.Conversation.ID,
		UserID:         a.From.ID,
		UserName:       a.From.Name,
		UserEmail:      a.ChannelData.UserPrincipalName,
		ChannelID:      a.ChannelID,
		ServiceURL:     a.ServiceURL,
		ReplyToID:      a.ID,
		Text:           a.Text,
		Attachments:    attachments,
	}, nil
}
