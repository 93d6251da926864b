package domain

// InboundMessage is one parsed and validated chat message delivered by the
// transport layer. Everything the orchestrator needs is carried here so it
// never touches raw activity payloads.
type InboundMessage struct {
	ConversationID string
	UserID         string
	UserName       string
	UserEmail      string
	ChannelID      string
	ServiceURL     string
	ReplyToID      string
	Text           string
	Attachments    []Attachment
}
