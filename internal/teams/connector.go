package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sapira-io/triage/internal/config"
	"github.com/sapira-io/triage/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Connector delivers outbound messages through the Bot Framework connector
// API. Bearer tokens come from a client-credentials token source that caches
// and refreshes them; a token fetch failure is a hard failure of the send.
type Connector struct {
	appID  string
	tokens oauth2.TokenSource
	client *http.Client
}

// NewConnector creates the outbound connector from configuration
func NewConnector(cfg config.TeamsConfig) *Connector {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.AppID,
		ClientSecret: cfg.AppPassword,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{cfg.Scope},
	}

	return &Connector{
		appID:  cfg.AppID,
		tokens: cc.TokenSource(context.Background()),
		client: &http.Client{Timeout: timeout},
	}
}

// IsConfigured checks if the connector has bot credentials
func (c *Connector) IsConfigured() bool {
	return c.appID != ""
}

type outboundActivity struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// SendReply delivers one chat message back into the thread the inbound
// message came from, as a threaded reply when a message id is available.
func (c *Connector) SendReply(ctx context.Context, msg domain.InboundMessage, text string) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to fetch connector token: %w", err)
	}

	endpoint := strings.TrimSuffix(msg.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(msg.ConversationID) + "/activities"
	if msg.ReplyToID != "" {
		endpoint += "/" + url.PathEscape(msg.ReplyToID)
	}

	body, err := json.Marshal(outboundActivity{
		Type:      "message",
		Text:      text,
		ReplyToID: msg.ReplyToID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("connector returned status %d", resp.StatusCode)
	}
	return nil
}
