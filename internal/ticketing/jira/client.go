package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sapira-io/triage/internal/config"
	"github.com/sapira-io/triage/internal/domain"
	"github.com/sapira-io/triage/internal/ticketing"
)

// Client implements ticketing.Ticketer against the Jira REST API
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	projectKey string
	client     *http.Client
}

// NewClient creates a Jira client from configuration
func NewClient(cfg config.TicketingConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		projectKey: cfg.ProjectKey,
		client:     &http.Client{Timeout: timeout},
	}
}

// IsConfigured checks if the client has credentials and a target project
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiToken != "" && c.projectKey != ""
}

type issueRequest struct {
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Project     keyRef   `json:"project"`
	IssueType   nameRef  `json:"issuetype"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Priority    *nameRef `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type issueResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// CreateTicket submits the assembled request as a new Jira issue
func (c *Client) CreateTicket(ctx context.Context, req ticketing.CreateRequest) (*domain.CreatedTicket, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("jira client is not configured")
	}

	issue := issueRequest{
		Fields: issueFields{
			Project:     keyRef{Key: c.projectKey},
			IssueType:   nameRef{Name: "Task"},
			Summary:     req.Proposal.Title,
			Description: renderDescription(req),
			Priority:    &nameRef{Name: mapPriority(req.Proposal.Priority)},
			Labels:      sanitizeLabels(req.Proposal.SuggestedLabels),
		},
	}

	body, err := json.Marshal(issue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal issue: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/rest/api/2/issue", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.email, c.apiToken)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jira returned status %d", resp.StatusCode)
	}

	var issueResp issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&issueResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if issueResp.Key == "" {
		return nil, fmt.Errorf("jira response has no issue key")
	}

	return &domain.CreatedTicket{
		Key: issueResp.Key,
		URL: c.baseURL + "/browse/" + issueResp.Key,
	}, nil
}

// renderDescription emits the proposal description followed by the analysis
// summary, key points and the full transcript.
func renderDescription(req ticketing.CreateRequest) string {
	var b strings.Builder
	b.WriteString(req.Proposal.Description)

	b.WriteString("\n\n----\n")
	b.WriteString(req.Transcript.Analysis.Summary)

	if len(req.Transcript.Analysis.KeyPoints) > 0 {
		b.WriteString("\n\nPuntos clave:")
		for _, point := range req.Transcript.Analysis.KeyPoints {
			b.WriteString("\n* ")
			b.WriteString(point)
		}
	}

	b.WriteString("\n\nTranscripción:")
	for _, msg := range req.Transcript.Messages {
		b.WriteString(fmt.Sprintf("\n[%s] %s: %s",
			msg.Timestamp.Format("2006-01-02 15:04"), msg.Author, msg.Content))
	}

	return b.String()
}

func mapPriority(p domain.TicketPriority) string {
	switch p {
	case domain.PriorityP0:
		return "Highest"
	case domain.PriorityP1:
		return "High"
	case domain.PriorityP2:
		return "Medium"
	default:
		return "Low"
	}
}

// sanitizeLabels makes labels Jira-safe: no spaces allowed
func sanitizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(strings.ReplaceAll(l, " ", "-"))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
