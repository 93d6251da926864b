package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/sapira-io/triage/internal/domain"
	"github.com/sapira-io/triage/internal/llm"
)

const (
	fallbackTitle        = "Problema reportado desde Teams"
	fallbackContinuation = "Cuéntame un poco más sobre el problema que estás experimentando."
	fallbackFollowUp     = "¿Qué te gustaría cambiar de la propuesta?"
)

var fallbackLabels = []string{"soporte", "teams"}

// Word sets for the deterministic feedback fallback. Matching is on whole
// words after lowercasing, so "no" does not fire inside "notorio".
var (
	affirmativeWords = map[string]bool{
		"sí": true, "si": true, "ok": true, "okay": true, "vale": true,
		"dale": true, "confirmo": true, "confirmar": true, "yes": true,
		"correcto": true, "adelante": true,
	}
	negativeWords = map[string]bool{
		"no": true, "cancelar": true, "cancela": true, "cancel": true,
		"cancelalo": true, "cancélalo": true,
	}
)

// Generator produces ticket proposals, continuation questions and feedback
// classifications from conversation content. Every LLM call is bounded by a
// timeout and degrades to a deterministic heuristic on failure; nothing in
// this type returns a provider error to its caller.
type Generator struct {
	router        *llm.Router
	timeout       time.Duration
	fallbackTurns int
}

// NewGenerator creates a generator. fallbackTurns is the transcript length at
// which the enough-information heuristic fires when the provider is down.
func NewGenerator(router *llm.Router, timeout time.Duration, fallbackTurns int) *Generator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if fallbackTurns <= 0 {
		fallbackTurns = 6
	}
	return &Generator{
		router:        router,
		timeout:       timeout,
		fallbackTurns: fallbackTurns,
	}
}

// complete runs one bounded completion against the default provider
func (g *Generator) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	provider, err := g.router.GetProvider("")
	if err != nil {
		return "", fmt.Errorf("failed to get LLM provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := provider.Complete(ctx, llm.Request{
		Prompt:    prompt,
		MaxTokens: maxTokens,
	}, "")
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ShouldCreateTicket asks whether the transcript carries enough detail to
// file a ticket. On provider failure the answer falls back to a turn-count
// heuristic: three full exchanges are assumed to be enough.
func (g *Generator) ShouldCreateTicket(ctx context.Context, conv *domain.Conversation) bool {
	raw, err := g.complete(ctx, buildShouldCreatePrompt(conv), 8)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("should-create check failed, using turn-count heuristic")
		return len(conv.Turns) >= g.fallbackTurns
	}

	answer := strings.ToUpper(llm.ExtractText(raw))
	return strings.HasPrefix(answer, "SI") || strings.HasPrefix(answer, "SÍ") || strings.HasPrefix(answer, "YES")
}

// GenerateProposal derives a ticket proposal from the conversation. When
// prior is non-nil the proposal is a revision incorporating the user's
// requested modifications. Never fails: provider or parse errors produce a
// deterministic low-confidence fallback proposal.
func (g *Generator) GenerateProposal(ctx context.Context, conv *domain.Conversation, prior *domain.TicketProposal, mods map[string]string) *domain.TicketProposal {
	raw, err := g.complete(ctx, buildProposalPrompt(conv, prior, mods), 1024)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("proposal generation failed, using fallback proposal")
		return g.fallbackProposal(conv)
	}

	proposal, err := parseProposal(raw)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("proposal response unparseable, using fallback proposal")
		return g.fallbackProposal(conv)
	}
	return proposal
}

// fallbackProposal synthesizes the deterministic proposal used whenever
// generation fails: fixed title and labels, lowest priority, low confidence,
// full transcript embedded as the description.
func (g *Generator) fallbackProposal(conv *domain.Conversation) *domain.TicketProposal {
	return &domain.TicketProposal{
		Title:           fallbackTitle,
		Description:     "Transcripción de la conversación:\n" + conv.RenderHistory(),
		Priority:        domain.PriorityP3,
		Origin:          domain.OriginTeams,
		SuggestedLabels: fallbackLabels,
		AssigneeTeam:    "Tech Team",
		Confidence:      domain.ConfidenceLow,
	}
}

// GenerateContinuation produces the next clarifying question, falling back to
// a fixed question on provider failure.
func (g *Generator) GenerateContinuation(ctx context.Context, conv *domain.Conversation) string {
	raw, err := g.complete(ctx, buildContinuationPrompt(conv), 256)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("continuation generation failed, using fallback question")
		return fallbackContinuation
	}

	question := llm.ExtractText(raw)
	if question == "" {
		return fallbackContinuation
	}
	return question
}

// InterpretFeedback classifies the user's reply to a pending proposal into
// confirm, cancel or modify. Provider or parse failure degrades to keyword
// matching over the reply text.
func (g *Generator) InterpretFeedback(ctx context.Context, conv *domain.Conversation, reply string) domain.Feedback {
	raw, err := g.complete(ctx, buildFeedbackPrompt(conv.Proposal, reply), 512)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("feedback interpretation failed, using keyword fallback")
		return keywordFeedback(reply)
	}

	feedback, err := parseFeedback(raw)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("feedback response unparseable, using keyword fallback")
		return keywordFeedback(reply)
	}
	return feedback
}

type proposalPayload struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	SuggestedLabels []string `json:"suggested_labels"`
	AssigneeTeam    string   `json:"assignee_suggestion"`
	Confidence      string   `json:"confidence"`
}

// parseProposal extracts and validates the strict-JSON proposal from a raw
// completion. Title and priority are mandatory; everything else defaults.
func parseProposal(raw string) (*domain.TicketProposal, error) {
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var payload proposalPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse proposal JSON: %w", err)
	}

	if strings.TrimSpace(payload.Title) == "" {
		return nil, fmt.Errorf("proposal is missing a title")
	}

	priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(payload.Priority)))
	if !priority.Valid() {
		return nil, fmt.Errorf("proposal has invalid priority %q", payload.Priority)
	}

	confidence := domain.Confidence(strings.ToLower(strings.TrimSpace(payload.Confidence)))
	switch confidence {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
	default:
		confidence = domain.ConfidenceMedium
	}

	assignee := strings.TrimSpace(payload.AssigneeTeam)
	if assignee == "" {
		assignee = "Tech Team"
	}

	return &domain.TicketProposal{
		Title:           strings.TrimSpace(payload.Title),
		Description:     strings.TrimSpace(payload.Description),
		Priority:        priority,
		Origin:          domain.OriginTeams,
		SuggestedLabels: payload.SuggestedLabels,
		AssigneeTeam:    assignee,
		Confidence:      confidence,
	}, nil
}

type feedbackPayload struct {
	Action           string            `json:"action"`
	Modifications    map[string]string `json:"modifications"`
	FollowUpQuestion string            `json:"followUpQuestion"`
}

func parseFeedback(raw string) (domain.Feedback, error) {
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return domain.Feedback{}, fmt.Errorf("no JSON object in response")
	}

	var payload feedbackPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return domain.Feedback{}, fmt.Errorf("failed to parse feedback JSON: %w", err)
	}

	action := domain.FeedbackAction(strings.ToLower(strings.TrimSpace(payload.Action)))
	switch action {
	case domain.FeedbackConfirm, domain.FeedbackCancel, domain.FeedbackModify:
	default:
		return domain.Feedback{}, fmt.Errorf("unknown feedback action %q", payload.Action)
	}

	feedback := domain.Feedback{
		Action:           action,
		Modifications:    payload.Modifications,
		FollowUpQuestion: strings.TrimSpace(payload.FollowUpQuestion),
	}
	if feedback.Action == domain.FeedbackModify && feedback.FollowUpQuestion == "" {
		feedback.FollowUpQuestion = fallbackFollowUp
	}
	return feedback, nil
}

// keywordFeedback is the deterministic classification used when the provider
// is unavailable: affirmative words confirm, negative words cancel, anything
// else asks what to change.
func keywordFeedback(reply string) domain.Feedback {
	words := strings.FieldsFunc(strings.ToLower(reply), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for _, w := range words {
		if affirmativeWords[w] {
			return domain.Feedback{Action: domain.FeedbackConfirm}
		}
	}
	for _, w := range words {
		if negativeWords[w] {
			return domain.Feedback{Action: domain.FeedbackCancel}
		}
	}
	return domain.Feedback{
		Action:           domain.FeedbackModify,
		FollowUpQuestion: fallbackFollowUp,
	}
}
