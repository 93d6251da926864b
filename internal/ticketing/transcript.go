package ticketing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sapira-io/triage/internal/domain"
)

// Patterns that mark a user turn as worth surfacing on the ticket: error
// symptoms on one hand, the environment it happens in on the other.
var (
	errorPattern  = regexp.MustCompile(`(?i)(error|exception|crash|fall[oa]|falla|ca[ií]d[oa]|no funciona|timeout|5\d{2}|4\d{2})`)
	devicePattern = regexp.MustCompile(`(?i)(chrome|firefox|safari|edge|windows|macos|linux|android|ios|iphone|ipad|m[oó]vil|navegador|tablet)`)
)

// BuildTranscript assembles the conversation provenance payload attached to
// a submitted ticket.
func BuildTranscript(conv *domain.Conversation, proposal *domain.TicketProposal, maxKeyPoints int) Transcript {
	messages := make([]TranscriptMessage, 0, len(conv.Turns))
	for _, turn := range conv.Turns {
		author := conv.UserName
		if turn.Sender == domain.SenderBot {
			author = "Sapira Bot"
		}
		messages = append(messages, TranscriptMessage{
			Author:    author,
			Content:   turn.Text,
			Timestamp: turn.Timestamp,
		})
	}

	summary := fmt.Sprintf(
		"Ticket generado automáticamente desde una conversación de Teams. Prioridad sugerida %s con confianza %s. La conversación tuvo %d mensajes del usuario.",
		proposal.Priority, proposal.Confidence, conv.UserTurnCount(),
	)

	return Transcript{
		Participants: []string{conv.UserName, "Sapira Bot"},
		Messages:     messages,
		Analysis: Analysis{
			Summary:         summary,
			Priority:        proposal.Priority,
			SuggestedLabels: proposal.SuggestedLabels,
			KeyPoints:       ExtractKeyPoints(conv, maxKeyPoints),
		},
	}
}

// ExtractKeyPoints scans user turns for error and device/browser mentions.
// Each distinct match becomes one key point; the result is deduplicated and
// capped at max entries.
func ExtractKeyPoints(conv *domain.Conversation, max int) []string {
	if max <= 0 {
		max = 5
	}

	seen := make(map[string]bool)
	var points []string

	addMatches := func(turn string, pattern *regexp.Regexp, format string) {
		for _, match := range pattern.FindAllString(turn, -1) {
			key := strings.ToLower(match)
			if seen[key] || len(points) >= max {
				continue
			}
			seen[key] = true
			points = append(points, fmt.Sprintf(format, key))
		}
	}

	for _, turn := range conv.Turns {
		if turn.Sender != domain.SenderUser {
			continue
		}
		addMatches(turn.Text, errorPattern, "Síntoma mencionado: %s")
		addMatches(turn.Text, devicePattern, "Entorno mencionado: %s")
		if len(points) >= max {
			break
		}
	}

	return points
}
