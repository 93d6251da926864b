package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sapira-io/triage/internal/domain"
)

// buildShouldCreatePrompt asks for a bare yes/no on whether the transcript
// carries enough concrete detail to file a support ticket.
func buildShouldCreatePrompt(conv *domain.Conversation) string {
	return fmt.Sprintf(`Eres un asistente de soporte técnico que decide si una conversación contiene suficiente información específica para crear un ticket de soporte.

Una conversación tiene suficiente información cuando describe un problema concreto: qué falla, dónde ocurre y, de ser posible, desde cuándo o a quiénes afecta.

Conversación:
%s

¿Hay suficiente información específica para crear un ticket? Responde únicamente SI o NO.`, conv.RenderHistory())
}

// buildProposalPrompt asks for a strict-JSON ticket proposal. When a prior
// proposal and user modifications exist, the prompt carries them so the model
// regenerates instead of starting over.
func buildProposalPrompt(conv *domain.Conversation, prior *domain.TicketProposal, mods map[string]string) string {
	var revision string
	if prior != nil {
		revision = fmt.Sprintf(`

Propuesta anterior:
- Título: %s
- Descripción: %s
- Prioridad: %s

El usuario pidió cambios%s. Genera una propuesta revisada que los incorpore.`,
			prior.Title, prior.Description, prior.Priority, renderModifications(mods))
	}

	return fmt.Sprintf(`Eres un asistente de soporte técnico. A partir de la conversación, genera una propuesta de ticket de soporte.

Conversación:
%s%s

Responde SOLO con un objeto JSON, sin texto adicional, con esta forma exacta:
{
  "title": "resumen corto y claro del problema",
  "description": "descripción completa del problema con todos los detalles mencionados",
  "priority": "P0, P1, P2 o P3 (P0 = más urgente)",
  "suggested_labels": ["etiquetas", "relevantes"],
  "assignee_suggestion": "Tech Team, Product Team o Infraestructura",
  "confidence": "high, medium o low"
}`, conv.RenderHistory(), revision)
}

func renderModifications(mods map[string]string) string {
	if len(mods) == 0 {
		return ""
	}
	keys := make([]string, 0, len(mods))
	for k := range mods {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("\n- %s: %s", k, mods[k]))
	}
	return b.String()
}

// buildContinuationPrompt asks for the single next clarifying question
func buildContinuationPrompt(conv *domain.Conversation) string {
	return fmt.Sprintf(`Eres un asistente de soporte técnico que está recopilando información sobre un problema.

Conversación hasta ahora:
%s

Formula la siguiente pregunta que ayude a entender mejor el problema. Máximo 2 frases y no repitas preguntas ya hechas. Responde solo con la pregunta.`, conv.RenderHistory())
}

// buildFeedbackPrompt classifies the user's reply to a pending proposal
func buildFeedbackPrompt(proposal *domain.TicketProposal, reply string) string {
	return fmt.Sprintf(`Se le propuso al usuario crear este ticket de soporte:
- Título: %s
- Descripción: %s
- Prioridad: %s

El usuario respondió: "%s"

Clasifica la respuesta en una de tres acciones: "confirm" (acepta crear el ticket), "cancel" (no quiere el ticket) o "modify" (quiere cambiar algo).

Responde SOLO con un objeto JSON:
{
  "action": "confirm, cancel o modify",
  "modifications": {"campo": "cambio pedido"},
  "followUpQuestion": "pregunta de seguimiento si la acción es modify"
}
Los campos modifications y followUpQuestion son opcionales.`, proposal.Title, proposal.Description, proposal.Priority, reply)
}
