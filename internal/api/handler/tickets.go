package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sapira-io/triage/internal/api/response"
	"github.com/sapira-io/triage/internal/domain"
)

const defaultTicketLimit = 50

// TicketsHandler exposes the audit trail of created tickets
type TicketsHandler struct {
	repo domain.TicketRepository
}

func NewTicketsHandler(repo domain.TicketRepository) *TicketsHandler {
	return &TicketsHandler{repo: repo}
}

// List returns the most recently created tickets, newest first
func (h *TicketsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultTicketLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	records, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		response.InternalError(w, "failed to list tickets")
		return
	}

	response.OK(w, map[string]any{
		"tickets": records,
		"count":   len(records),
	})
}

// ListByConversation returns the tickets created from one conversation,
// oldest first
func (h *TicketsHandler) ListByConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		response.BadRequest(w, "conversation id is required")
		return
	}

	records, err := h.repo.ListByConversation(r.Context(), conversationID)
	if err != nil {
		response.InternalError(w, "failed to list tickets")
		return
	}

	response.OK(w, map[string]any{
		"tickets": records,
		"count":   len(records),
	})
}
