package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sapira-io/triage/internal/api/response"
	"github.com/sapira-io/triage/internal/domain"
	"github.com/sapira-io/triage/internal/repository/redis"
	"github.com/sapira-io/triage/internal/teams"
	"github.com/sapira-io/triage/internal/triage"
)

const fallbackErrorText = "Lo siento, algo salió mal procesando tu mensaje. Por favor, intenta de nuevo."

// MessagesHandler is the Bot Framework webhook endpoint
type MessagesHandler struct {
	triageService *triage.Service
	sender        triage.Sender
	rateLimiter   *redis.RateLimiter
}

// NewMessagesHandler creates a new messages handler. rateLimiter may be nil
// to disable flood control.
func NewMessagesHandler(triageService *triage.Service, sender triage.Sender, rateLimiter *redis.RateLimiter) *MessagesHandler {
	return &MessagesHandler{
		triageService: triageService,
		sender:        sender,
		rateLimiter:   rateLimiter,
	}
}

// Post handles one inbound activity. Malformed payloads get a 400;
// non-message activities (typing, membership updates) are acknowledged and
// dropped; anything unexpected escaping the orchestrator gets a best-effort
// apology sent back to the user plus a 500 for the channel's monitoring.
func (h *MessagesHandler) Post(w http.ResponseWriter, r *http.Request) {
	activity, err := teams.ParseActivity(r.Body)
	if err != nil {
		response.BadRequest(w, "invalid activity")
		return
	}

	msg, err := activity.ToInbound()
	if err != nil {
		if errors.Is(err, teams.ErrNotUserMessage) {
			response.OK(w, map[string]string{"status": "ignored"})
			return
		}
		response.BadRequest(w, "invalid activity")
		return
	}

	if !h.allow(r, msg) {
		response.TooManyRequests(w, "rate limit exceeded")
		return
	}

	if err := h.triageService.HandleMessage(r.Context(), msg); err != nil {
		log.Error().Err(err).
			Str("conversation_id", msg.ConversationID).
			Msg("message handling failed")

		// Best-effort fallback so the user is not left hanging
		if sendErr := h.sender.SendReply(r.Context(), msg, fallbackErrorText); sendErr != nil {
			log.Error().Err(sendErr).
				Str("conversation_id", msg.ConversationID).
				Msg("failed to send fallback message")
		}
		response.InternalError(w, "message handling failed")
		return
	}

	response.Accepted(w, map[string]string{"status": "processed"})
}

// allow applies per-sender flood control; a rate limiter failure lets the
// message through rather than dropping it.
func (h *MessagesHandler) allow(r *http.Request, msg domain.InboundMessage) bool {
	if h.rateLimiter == nil {
		return true
	}

	allowed, remaining, _, err := h.rateLimiter.Allow(r.Context(), msg.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("rate limiter unavailable, allowing message")
		return true
	}
	if !allowed {
		log.Warn().
			Str("user_id", msg.UserID).
			Int("remaining", remaining).
			Msg("sender rate limited")
	}
	return allowed
}
