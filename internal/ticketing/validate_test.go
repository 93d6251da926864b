package ticketing

import (
	"testing"

	"github.com/sapira-io/triage/internal/domain"
	"github.com/stretchr/testify/assert"
)

func validProposal() *domain.TicketProposal {
	return &domain.TicketProposal{
		Title:       "Fallo de login",
		Description: "Error 500 al iniciar sesión.",
		Priority:    domain.PriorityP2,
	}
}

func TestValidateProposal(t *testing.T) {
	t.Run("accepts a valid proposal", func(t *testing.T) {
		assert.NoError(t, ValidateProposal(validProposal()))
	})

	t.Run("rejects nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateProposal(nil), ErrInvalidProposal)
	})

	t.Run("title length boundary", func(t *testing.T) {
		p := validProposal()
		p.Title = "1234"
		assert.ErrorIs(t, ValidateProposal(p), ErrInvalidProposal)

		p.Title = "12345"
		assert.NoError(t, ValidateProposal(p))
	})

	t.Run("description length boundary", func(t *testing.T) {
		p := validProposal()
		p.Description = "123456789"
		assert.ErrorIs(t, ValidateProposal(p), ErrInvalidProposal)

		p.Description = "1234567890"
		assert.NoError(t, ValidateProposal(p))
	})

	t.Run("priority must be one of P0 to P3", func(t *testing.T) {
		p := validProposal()
		for _, priority := range []domain.TicketPriority{domain.PriorityP0, domain.PriorityP1, domain.PriorityP2, domain.PriorityP3} {
			p.Priority = priority
			assert.NoError(t, ValidateProposal(p))
		}

		p.Priority = "P4"
		assert.ErrorIs(t, ValidateProposal(p), ErrInvalidProposal)

		p.Priority = ""
		assert.ErrorIs(t, ValidateProposal(p), ErrInvalidProposal)
	})
}
