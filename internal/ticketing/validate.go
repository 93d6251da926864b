package ticketing

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sapira-io/triage/internal/domain"
)

// ErrInvalidProposal marks proposals that fail the submission guard
var ErrInvalidProposal = errors.New("invalid ticket proposal")

var validate = validator.New()

// ValidateProposal enforces the submission contract: title of at least 5
// characters, description of at least 10, priority one of P0..P3. Runs as a
// guard at the top of the creation flow so malformed data never reaches the
// ticketing collaborator.
func ValidateProposal(p *domain.TicketProposal) error {
	if p == nil {
		return fmt.Errorf("%w: no proposal", ErrInvalidProposal)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}
	return nil
}
