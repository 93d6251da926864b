package triage

import (
	"context"

	"github.com/sapira-io/triage/internal/domain"
	"github.com/sapira-io/triage/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockProvider mocks llm.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockProvider) Complete(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockTicketCreator mocks the TicketCreator interface
type MockTicketCreator struct {
	mock.Mock
}

func (m *MockTicketCreator) Create(ctx context.Context, conv *domain.Conversation, proposal *domain.TicketProposal) (*domain.CreatedTicket, error) {
	args := m.Called(ctx, conv, proposal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreatedTicket), args.Error(1)
}

// MockSender mocks the Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendReply(ctx context.Context, msg domain.InboundMessage, text string) error {
	args := m.Called(ctx, msg, text)
	return args.Error(0)
}
