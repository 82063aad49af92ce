package service

import (
	"context"

	"gymconnect/internal/models"
	"gymconnect/pkg/openai"

	"github.com/stretchr/testify/mock"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) ChatCompletion(ctx context.Context, messages []openai.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertLead(ctx context.Context, platform models.Platform, userID string, userName, phone *string) error {
	args := m.Called(ctx, platform, userID, userName, phone)
	return args.Error(0)
}

func (m *mockStore) AppendTurn(ctx context.Context, platform models.Platform, userID, messageText, responseText string, transferredToHuman bool) (int64, error) {
	args := m.Called(ctx, platform, userID, messageText, responseText, transferredToHuman)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) GetRecentHistory(ctx context.Context, platform models.Platform, userID string, limit int) ([]models.ConversationTurn, error) {
	args := m.Called(ctx, platform, userID, limit)
	if turns := args.Get(0); turns != nil {
		return turns.([]models.ConversationTurn), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, userMessage string, history []models.ConversationTurn) models.Reply {
	args := m.Called(ctx, userMessage, history)
	return args.Get(0).(models.Reply)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendText(ctx context.Context, phone, text string) error {
	args := m.Called(ctx, phone, text)
	return args.Error(0)
}
