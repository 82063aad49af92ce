package service

import (
	"context"
	"errors"
	"testing"

	"gymconnect/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(store *mockStore, gen *mockGenerator, sender *mockSender) *Pipeline {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewPipeline(store, gen, sender, logger)
}

func TestProcessWhatsAppHappyPath(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	payload := []byte(`{"phone": "5511999999999", "message": "quero treinar", "name": "Maria"}`)

	store.On("UpsertLead", mock.Anything, models.PlatformWhatsApp, "5511999999999", mock.Anything, mock.Anything).Return(nil)
	store.On("GetRecentHistory", mock.Anything, models.PlatformWhatsApp, "5511999999999", 5).Return([]models.ConversationTurn(nil), nil)
	gen.On("Generate", mock.Anything, "quero treinar", mock.Anything).Return(models.Reply{Text: "Que ótimo!"})
	store.On("AppendTurn", mock.Anything, models.PlatformWhatsApp, "5511999999999", "quero treinar", "Que ótimo!", false).Return(int64(1), nil)
	sender.On("SendText", mock.Anything, "5511999999999", "Que ótimo!").Return(nil)

	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp, payload)
	require.NoError(t, err)
	assert.False(t, result.Ignored)
	assert.Equal(t, "Que ótimo!", result.Response)
	assert.False(t, result.TransferredToHuman)

	store.AssertExpectations(t)
	gen.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestProcessStatusOnlyEventIsIgnored(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	payload := []byte(`{"entry": [{"changes": [{"value": {"statuses": [{"status": "delivered"}]}}]}]}`)

	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp, payload)
	require.NoError(t, err)
	assert.True(t, result.Ignored)

	store.AssertNotCalled(t, "UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "AppendTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEmptyMessageIsRejected(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp, []byte(`{"foo": "bar"}`))
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Nil(t, result)

	store.AssertNotCalled(t, "UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessUpsertFailureAborts(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	store.On("UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp,
		[]byte(`{"phone": "5511", "message": "oi"}`))
	require.Error(t, err)
	assert.Nil(t, result)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessHistoryFailureAborts(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	store.On("UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("GetRecentHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("locked"))

	_, err := pipeline.Process(context.Background(), models.PlatformWhatsApp,
		[]byte(`{"phone": "5511", "message": "oi"}`))
	require.Error(t, err)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSendFailureIsNotFatal(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	store.On("UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("GetRecentHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(models.Reply{Text: "resposta"})
	store.On("AppendTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	sender.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("provider down"))

	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp,
		[]byte(`{"phone": "5511", "message": "oi"}`))
	require.NoError(t, err)
	assert.Equal(t, "resposta", result.Response)
	sender.AssertExpectations(t)
}

func TestProcessInstagramNeverSends(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	store.On("UpsertLead", mock.Anything, models.PlatformInstagram, "ig-1", mock.Anything, mock.Anything).Return(nil)
	store.On("GetRecentHistory", mock.Anything, models.PlatformInstagram, "ig-1", 5).Return(nil, nil)
	gen.On("Generate", mock.Anything, "oi", mock.Anything).Return(models.Reply{Text: "Olá!"})
	store.On("AppendTurn", mock.Anything, models.PlatformInstagram, "ig-1", "oi", "Olá!", false).Return(int64(1), nil)

	result, err := pipeline.Process(context.Background(), models.PlatformInstagram,
		[]byte(`{"sender_id": "ig-1", "text": "oi"}`))
	require.NoError(t, err)
	assert.Equal(t, "Olá!", result.Response)

	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessWhatsAppWithoutPhoneSkipsSend(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	store.On("UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("GetRecentHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(models.Reply{Text: "ok"})
	store.On("AppendTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	// userId without a phone alias leaves Phone empty.
	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp,
		[]byte(`{"userId": "anon-1", "message": "oi"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Response)

	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEscalationPersistsTransferFlag(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{}
	sender := &mockSender{}
	pipeline := newTestPipeline(store, gen, sender)

	store.On("UpsertLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("GetRecentHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(models.Reply{Text: "Um atendente entrará em contato", TransferredToHuman: true})
	store.On("AppendTurn", mock.Anything, models.PlatformWhatsApp, "5511", "quero atendente", "Um atendente entrará em contato", true).Return(int64(1), nil)
	sender.On("SendText", mock.Anything, "5511", mock.Anything).Return(nil)

	result, err := pipeline.Process(context.Background(), models.PlatformWhatsApp,
		[]byte(`{"phone": "5511", "message": "quero atendente"}`))
	require.NoError(t, err)
	assert.True(t, result.TransferredToHuman)
	store.AssertExpectations(t)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("x"))
	assert.Equal(t, "x", *nullable("x"))
}
