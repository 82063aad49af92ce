package service

import (
	"context"
	"fmt"
	"strings"

	"gymconnect/internal/constants"
	"gymconnect/internal/models"
	"gymconnect/pkg/openai"

	"github.com/sirupsen/logrus"
)

// transferKeywords short-circuit reply generation to a human handoff.
// Matched case-insensitively as substrings of the inbound message; the
// completion API is never called on a match.
var transferKeywords = []string{
	"falar com atendente",
	"atendente",
	"humano",
	"pessoa",
	"gerente",
	"supervisor",
	"responsável",
	"quero falar com alguém",
	"preciso de ajuda humana",
	"não é um bot",
	"não é robô",
}

const (
	handoffResponse = "Entendi! Um de nossos atendentes entrará em contato com você em breve. 😊\n\nEnquanto isso, posso ajudar com mais alguma coisa?"

	fallbackResponse = "Desculpe, estou com dificuldades técnicas no momento. 😅\n\nPor favor, tente novamente em alguns instantes ou entre em contato pelo telefone."

	emptyReplyGreeting = "Olá! Como posso ajudar você hoje? 😊"
)

const systemPromptTemplate = `Você é um assistente virtual de atendimento da %s, uma academia de ginástica.

SEU OBJETIVO PRINCIPAL: Converter visitantes em clientes, agendando aulas experimentais e matrículas.

INFORMAÇÕES DA ACADEMIA:
- Nome: %s
- Endereço: %s
- Telefone: %s
- Horários: %s

REGRAS DE COMUNICAÇÃO:
1. Use linguagem INFORMAL, EDUCADA e COMERCIAL
2. Seja OBJETIVO - evite respostas muito longas (máximo 3-4 frases)
3. SEMPRE tente converter: ofereça aula experimental ou agendamento
4. Seja EMPOLGADO e ENCORAJADOR
5. Use emojis com moderação (1-2 por mensagem)

ESTRUTURA IDEAL DE RESPOSTA:
1. Responda a dúvida do cliente de forma clara
2. Gere empatia ou incentivo breve
3. Finalize SEMPRE com uma pergunta simples para avançar a conversa

TÓPICOS QUE VOCÊ DEVE DOMINAR:
- NUNCA informe valores numéricos.
- NUNCA invente preços, descontos ou promoções.
- Sempre diga que os valores variam conforme o plano e objetivos do aluno.
- Horários: Use as informações fornecidas acima
- Endereço: Use o endereço fornecido acima
- Aula experimental: SEMPRE ofereça e seja entusiasmado ou transfira para atendimento humano.
- Matrícula: Explique que pode ser feita presencialmente ou via WhatsApp
- Formas de pagamento: Mencione que aceita cartão, PIX e boleto

AULA EXPERIMENTAL (REGRA DE CONVERSÃO):
- Trate a aula experimental como gratuita e sem compromisso (mesmo que não seja explicitamente gratuita)
- Use termos como: "conhecer a academia", "sentir o treino", "ver se gosta"
- Sempre convide de forma leve, nunca forçada

TRANSFERÊNCIA PARA HUMANO:
Se o usuário pedir explicitamente para "falar com atendente", "humano", "pessoa", "gerente" ou similar,
ou se a dúvida for muito complexa/técnica, informe que um atendente entrará em contato em breve.

NUNCA invente informações que não foram fornecidas. Se não souber algo específico,
ofereça agendar uma visita ou transferir para atendimento humano.`

// LLMClient is the slice of the completion client the generator needs.
type LLMClient interface {
	ChatCompletion(ctx context.Context, messages []openai.Message) (string, error)
}

// ReplyGenerator produces the reply for an inbound message: either a
// canned human-handoff acknowledgment, a completion from the LLM, or a
// fixed fallback when the LLM is unreachable.
type ReplyGenerator struct {
	llm      LLMClient
	business models.BusinessConfig
	logger   *logrus.Logger
}

func NewReplyGenerator(llm LLMClient, business models.BusinessConfig, logger *logrus.Logger) *ReplyGenerator {
	return &ReplyGenerator{
		llm:      llm,
		business: business,
		logger:   logger,
	}
}

// Generate never fails: upstream API errors degrade to the fixed
// fallback text so the user always receives some reply, and an empty
// completion is replaced by a generic greeting.
func (g *ReplyGenerator) Generate(ctx context.Context, userMessage string, history []models.ConversationTurn) models.Reply {
	if ShouldTransferToHuman(userMessage) {
		return models.Reply{Text: handoffResponse, TransferredToHuman: true}
	}

	text, err := g.llm.ChatCompletion(ctx, g.buildMessages(userMessage, history))
	if err != nil {
		g.logger.WithError(err).Error("Reply generation failed, using fallback response")
		return models.Reply{Text: fallbackResponse, Fallback: true}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = emptyReplyGreeting
	}

	return models.Reply{Text: text}
}

// ShouldTransferToHuman reports whether the message asks for a human
// agent.
func ShouldTransferToHuman(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range transferKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// buildMessages assembles the completion request: system prompt, the
// last turns replayed as alternating user/assistant messages, then the
// current message.
func (g *ReplyGenerator) buildMessages(userMessage string, history []models.ConversationTurn) []openai.Message {
	if len(history) > constants.HistoryWindow {
		history = history[len(history)-constants.HistoryWindow:]
	}

	messages := make([]openai.Message, 0, 2*len(history)+2)
	messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: g.systemPrompt()})

	for _, turn := range history {
		if turn.MessageText != "" {
			messages = append(messages, openai.Message{Role: openai.RoleUser, Content: turn.MessageText})
		}
		if turn.ResponseText != "" {
			messages = append(messages, openai.Message{Role: openai.RoleAssistant, Content: turn.ResponseText})
		}
	}

	return append(messages, openai.Message{Role: openai.RoleUser, Content: userMessage})
}

func (g *ReplyGenerator) systemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate,
		g.business.Name, g.business.Name, g.business.Address, g.business.Phone, g.business.Hours)
}
