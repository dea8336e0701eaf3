package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/domain"
	"github.com/waritsan/theglobe/internal/llm"
	"github.com/waritsan/theglobe/internal/repository"
)

// historyWindow acota cuántos turnos previos se reenvían al LLM.
const historyWindow = 10

const assistantInstructions = "You are The Globe's helpful assistant."

var ErrChatInvalidInput = errors.New("chat invalid input")

// ChatService resuelve un intercambio de chat: arma el contexto de la
// conversación, llama al LLM y persiste ambos turnos.
type ChatService struct {
	llmClient llm.AgentClient
	messages  repository.ChatMessageRepository
	logger    *zap.Logger
}

func NewChatService(llmClient llm.AgentClient, messages repository.ChatMessageRepository, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		llmClient: llmClient,
		messages:  messages,
		logger:    logger,
	}
}

// Chat procesa un mensaje del usuario y devuelve la respuesta del asistente
// junto con el id de conversación (asignado aquí en el primer intercambio).
// El contexto del servidor tiene prioridad sobre el historial del cliente.
func (s *ChatService) Chat(ctx context.Context, userMessage string, history []domain.ChatTurn, conversationID string) (string, string, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return "", "", ErrChatInvalidInput
	}

	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	prior := s.conversationContext(ctx, conversationID, history)

	msgs := make([]llm.Message, 0, len(prior)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: assistantInstructions})
	msgs = append(msgs, prior...)
	msgs = append(msgs, llm.Message{Role: domain.RoleUser, Content: userMessage})

	s.persist(ctx, conversationID, domain.RoleUser, userMessage)

	reply, err := s.llmClient.Chat(ctx, msgs)
	if err != nil {
		return "", conversationID, err
	}

	s.persist(ctx, conversationID, domain.RoleAssistant, reply)

	return reply, conversationID, nil
}

// conversationContext devuelve los turnos previos acotados a historyWindow,
// preferentemente desde lo persistido; si no hay nada, usa el historial del cliente.
func (s *ChatService) conversationContext(ctx context.Context, conversationID string, history []domain.ChatTurn) []llm.Message {
	if s.messages != nil {
		stored, err := s.messages.ListByConversationID(ctx, conversationID, historyWindow)
		if err != nil {
			s.logger.Warn("list conversation failed", zap.Error(err), zap.String("conversation_id", conversationID))
		} else if len(stored) > 0 {
			msgs := make([]llm.Message, 0, len(stored))
			for _, m := range stored {
				msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
			}
			return msgs
		}
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, t := range history {
		role := t.Role
		if role != domain.RoleAssistant {
			role = domain.RoleUser
		}
		if t.Content != "" {
			msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
		}
	}
	return msgs
}

// persist guarda un turno; un fallo de persistencia no corta el intercambio.
func (s *ChatService) persist(ctx context.Context, conversationID, role, content string) {
	if s.messages == nil {
		return
	}
	msg := domain.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Warn("persist chat turn failed", zap.Error(err), zap.String("conversation_id", conversationID))
	}
}
