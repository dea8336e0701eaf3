package domain

import "time"

// Roles de un turno de conversación.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage es un turno persistido de una conversación con el asistente.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatTurn es la forma {role, content} que viaja por el API de chat.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
