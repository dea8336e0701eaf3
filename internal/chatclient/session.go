package chatclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Remitentes de un turno.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// WelcomeText es el mensaje semilla que abre toda conversación nueva.
const WelcomeText = "Hi! I'm The Globe's assistant. Ask me anything about the blog."

// Claves del storage durable. Se eliminan juntas en Reset.
const (
	storageKeyMessages       = "chat_messages"
	storageKeyConversationID = "chat_conversation_id"
)

// Message es un turno de la transcripción del widget.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Store es el dueño de la transcripción y del id de conversación. El storage
// inyectado es un espejo durable; mientras el Store vive, la memoria manda.
type Store struct {
	mu             sync.Mutex
	storage        Storage
	now            func() time.Time
	messages       []Message
	conversationID string
}

func NewStore(storage Storage) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
	}
	s.messages = []Message{s.seedMessage()}
	return s
}

// Initialize restaura una sesión persistida. Solo cuenta como conversación
// real una secuencia con más de un mensaje; una semilla sola, o un blob que
// no parsea, se descartan a favor de una sesión nueva. Nunca falla.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.storage.Get(storageKeyMessages); ok {
		var saved []Message
		if err := json.Unmarshal([]byte(raw), &saved); err == nil && len(saved) > 1 {
			s.messages = saved
		}
	}
	if id, ok := s.storage.Get(storageKeyConversationID); ok && id != "" {
		s.conversationID = id
	}
}

// Messages devuelve una copia de la transcripción en orden de conversación.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ConversationID devuelve el id opaco asignado por el servidor, o vacío.
func (s *Store) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Append agrega al final de la transcripción (append-only) y espeja la
// secuencia completa al storage en cuanto hay más que la semilla.
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	if len(s.messages) > 1 {
		if raw, err := json.Marshal(s.messages); err == nil {
			s.storage.Set(storageKeyMessages, string(raw))
		}
	}
}

// SetConversationID guarda el id en memoria y lo espeja cuando no es vacío.
func (s *Store) SetConversationID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversationID = id
	if id != "" {
		s.storage.Set(storageKeyConversationID, id)
	}
}

// Reset vuelve a la semilla única, vacía el id de conversación y elimina
// ambas entradas persistidas.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = []Message{s.seedMessage()}
	s.conversationID = ""
	s.storage.Remove(storageKeyMessages)
	s.storage.Remove(storageKeyConversationID)
}

// NewMessage construye un turno con id único y timestamp local.
func (s *Store) NewMessage(sender, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now().UTC(),
	}
}

func (s *Store) seedMessage() Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      WelcomeText,
		Sender:    SenderAssistant,
		Timestamp: s.now().UTC(),
	}
}
