package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error
	LastMsgs []Message
}

func (m *MockClient) Chat(ctx context.Context, messages []Message) (string, error) {
	m.LastMsgs = messages
	return m.Response, m.Err
}
