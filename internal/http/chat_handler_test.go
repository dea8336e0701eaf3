package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/llm"
	"github.com/waritsan/theglobe/internal/service"
)

type mockChatLimiter struct {
	allowed    bool
	retryAfter int
	lastKey    string
}

func (m *mockChatLimiter) Allow(key string) (bool, int) {
	m.lastKey = key
	return m.allowed, m.retryAfter
}

func setupChatRouter(client llm.AgentClient, limiter service.ChatRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	chatSvc := service.NewChatService(client, nil, zap.NewNop())
	handler := NewChatHandler(zap.NewNop(), chatSvc, limiter)
	r := gin.New()
	r.POST("/chat", handler.Chat)
	return r
}

func postChat(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatEndpointSuccess(t *testing.T) {
	r := setupChatRouter(&llm.MockClient{Response: "hi"}, nil)

	w := postChat(r, `{"message":"hola"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Response       string `json:"response"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "hi" {
		t.Fatalf("expected response %q, got %q", "hi", resp.Response)
	}
	if resp.ConversationID == "" {
		t.Fatalf("expected conversation id assigned")
	}
}

func TestChatEndpointMissingMessage(t *testing.T) {
	r := setupChatRouter(&llm.MockClient{Response: "hi"}, nil)

	w := postChat(r, `{"conversation_id":"abc"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatEndpointProviderRateLimit(t *testing.T) {
	client := &llm.MockClient{Err: &llm.RateLimitError{
		RetryAfter: 30,
		Detail:     "Rate limit exceeded. Try again in 30 seconds.",
	}}
	r := setupChatRouter(client, nil)

	w := postChat(r, `{"message":"hola"}`)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected Retry-After 30, got %q", got)
	}
	if !strings.Contains(w.Body.String(), "30 seconds") {
		t.Fatalf("expected detail naming the delay, got %s", w.Body.String())
	}
}

func TestChatEndpointLimiterDenies(t *testing.T) {
	client := &llm.MockClient{Response: "hi"}
	limiter := &mockChatLimiter{allowed: false, retryAfter: 42}
	r := setupChatRouter(client, limiter)

	w := postChat(r, `{"message":"hola"}`)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}
	if client.LastMsgs != nil {
		t.Fatalf("llm must not be called when the limiter denies")
	}
	if limiter.lastKey == "" {
		t.Fatalf("expected limiter keyed by client ip")
	}
}

func TestChatEndpointGenericFailure(t *testing.T) {
	r := setupChatRouter(&llm.MockClient{Err: errHelper("llm exploded")}, nil)

	w := postChat(r, `{"message":"hola"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Chat error") {
		t.Fatalf("expected chat error detail, got %s", w.Body.String())
	}
}

type errHelper string

func (e errHelper) Error() string { return string(e) }
