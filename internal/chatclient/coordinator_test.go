package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type capturedRequest struct {
	Message             string `json:"message"`
	ConversationHistory []turn `json:"conversation_history"`
	ConversationID      string `json:"conversation_id"`
	raw                 string
}

// newTestExchange levanta un servidor de chat falso y un coordinator con
// reloj falso y timer dormido.
func newTestExchange(t *testing.T, handler http.HandlerFunc) (*Coordinator, *Store, *BackoffTimer, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := NewStore(NewMemStorage())
	timer, nowPtr := newTestTimer(nil)

	coordinator := NewCoordinator(store, timer, server.URL, server.Client(), nil)
	coordinator.now = func() time.Time { return *nowPtr }

	return coordinator, store, timer, server
}

func captureRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read request body: %v", err)
	}
	var req capturedRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	req.raw = string(raw)
	return req
}

func TestCoordinatorSendEmptyInputIsNoop(t *testing.T) {
	calls := 0
	coordinator, store, _, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	coordinator.Send(context.Background(), "   ")

	if calls != 0 {
		t.Fatalf("expected no request for empty input")
	}
	if len(store.Messages()) != 1 {
		t.Fatalf("expected transcript untouched, got %d messages", len(store.Messages()))
	}
}

func TestCoordinatorSendSuccess(t *testing.T) {
	var got capturedRequest
	coordinator, store, _, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		got = captureRequest(t, r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response":"hi","conversation_id":"abc"}`)
	})

	coordinator.Send(context.Background(), "hello")

	if got.Message != "hello" {
		t.Fatalf("expected message %q, got %q", "hello", got.Message)
	}
	if len(got.ConversationHistory) != 0 {
		t.Fatalf("first exchange must carry empty history, got %+v", got.ConversationHistory)
	}
	if strings.Contains(got.raw, "conversation_id") {
		t.Fatalf("empty conversation id must be omitted: %s", got.raw)
	}

	msgs := store.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected seed+user+assistant, got %d", len(msgs))
	}
	if msgs[1].Sender != SenderUser || msgs[1].Text != "hello" {
		t.Fatalf("expected optimistic user turn, got %+v", msgs[1])
	}
	if msgs[2].Sender != SenderAssistant || msgs[2].Text != "hi" {
		t.Fatalf("expected assistant turn %q, got %+v", "hi", msgs[2])
	}
	if store.ConversationID() != "abc" {
		t.Fatalf("expected conversation id %q, got %q", "abc", store.ConversationID())
	}
}

func TestCoordinatorSendsStoredConversationID(t *testing.T) {
	var got capturedRequest
	coordinator, store, _, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		got = captureRequest(t, r)
		fmt.Fprint(w, `{"response":"ok"}`)
	})
	store.SetConversationID("conv-7")

	coordinator.Send(context.Background(), "hola")

	if got.ConversationID != "conv-7" {
		t.Fatalf("expected conversation id forwarded, got %q", got.ConversationID)
	}
}

func TestCoordinatorHistoryWindow(t *testing.T) {
	var got capturedRequest
	coordinator, store, _, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		got = captureRequest(t, r)
		fmt.Fprint(w, `{"response":"ok"}`)
	})

	// 12 turnos previos alternando user/assistant.
	for i := 0; i < 12; i++ {
		sender := SenderUser
		if i%2 == 1 {
			sender = SenderAssistant
		}
		store.Append(store.NewMessage(sender, fmt.Sprintf("turn-%d", i)))
	}

	coordinator.Send(context.Background(), "current")

	if len(got.ConversationHistory) != 10 {
		t.Fatalf("expected history bounded to 10, got %d", len(got.ConversationHistory))
	}
	// Los últimos 10 previos son turn-2..turn-11; el input actual no viaja en history.
	for i, h := range got.ConversationHistory {
		want := fmt.Sprintf("turn-%d", i+2)
		if h.Content != want {
			t.Fatalf("history[%d]: expected %q, got %q", i, want, h.Content)
		}
		wantRole := SenderUser
		if (i+2)%2 == 1 {
			wantRole = SenderAssistant
		}
		if h.Role != wantRole {
			t.Fatalf("history[%d]: expected role %q, got %q", i, wantRole, h.Role)
		}
	}
	for _, h := range got.ConversationHistory {
		if h.Content == WelcomeText {
			t.Fatalf("seed must not be sent in history")
		}
		if h.Content == "current" {
			t.Fatalf("current input must not be duplicated in history")
		}
	}
}

func TestCoordinatorRateLimitRetryAfterHeader(t *testing.T) {
	calls := 0
	coordinator, store, timer, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"detail":"Rate limit exceeded. Try again in 30 seconds."}`)
	})

	coordinator.Send(context.Background(), "hola")

	if timer.SecondsRemaining() != 30 {
		t.Fatalf("expected 30 seconds of backoff, got %d", timer.SecondsRemaining())
	}
	msgs := store.Messages()
	last := msgs[len(msgs)-1]
	if last.Sender != SenderAssistant || !strings.Contains(last.Text, "30") {
		t.Fatalf("expected rate-limit notice naming the delay, got %+v", last)
	}

	// Con el backoff activo, nuevos envíos se descartan.
	coordinator.Send(context.Background(), "otra")
	if calls != 1 {
		t.Fatalf("expected send gated during backoff, got %d calls", calls)
	}
	if len(store.Messages()) != len(msgs) {
		t.Fatalf("expected transcript untouched during backoff")
	}
}

func TestCoordinatorRateLimitDetailFallback(t *testing.T) {
	coordinator, _, timer, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"detail":"retry in 45 seconds"}`)
	})

	coordinator.Send(context.Background(), "hola")

	if timer.SecondsRemaining() != 45 {
		t.Fatalf("expected 45 seconds from detail, got %d", timer.SecondsRemaining())
	}
}

func TestCoordinatorRateLimitDefaultDelay(t *testing.T) {
	coordinator, _, timer, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `backend says no`)
	})

	coordinator.Send(context.Background(), "hola")

	if timer.SecondsRemaining() != 60 {
		t.Fatalf("expected default 60 seconds, got %d", timer.SecondsRemaining())
	}
}

func TestCoordinatorServerErrorAppendsApology(t *testing.T) {
	coordinator, store, _, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	coordinator.Send(context.Background(), "hola")

	msgs := store.Messages()
	last := msgs[len(msgs)-1]
	if last.Sender != SenderAssistant || last.Text != apologyText {
		t.Fatalf("expected apology notice, got %+v", last)
	}
}

func TestCoordinatorBadJSONAppendsApology(t *testing.T) {
	coordinator, store, _, _ := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `this is not json`)
	})

	coordinator.Send(context.Background(), "hola")

	msgs := store.Messages()
	if msgs[len(msgs)-1].Text != apologyText {
		t.Fatalf("expected apology after parse failure, got %+v", msgs[len(msgs)-1])
	}
}

func TestCoordinatorTransportFailureAppendsApology(t *testing.T) {
	coordinator, store, _, server := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	coordinator.Send(context.Background(), "hola")

	msgs := store.Messages()
	if msgs[len(msgs)-1].Text != apologyText {
		t.Fatalf("expected apology after transport failure, got %+v", msgs[len(msgs)-1])
	}
	if msgs[len(msgs)-2].Sender != SenderUser {
		t.Fatalf("optimistic user turn must survive the failure")
	}
}
