package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewHTTPClient(server.URL, "test-key", "test-model", nil)
	client.client = server.Client()
	return client
}

func TestHTTPClientChatSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hola"}}]}`)
	})

	reply, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "hola" {
		t.Fatalf("expected reply %q, got %q", "hola", reply)
	}
}

func TestHTTPClientChatRateLimitHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":"rate_limit_exceeded","message":"slow down"}}`)
	})

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfter != 30 {
		t.Fatalf("expected retry after 30, got %d", rle.RetryAfter)
	}
}

func TestHTTPClientChatRateLimitMessageFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":"rate_limit_exceeded","message":"Please retry after 45 seconds."}}`)
	})

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfter != 45 {
		t.Fatalf("expected retry after 45, got %d", rle.RetryAfter)
	}
}

func TestHTTPClientChatRateLimitDefault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfter != defaultRetryAfterSeconds {
		t.Fatalf("expected default retry delay, got %d", rle.RetryAfter)
	}
}

func TestHTTPClientChatRateLimitInBody(t *testing.T) {
	// Algunos proveedores devuelven 200 con el error embebido en el body.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":"rate_limit_exceeded","message":"retry in 15 seconds"}}`)
	})

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfter != 15 {
		t.Fatalf("expected retry after 15, got %d", rle.RetryAfter)
	}
}

func TestHTTPClientChatServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("expected error on 502")
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		t.Fatalf("5xx must not be classified as rate limit")
	}
}

func TestHTTPClientChatEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	if _, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}
