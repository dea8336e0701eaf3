package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AgentClient define la interfaz para conversar con un LLM.
type AgentClient interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Message es un turno {role, content} del protocolo chat-completions.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RateLimitError indica que el proveedor rechazó la petición por cuota.
// RetryAfter es la espera sugerida en segundos.
type RateLimitError struct {
	RetryAfter int
	Detail     string
}

func (e *RateLimitError) Error() string {
	if e.Detail != "" {
		return "llm rate limited: " + e.Detail
	}
	return fmt.Sprintf("llm rate limited: retry in %d seconds", e.RetryAfter)
}

const defaultRetryAfterSeconds = 60

var retrySecondsPattern = regexp.MustCompile(`(\d+)\s*second`)

// HTTPClient implementa AgentClient usando una API OpenAI-compatible.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando a la API de chat completions.
func NewHTTPClient(baseURL, apiKey, model string, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

func (c *HTTPClient) Chat(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", rateLimitFromResponse(resp.Header.Get("Retry-After"), respBody)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("llm error response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return "", fmt.Errorf("llm http error: status=%d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if cr.Error != nil {
		if strings.Contains(strings.ToLower(cr.Error.Code), "rate_limit") {
			return "", rateLimitFromMessage(cr.Error.Message)
		}
		return "", fmt.Errorf("llm api error: %s", cr.Error.Message)
	}

	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm empty response")
	}

	return cr.Choices[0].Message.Content, nil
}

// rateLimitFromResponse arma el error tipado a partir del header Retry-After
// o, en su defecto, del texto de error del proveedor.
func rateLimitFromResponse(retryAfterHeader string, body []byte) *RateLimitError {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfterHeader)); err == nil && secs > 0 {
		return &RateLimitError{RetryAfter: secs, Detail: providerErrorMessage(body)}
	}
	return rateLimitFromMessage(providerErrorMessage(body))
}

func rateLimitFromMessage(message string) *RateLimitError {
	retryAfter := defaultRetryAfterSeconds
	if m := retrySecondsPattern.FindStringSubmatch(message); m != nil {
		if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
			retryAfter = secs
		}
	}
	return &RateLimitError{RetryAfter: retryAfter, Detail: message}
}

func providerErrorMessage(body []byte) string {
	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err == nil && cr.Error != nil {
		return cr.Error.Message
	}
	return ""
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
