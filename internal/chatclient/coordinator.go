package chatclient

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
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// apologyText es el aviso genérico ante fallas de transporte o parseo.
const apologyText = "Sorry, something went wrong while reaching the assistant. Please try again."

const defaultBackoffSeconds = 60

var detailSecondsPattern = regexp.MustCompile(`(\d+)\s*second`)

// Coordinator convierte el texto del usuario en un intercambio contra el
// endpoint de chat y reconcilia el resultado en el Store. Ningún error llega
// al caller: la transcripción es el único canal de reporte.
type Coordinator struct {
	store    *Store
	timer    *BackoffTimer
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	now      func() time.Time
	inFlight atomic.Bool
}

func NewCoordinator(store *Store, timer *BackoffTimer, baseURL string, httpClient *http.Client, logger *zap.Logger) *Coordinator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:   store,
		timer:   timer,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
		now:     time.Now,
	}
}

type exchangeRequest struct {
	Message             string `json:"message"`
	ConversationHistory []turn `json:"conversation_history"`
	ConversationID      string `json:"conversation_id,omitempty"`
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type exchangeResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// Send ejecuta un intercambio completo. Input vacío es un no-op; mientras hay
// un intercambio en vuelo o el backoff está activo, llamadas nuevas se
// descartan (guard explícito, no solo UI deshabilitada).
func (c *Coordinator) Send(ctx context.Context, userText string) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return
	}
	if c.timer != nil && c.timer.IsActive() {
		return
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer c.inFlight.Store(false)

	// Historia saliente: turnos previos al input actual, sin la semilla,
	// acotados a los últimos 10.
	history := outboundHistory(c.store.Messages())

	c.store.Append(c.store.NewMessage(SenderUser, userText))

	payload := exchangeRequest{
		Message:             userText,
		ConversationHistory: history,
		ConversationID:      c.store.ConversationID(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.appendFailureNotice(err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		c.appendFailureNotice(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.appendFailureNotice(err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.appendFailureNotice(err)
		return
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.handleRateLimit(resp.Header.Get("Retry-After"), respBody)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.handleSuccess(respBody)
	default:
		c.appendFailureNotice(fmt.Errorf("chat http error: status=%d", resp.StatusCode))
	}
}

// IsBusy informa si hay un intercambio en vuelo (para deshabilitar el input).
func (c *Coordinator) IsBusy() bool {
	return c.inFlight.Load()
}

func (c *Coordinator) handleSuccess(body []byte) {
	var er exchangeResponse
	if err := json.Unmarshal(body, &er); err != nil {
		c.appendFailureNotice(fmt.Errorf("decode chat response: %w", err))
		return
	}
	c.store.Append(c.store.NewMessage(SenderAssistant, er.Response))
	if er.ConversationID != "" {
		c.store.SetConversationID(er.ConversationID)
	}
}

// handleRateLimit arma el backoff y deja el aviso en la transcripción. La
// espera sale del header Retry-After; el scan del detail es solo fallback.
func (c *Coordinator) handleRateLimit(retryAfterHeader string, body []byte) {
	delay := retryDelaySeconds(retryAfterHeader, body)
	if c.timer != nil {
		c.timer.Arm(c.now().Add(time.Duration(delay) * time.Second))
	}
	notice := fmt.Sprintf("I'm getting too many requests right now. Please try again in %d seconds.", delay)
	c.store.Append(c.store.NewMessage(SenderAssistant, notice))
	c.logger.Warn("chat rate limited", zap.Int("retry_after", delay))
}

func (c *Coordinator) appendFailureNotice(err error) {
	c.logger.Warn("chat exchange failed", zap.Error(err))
	c.store.Append(c.store.NewMessage(SenderAssistant, apologyText))
}

func retryDelaySeconds(retryAfterHeader string, body []byte) int {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfterHeader)); err == nil && secs > 0 {
		return secs
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := detailSecondsPattern.FindStringSubmatch(payload.Detail); m != nil {
			if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
				return secs
			}
		}
	}
	return defaultBackoffSeconds
}

// outboundHistory mapea la transcripción a pares {role, content}, excluyendo
// el texto literal de la semilla y quedándose con los últimos 10 turnos.
func outboundHistory(messages []Message) []turn {
	history := make([]turn, 0, len(messages))
	for _, m := range messages {
		if m.Text == WelcomeText {
			continue
		}
		role := SenderUser
		if m.Sender == SenderAssistant {
			role = SenderAssistant
		}
		history = append(history, turn{Role: role, Content: m.Text})
	}
	if len(history) > 10 {
		history = history[len(history)-10:]
	}
	return history
}
