package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/domain"
	"github.com/waritsan/theglobe/internal/llm"
	"github.com/waritsan/theglobe/internal/service"
)

// ChatHandler mantiene dependencias para el endpoint de chat.
type ChatHandler struct {
	logger  *zap.Logger
	chat    *service.ChatService
	limiter service.ChatRateLimiter
}

func NewChatHandler(logger *zap.Logger, chat *service.ChatService, limiter service.ChatRateLimiter) *ChatHandler {
	return &ChatHandler{logger: logger, chat: chat, limiter: limiter}
}

type chatRequest struct {
	Message             string            `json:"message" binding:"required"`
	ConversationHistory []domain.ChatTurn `json:"conversation_history"`
	ConversationID      string            `json:"conversation_id"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// Chat maneja POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if h.limiter != nil {
		if allowed, retryAfter := h.limiter.Allow(c.ClientIP()); !allowed {
			h.respondRateLimited(c, retryAfter, "")
			return
		}
	}

	reply, conversationID, err := h.chat.Chat(c.Request.Context(), req.Message, req.ConversationHistory, req.ConversationID)
	if err != nil {
		var rle *llm.RateLimitError
		switch {
		case errors.As(err, &rle):
			h.respondRateLimited(c, rle.RetryAfter, rle.Detail)
		case errors.Is(err, service.ErrChatInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		default:
			h.logger.Error("chat exchange failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Chat error: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, chatResponse{Response: reply, ConversationID: conversationID})
}

// respondRateLimited arma el 429 con header Retry-After y un detail legible,
// que es lo que el widget de chat usa para contar la espera.
func (h *ChatHandler) respondRateLimited(c *gin.Context, retryAfter int, detail string) {
	if retryAfter <= 0 {
		retryAfter = 60
	}
	if detail == "" {
		detail = fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter)
	}
	h.logger.Warn("chat rate limited",
		zap.Int("retry_after", retryAfter),
		zap.String("client_ip", c.ClientIP()),
	)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{"detail": detail})
}
