package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SystemHandler expone endpoints de diagnóstico sin lógica de negocio.
type SystemHandler struct {
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func NewSystemHandler(logger *zap.Logger, pool *pgxpool.Pool) *SystemHandler {
	return &SystemHandler{logger: logger, pool: pool}
}

// Health maneja GET /health. No toca la base de datos.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "API is running"})
}

// DBStatus maneja GET /db-status.
func (h *SystemHandler) DBStatus(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "error": "database not configured"})
		return
	}
	if err := h.pool.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("db ping failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "error", "error": err.Error()})
		return
	}
	stat := h.pool.Stat()
	c.JSON(http.StatusOK, gin.H{
		"status":         "connected",
		"total_conns":    stat.TotalConns(),
		"idle_conns":     stat.IdleConns(),
		"acquired_conns": stat.AcquiredConns(),
		"max_conns":      stat.MaxConns(),
	})
}
