package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/domain"
	"github.com/waritsan/theglobe/internal/repository"
)

// CommentHandler mantiene dependencias para los endpoints de comentarios.
type CommentHandler struct {
	logger   *zap.Logger
	comments repository.CommentRepository
}

func NewCommentHandler(logger *zap.Logger, comments repository.CommentRepository) *CommentHandler {
	return &CommentHandler{logger: logger, comments: comments}
}

type createUpdateCommentRequest struct {
	Author   string `json:"author" binding:"required"`
	Email    string `json:"email"`
	Content  string `json:"content" binding:"required"`
	Approved bool   `json:"approved"`
}

// ListComments maneja GET /posts/:post_id/comments con filtros approved, top y skip.
func (h *CommentHandler) ListComments(c *gin.Context) {
	filter := domain.CommentFilter{
		Top:  intQuery(c, "top"),
		Skip: intQuery(c, "skip"),
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approved filter"})
			return
		}
		filter.Approved = &approved
	}

	comments, err := h.comments.ListByPostID(c.Request.Context(), c.Param("post_id"), filter)
	if err != nil {
		h.logger.Error("list comments failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list comments"})
		return
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment maneja POST /posts/:post_id/comments.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req createUpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create comment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	postID := c.Param("post_id")
	now := time.Now().UTC()
	comment := domain.Comment{
		ID:          uuid.NewString(),
		PostID:      postID,
		Author:      req.Author,
		Email:       req.Email,
		Content:     req.Content,
		Approved:    req.Approved,
		CreatedDate: &now,
	}

	if err := h.comments.Create(c.Request.Context(), comment); err != nil {
		h.logger.Error("create comment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create comment"})
		return
	}

	c.Header("Location", "/posts/"+postID+"/comments/"+comment.ID)
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment maneja PUT /posts/:post_id/comments/:comment_id.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var req createUpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update comment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	postID := c.Param("post_id")
	existing, err := h.comments.GetByID(c.Request.Context(), postID, c.Param("comment_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		h.logger.Error("get comment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update comment"})
		return
	}

	now := time.Now().UTC()
	comment := domain.Comment{
		ID:          existing.ID,
		PostID:      existing.PostID,
		Author:      req.Author,
		Email:       req.Email,
		Content:     req.Content,
		Approved:    req.Approved,
		CreatedDate: existing.CreatedDate,
		UpdatedDate: &now,
	}

	if err := h.comments.Update(c.Request.Context(), comment); err != nil {
		h.logger.Error("update comment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update comment"})
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment maneja DELETE /posts/:post_id/comments/:comment_id.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	postID := c.Param("post_id")
	commentID := c.Param("comment_id")
	if _, err := h.comments.GetByID(c.Request.Context(), postID, commentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		h.logger.Error("get comment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete comment"})
		return
	}
	if err := h.comments.Delete(c.Request.Context(), postID, commentID); err != nil {
		h.logger.Error("delete comment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete comment"})
		return
	}
	c.Status(http.StatusNoContent)
}
