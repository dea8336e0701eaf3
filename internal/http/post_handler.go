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

// PostHandler mantiene dependencias para los endpoints de posts.
type PostHandler struct {
	logger *zap.Logger
	posts  repository.PostRepository
}

func NewPostHandler(logger *zap.Logger, posts repository.PostRepository) *PostHandler {
	return &PostHandler{logger: logger, posts: posts}
}

type createUpdatePostRequest struct {
	Title         string     `json:"title" binding:"required"`
	Content       string     `json:"content" binding:"required"`
	Excerpt       string     `json:"excerpt"`
	Author        string     `json:"author" binding:"required"`
	CategoryID    string     `json:"categoryId"`
	Tags          []string   `json:"tags"`
	Slug          string     `json:"slug" binding:"required"`
	Published     bool       `json:"published"`
	PublishedDate *time.Time `json:"publishedDate"`
	ImageURL      string     `json:"imageUrl"`
}

// ListPosts maneja GET /posts con filtros opcionales published, category_id, top y skip.
func (h *PostHandler) ListPosts(c *gin.Context) {
	filter := domain.PostFilter{
		CategoryID: c.Query("category_id"),
		Top:        intQuery(c, "top"),
		Skip:       intQuery(c, "skip"),
	}
	if raw := c.Query("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid published filter"})
			return
		}
		filter.Published = &published
	}

	posts, err := h.posts.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list posts"})
		return
	}
	if posts == nil {
		posts = []domain.BlogPost{}
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost maneja POST /posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req createUpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	now := time.Now().UTC()
	post := postFromRequest(req)
	post.ID = uuid.NewString()
	post.CreatedDate = &now
	// Publicar sin fecha explícita estampa la fecha actual.
	if post.Published && post.PublishedDate == nil {
		post.PublishedDate = &now
	}

	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		h.logger.Error("create post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		return
	}

	c.Header("Location", "/posts/"+post.ID)
	c.JSON(http.StatusCreated, post)
}

// GetPost maneja GET /posts/:post_id.
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.GetByID(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "blog post not found"})
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost maneja PUT /posts/:post_id.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req createUpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	existing, err := h.posts.GetByID(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "blog post not found"})
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update post"})
		return
	}

	now := time.Now().UTC()
	post := postFromRequest(req)
	post.ID = existing.ID
	post.CreatedDate = existing.CreatedDate
	post.UpdatedDate = &now
	// La primera publicación conserva su fecha en updates posteriores.
	if post.PublishedDate == nil {
		post.PublishedDate = existing.PublishedDate
	}
	if post.Published && post.PublishedDate == nil {
		post.PublishedDate = &now
	}

	if err := h.posts.Update(c.Request.Context(), post); err != nil {
		h.logger.Error("update post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost maneja DELETE /posts/:post_id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	id := c.Param("post_id")
	if _, err := h.posts.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "blog post not found"})
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}
	c.Status(http.StatusNoContent)
}

func postFromRequest(req createUpdatePostRequest) domain.BlogPost {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.BlogPost{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Author:        req.Author,
		CategoryID:    req.CategoryID,
		Tags:          tags,
		Slug:          req.Slug,
		Published:     req.Published,
		PublishedDate: req.PublishedDate,
		ImageURL:      req.ImageURL,
	}
}

func intQuery(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
