package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/waritsan/theglobe/internal/domain"
	"github.com/waritsan/theglobe/internal/repository"
)

// CategoryHandler mantiene dependencias para los endpoints de categorías.
type CategoryHandler struct {
	logger     *zap.Logger
	categories repository.CategoryRepository
}

func NewCategoryHandler(logger *zap.Logger, categories repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{logger: logger, categories: categories}
}

type createUpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Slug        string `json:"slug" binding:"required"`
}

// ListCategories maneja GET /categories con top y skip opcionales.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context(), intQuery(c, "top"), intQuery(c, "skip"))
	if err != nil {
		h.logger.Error("list categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list categories"})
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory maneja POST /categories.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req createUpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create category request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	now := time.Now().UTC()
	category := domain.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		CreatedDate: &now,
	}

	if err := h.categories.Create(c.Request.Context(), category); err != nil {
		h.logger.Error("create category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create category"})
		return
	}

	c.Header("Location", "/categories/"+category.ID)
	c.JSON(http.StatusCreated, category)
}

// GetCategory maneja GET /categories/:category_id.
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categories.GetByID(c.Request.Context(), c.Param("category_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		h.logger.Error("get category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get category"})
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory maneja PUT /categories/:category_id.
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req createUpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update category request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	existing, err := h.categories.GetByID(c.Request.Context(), c.Param("category_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		h.logger.Error("get category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update category"})
		return
	}

	now := time.Now().UTC()
	category := domain.Category{
		ID:          existing.ID,
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		CreatedDate: existing.CreatedDate,
		UpdatedDate: &now,
	}

	if err := h.categories.Update(c.Request.Context(), category); err != nil {
		h.logger.Error("update category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update category"})
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory maneja DELETE /categories/:category_id.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id := c.Param("category_id")
	if _, err := h.categories.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		h.logger.Error("get category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete category"})
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete category failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete category"})
		return
	}
	c.Status(http.StatusNoContent)
}
