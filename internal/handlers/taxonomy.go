package handlers

import (
	"context"
	"net/http"

	"codenook/internal/models"

	"github.com/gin-gonic/gin"
)

type TermStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

type TaxonomyHandler struct {
	terms TermStore
}

func NewTaxonomyHandler(terms TermStore) *TaxonomyHandler {
	return &TaxonomyHandler{terms: terms}
}

type termRequest struct {
	Name string `json:"name" form:"name"`
}

func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.terms.ListCategories(c.Request.Context())
	if err != nil {
		JSONError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req termRequest
	_ = c.ShouldBind(&req)
	category, err := h.terms.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		JSONError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	if err := h.terms.DeleteCategory(c.Request.Context(), c.Query("id")); err != nil {
		JSONError(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := h.terms.ListTags(c.Request.Context())
	if err != nil {
		JSONError(c, err, "Failed to fetch tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req termRequest
	_ = c.ShouldBind(&req)
	tag, err := h.terms.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		JSONError(c, err, "Failed to create tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *TaxonomyHandler) DeleteTag(c *gin.Context) {
	if err := h.terms.DeleteTag(c.Request.Context(), c.Query("id")); err != nil {
		JSONError(c, err, "Failed to delete tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully"})
}
