package handlers

import (
	"context"
	"net/http"

	"codenook/internal/middleware"
	"codenook/internal/models"
	"codenook/internal/services"

	"github.com/gin-gonic/gin"
)

type LikeStore interface {
	Toggle(ctx context.Context, user *models.User, postID string) (bool, error)
	Status(ctx context.Context, user *models.User, postID string) (bool, error)
}

type LikeHandler struct {
	likes    LikeStore
	onChange func(postID string)
}

func NewLikeHandler(likes LikeStore, onChange func(postID string)) *LikeHandler {
	if onChange == nil {
		onChange = func(string) {}
	}
	return &LikeHandler{likes: likes, onChange: onChange}
}

// Toggle serves POST /api/posts/:id/like.
func (h *LikeHandler) Toggle(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		JSONError(c, services.ErrUnauthenticated, "")
		return
	}
	postID := c.Param("id")
	liked, err := h.likes.Toggle(c.Request.Context(), user, postID)
	if err != nil {
		JSONError(c, err, "Failed to toggle like")
		return
	}
	h.onChange(postID)
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// Status serves GET /api/posts/:id/like-status.
func (h *LikeHandler) Status(c *gin.Context) {
	liked, err := h.likes.Status(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		JSONError(c, err, "Failed to fetch like status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// Submit handles the like button form on the post page.
func (h *LikeHandler) Submit(c *gin.Context) {
	postID := c.Param("id")
	if _, err := h.likes.Toggle(c.Request.Context(), middleware.CurrentUser(c), postID); err != nil {
		PageError(c, err, "Failed to toggle like")
		return
	}
	h.onChange(postID)
	c.Redirect(http.StatusFound, "/posts/"+postID+"#likes")
}
