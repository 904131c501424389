package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"codenook/internal/middleware"
	"codenook/internal/models"
	"codenook/internal/services"

	"github.com/gin-gonic/gin"
)

// CommentStore is the comment service as seen by the handlers.
type CommentStore interface {
	Tree(ctx context.Context, postID string) ([]*services.CommentNode, error)
	Create(ctx context.Context, author *models.User, in services.CreateCommentInput) (*services.CommentNode, error)
}

type CommentHandler struct {
	comments CommentStore
	onChange func(postID string)
}

// NewCommentHandler builds the comment endpoints. onChange, when not nil, runs
// after a comment was stored.
func NewCommentHandler(comments CommentStore, onChange func(postID string)) *CommentHandler {
	if onChange == nil {
		onChange = func(string) {}
	}
	return &CommentHandler{comments: comments, onChange: onChange}
}

// List serves GET /api/posts/:id/comments.
func (h *CommentHandler) List(c *gin.Context) {
	tree, err := h.comments.Tree(c.Request.Context(), c.Param("id"))
	if err != nil {
		JSONError(c, err, "Failed to fetch comments")
		return
	}
	c.JSON(http.StatusOK, tree)
}

// Create serves POST /api/posts/:id/comments with a JSON body.
func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		JSONError(c, services.ErrUnauthenticated, "")
		return
	}

	var in services.CreateCommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing fields"})
		return
	}
	if strings.TrimSpace(in.PostID) != "" && strings.TrimSpace(in.PostID) != c.Param("id") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "postId does not match the post in the URL"})
		return
	}

	node, err := h.comments.Create(c.Request.Context(), user, in)
	if err != nil {
		JSONError(c, err, "Failed to create comment")
		return
	}
	h.onChange(node.PostID)
	c.JSON(http.StatusCreated, node)
}

// Submit handles the comment and reply forms on the post page.
func (h *CommentHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	postID := c.Param("id")

	in := services.CreateCommentInput{
		Content: c.PostForm("content"),
		PostID:  postID,
	}
	if parent := c.PostForm("parentId"); parent != "" {
		in.ParentID = &parent
	}

	node, err := h.comments.Create(c.Request.Context(), user, in)
	if err != nil {
		PageError(c, err, "Failed to create comment")
		return
	}
	h.onChange(postID)
	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%s#comment-%s", postID, node.ID))
}
