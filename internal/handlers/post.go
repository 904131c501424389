package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codenook/internal/middleware"
	"codenook/internal/models"
	"codenook/internal/services"
	"codenook/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	postListCacheKey = "posts:list"
	postListTTL      = time.Minute
	postHTMLTTL      = 10 * time.Minute
)

type PostStore interface {
	List(ctx context.Context, limit int) ([]services.PostSummary, error)
	Get(ctx context.Context, id string) (*services.PostDetail, error)
	Create(ctx context.Context, author *models.User, in services.CreatePostInput, thumb *services.ThumbnailFile) (*services.PostDetail, error)
}

type PostHandler struct {
	posts    PostStore
	comments CommentStore
	likes    LikeStore
	terms    TermStore
	cache    *utils.Cache
}

func NewPostHandler(posts PostStore, comments CommentStore, likes LikeStore, terms TermStore, cache *utils.Cache) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, likes: likes, terms: terms, cache: cache}
}

// Invalidate drops the cached post list. The list is cached as one entry, so
// a change to any post discards all of it.
func (h *PostHandler) Invalidate(_ string) {
	h.cache.Delete(postListCacheKey)
}

// List renders /posts.
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.cachedList(c.Request.Context())
	if err != nil {
		PageError(c, err, "Failed to fetch posts")
		return
	}
	Render(c, http.StatusOK, "post/list.html", gin.H{
		"Title": "Blog",
		"Posts": posts,
	})
}

func (h *PostHandler) cachedList(ctx context.Context) ([]services.PostSummary, error) {
	if cached, ok := h.cache.Get(postListCacheKey).([]services.PostSummary); ok {
		return cached, nil
	}
	posts, err := h.posts.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	h.cache.Set(postListCacheKey, posts, postListTTL)
	return posts, nil
}

// Detail renders /posts/:id with its comment forest.
func (h *PostHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	post, err := h.posts.Get(ctx, c.Param("id"))
	if err != nil {
		PageError(c, err, "Failed to fetch post")
		return
	}
	comments, err := h.comments.Tree(ctx, post.ID)
	if err != nil {
		PageError(c, err, "Failed to fetch comments")
		return
	}
	liked, err := h.likes.Status(ctx, user, post.ID)
	if err != nil {
		PageError(c, err, "Failed to fetch like status")
		return
	}

	htmlKey := fmt.Sprintf("post:html:%s:%d", post.ID, post.UpdatedAt.UnixNano())
	content, ok := h.cache.Get(htmlKey).(postBody)
	if !ok {
		html := utils.RenderMarkdown(post.Content)
		content = postBody{HTML: html, ReadingTime: utils.ReadingTime(html)}
		h.cache.Set(htmlKey, content, postHTMLTTL)
	}

	Render(c, http.StatusOK, "post/detail.html", gin.H{
		"Title":       post.Title,
		"Description": post.Excerpt,
		"Post":        post,
		"PostContent": content.HTML,
		"ReadingTime": content.ReadingTime,
		"Comments":    comments,
		"Liked":       liked,
	})
}

type postBody struct {
	HTML        template.HTML
	ReadingTime int
}

// ShowWrite renders the admin editor.
func (h *PostHandler) ShowWrite(c *gin.Context) {
	h.renderWrite(c, http.StatusOK, gin.H{})
}

// Write handles the admin editor form.
func (h *PostHandler) Write(c *gin.Context) {
	in, thumb, err := bindPostForm(c)
	if err != nil {
		h.renderWrite(c, http.StatusBadRequest, gin.H{"Error": err.Error()})
		return
	}
	if thumb != nil {
		defer thumb.close()
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), in, thumb.file())
	if err != nil {
		code, message := publicMessage(c, err, "Failed to create post")
		h.renderWrite(c, code, gin.H{"Error": message, "Form": in})
		return
	}
	h.Invalidate(post.ID)
	if !post.Published {
		c.Redirect(http.StatusFound, "/posts")
		return
	}
	c.Redirect(http.StatusFound, "/posts/"+post.ID)
}

func (h *PostHandler) renderWrite(c *gin.Context, code int, data gin.H) {
	ctx := c.Request.Context()
	categories, err := h.terms.ListCategories(ctx)
	if err != nil {
		PageError(c, err, "Failed to fetch categories")
		return
	}
	tags, err := h.terms.ListTags(ctx)
	if err != nil {
		PageError(c, err, "Failed to fetch tags")
		return
	}
	data["Title"] = "Write a post"
	data["Categories"] = categories
	data["Tags"] = tags
	if _, ok := data["Form"]; !ok {
		data["Form"] = services.CreatePostInput{}
	}
	Render(c, code, "post/write.html", data)
}

// APIList serves GET /api/posts.
func (h *PostHandler) APIList(c *gin.Context) {
	posts, err := h.cachedList(c.Request.Context())
	if err != nil {
		JSONError(c, err, "Failed to fetch blogs")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// APIGet serves GET /api/posts/:id.
func (h *PostHandler) APIGet(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		JSONError(c, err, "Failed to fetch blog")
		return
	}
	c.JSON(http.StatusOK, post)
}

// APICreate serves POST /api/posts as JSON or multipart form.
func (h *PostHandler) APICreate(c *gin.Context) {
	var (
		in    services.CreatePostInput
		thumb *uploadedFile
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		err = c.ShouldBindJSON(&in)
	} else {
		in, thumb, err = bindPostForm(c)
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if thumb != nil {
		defer thumb.close()
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUser(c), in, thumb.file())
	if err != nil {
		JSONError(c, err, "Failed to create blog")
		return
	}
	h.Invalidate(post.ID)
	c.JSON(http.StatusCreated, post)
}

type uploadedFile struct {
	f      multipart.File
	header *multipart.FileHeader
}

func (u *uploadedFile) file() *services.ThumbnailFile {
	if u == nil {
		return nil
	}
	return &services.ThumbnailFile{
		Reader:      u.f,
		Filename:    u.header.Filename,
		ContentType: u.header.Header.Get("Content-Type"),
		Size:        u.header.Size,
	}
}

func (u *uploadedFile) close() {
	_ = u.f.Close()
}

// bindPostForm reads the editor form. categoryIds and tagIds may be repeated
// fields or a single JSON array.
func bindPostForm(c *gin.Context) (services.CreatePostInput, *uploadedFile, error) {
	in := services.CreatePostInput{
		Title:   c.PostForm("title"),
		Slug:    c.PostForm("slug"),
		Excerpt: c.PostForm("excerpt"),
		Content: c.PostForm("content"),
	}
	in.Published, _ = strconv.ParseBool(c.DefaultPostForm("published", "false"))
	if c.PostForm("published") == "on" {
		in.Published = true
	}

	var err error
	if in.CategoryIDs, err = idList(c.PostFormArray("categoryIds")); err != nil {
		return in, nil, fmt.Errorf("categoryIds: %w", err)
	}
	if in.TagIDs, err = idList(c.PostFormArray("tagIds")); err != nil {
		return in, nil, fmt.Errorf("tagIds: %w", err)
	}

	header, err := c.FormFile("thumbnail")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, fmt.Errorf("thumbnail: %w", err)
	}
	f, err := header.Open()
	if err != nil {
		return in, nil, fmt.Errorf("thumbnail: %w", err)
	}
	return in, &uploadedFile{f: f, header: header}, nil
}

func idList(values []string) ([]string, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var ids []string
		if err := json.Unmarshal([]byte(values[0]), &ids); err != nil {
			return nil, errors.New("must be a JSON array of strings")
		}
		return ids, nil
	}
	var ids []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, v)
		}
	}
	return ids, nil
}
