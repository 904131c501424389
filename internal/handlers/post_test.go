package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"codenook/internal/models"
	"codenook/internal/services"
	"codenook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	posts []services.PostSummary
	lists int
}

func (f *fakePosts) List(ctx context.Context, limit int) ([]services.PostSummary, error) {
	f.lists++
	return append([]services.PostSummary(nil), f.posts...), nil
}

func (f *fakePosts) Get(ctx context.Context, id string) (*services.PostDetail, error) {
	return nil, services.ErrNotFound
}

func (f *fakePosts) Create(ctx context.Context, author *models.User, in services.CreatePostInput, thumb *services.ThumbnailFile) (*services.PostDetail, error) {
	return nil, services.ErrValidation
}

func TestPostListCacheIsDroppedOnChange(t *testing.T) {
	cache, err := utils.NewCache(8)
	require.NoError(t, err)
	posts := &fakePosts{posts: []services.PostSummary{{ID: "p1", Title: "First"}}}
	likes := &fakeLikes{}
	h := NewPostHandler(posts, &fakeComments{}, likes, nil, cache)

	r := gin.New()
	r.Use(asUser(ada))
	r.GET("/api/posts", h.APIList)
	r.POST("/api/posts/:id/like", NewLikeHandler(likes, h.Invalidate).Toggle)

	titles := func() []string {
		w := do(r, http.MethodGet, "/api/posts", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var list []services.PostSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		out := make([]string, len(list))
		for i, p := range list {
			out[i] = p.Title
		}
		return out
	}

	assert.Equal(t, []string{"First"}, titles())
	posts.posts = append(posts.posts, services.PostSummary{ID: "p2", Title: "Second"})
	assert.Equal(t, []string{"First"}, titles())
	assert.Equal(t, 1, posts.lists)

	// Liking any post drops the whole list, not only the entry of that post.
	w := do(r, http.MethodPost, "/api/posts/p9/like", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"First", "Second"}, titles())
	assert.Equal(t, 2, posts.lists)
}
