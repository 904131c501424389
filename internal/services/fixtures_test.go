package services

import (
	"testing"
	"time"

	"codenook/internal/db/dbtest"
	"codenook/internal/models"
	"codenook/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	alice *models.User
	bob   *models.User
	post  *models.Post
	other *models.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	f := &fixture{db: conn}
	f.alice = createUser(t, conn, "Alice", "alice@example.com")
	f.bob = createUser(t, conn, "Bob", "bob@example.com")
	f.post = createPost(t, conn, f.alice, "Intro to Go", true, baseTime)
	f.other = createPost(t, conn, f.alice, "Intro to SQL", true, baseTime.Add(time.Hour))
	return f
}

func createUser(t *testing.T, conn *gorm.DB, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Image: "https://img.example/" + name + ".png"}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func createPost(t *testing.T, conn *gorm.DB, author *models.User, title string, published bool, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:     title,
		Slug:      utils.Slugify(title),
		Content:   "Body of " + title,
		Published: published,
		AuthorID:  author.ID,
		CreatedAt: at,
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func createComment(t *testing.T, conn *gorm.DB, post *models.Post, author *models.User, parent *models.Comment, content string, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Content:   content,
		CreatedAt: at,
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, conn.Create(c).Error)
	return c
}

func countRows(t *testing.T, conn *gorm.DB, model any, postID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Where("post_id = ?", postID).Count(&n).Error)
	return n
}

// closeDB makes every further query on conn fail.
func closeDB(t *testing.T, conn *gorm.DB) {
	t.Helper()
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func strPtr(s string) *string { return &s }
