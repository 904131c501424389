package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"codenook/internal/logger"
	"codenook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeUploader struct {
	calls int
	body  string
	err   error
	after func()
}

func (u *fakeUploader) Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error) {
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.body = string(b)
	if u.after != nil {
		u.after()
	}
	return &UploadResult{URL: "https://cdn.example/" + filename, PublicID: filename}, nil
}

func TestListPublishedNewestFirst(t *testing.T) {
	f := newFixture(t)
	createPost(t, f.db, f.alice, "Hidden draft", false, baseTime.Add(2*time.Hour))
	createComment(t, f.db, f.post, f.bob, nil, "nice", baseTime)
	require.NoError(t, f.db.Create(&models.Like{PostID: f.post.ID, UserID: f.bob.ID}).Error)

	svc := NewPostService(f.db, &fakeUploader{}, 1<<20)
	posts, err := svc.List(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, f.other.ID, posts[0].ID)
	assert.Equal(t, f.post.ID, posts[1].ID)
	assert.Equal(t, PostCount{Comments: 1, Likes: 1}, posts[1].Count)
	assert.Equal(t, PostCount{}, posts[0].Count)
	assert.Equal(t, "Alice", posts[0].Author.Name)

	limited, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetPost(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.db, &fakeUploader{}, 1<<20)

	detail, err := svc.Get(context.Background(), f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", detail.Title)
	assert.Equal(t, "Body of Intro to Go", detail.Content)
	assert.Empty(t, detail.Categories)

	draft := createPost(t, f.db, f.alice, "Draft", false, baseTime)
	_, err = svc.Get(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePostWithTermsAndThumbnail(t *testing.T) {
	f := newFixture(t)
	uploader := &fakeUploader{}
	svc := NewPostService(f.db, uploader, 1<<20)
	taxonomy := NewTaxonomyService(f.db)
	ctx := context.Background()

	cat, err := taxonomy.CreateCategory(ctx, "Backend")
	require.NoError(t, err)
	tag, err := taxonomy.CreateTag(ctx, "Go")
	require.NoError(t, err)

	detail, err := svc.Create(ctx, f.alice, CreatePostInput{
		Title:       "  Channels in Practice ",
		Content:     "# Channels\n\nUse **unbuffered** channels to synchronize.",
		Published:   true,
		CategoryIDs: []string{cat.ID, cat.ID},
		TagIDs:      []string{tag.ID},
	}, &ThumbnailFile{
		Reader:      strings.NewReader("png-bytes"),
		Filename:    "cover.png",
		ContentType: "image/png",
		Size:        9,
	})
	require.NoError(t, err)

	assert.Equal(t, "Channels in Practice", detail.Title)
	assert.Equal(t, "channels-in-practice", detail.Slug)
	assert.Equal(t, "Channels Use unbuffered channels to synchronize.", detail.Excerpt)
	assert.Equal(t, "https://cdn.example/cover.png", detail.Thumbnail)
	assert.Equal(t, "png-bytes", uploader.body)
	assert.Equal(t, []TermRef{{ID: cat.ID, Name: "Backend", Slug: "backend"}}, detail.Categories)
	assert.Equal(t, []TermRef{{ID: tag.ID, Name: "Go", Slug: "go"}}, detail.Tags)

	stored, err := svc.Get(ctx, detail.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Categories, 1)
	assert.Len(t, stored.Tags, 1)

	cats, err := taxonomy.ListCategories(ctx)
	require.NoError(t, err)
	for _, c := range cats {
		if c.ID == cat.ID {
			assert.EqualValues(t, 1, c.Count.Posts)
		}
	}
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)
	uploader := &fakeUploader{}
	svc := NewPostService(f.db, uploader, 1<<20)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.alice, CreatePostInput{Title: "No body"}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, f.alice, CreatePostInput{Title: "T", Content: "c", TagIDs: []string{"nope"}}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, f.alice, CreatePostInput{Title: "T", Content: "c"}, &ThumbnailFile{
		Reader: strings.NewReader("x"), Filename: "a.txt", ContentType: "text/plain", Size: 1,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, f.alice, CreatePostInput{Title: "T", Content: "c"}, &ThumbnailFile{
		Reader: strings.NewReader("x"), Filename: "a.png", ContentType: "image/png", Size: 2 << 20,
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, uploader.calls)

	_, err = svc.Create(ctx, nil, CreatePostInput{Title: "T", Content: "c"}, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.db, &fakeUploader{}, 1<<20)

	_, err := svc.Create(context.Background(), f.alice, CreatePostInput{Title: "Intro to Go", Content: "again"}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(context.Background(), f.alice, CreatePostInput{Title: "Other", Slug: "Intro to Go", Content: "again"}, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreatePostUploadFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.db, &fakeUploader{err: ErrMediaDisabled}, 1<<20)

	_, err := svc.Create(context.Background(), f.alice, CreatePostInput{Title: "Pic", Content: "c"}, &ThumbnailFile{
		Reader: strings.NewReader("x"), Filename: "a.png", ContentType: "image/png", Size: 1,
	})
	assert.True(t, errors.Is(err, ErrMediaDisabled))

	var n int64
	require.NoError(t, f.db.Model(&models.Post{}).Where("slug = ?", "pic").Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreatePostLogsOrphanedThumbnail(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	f := newFixture(t)
	// Another post takes the slug while the thumbnail is uploading.
	uploader := &fakeUploader{after: func() {
		createPost(t, f.db, f.bob, "Race", true, baseTime)
	}}
	svc := NewPostService(f.db, uploader, 1<<20)

	_, err := svc.Create(context.Background(), f.alice, CreatePostInput{Title: "Race", Content: "c"}, &ThumbnailFile{
		Reader: strings.NewReader("x"), Filename: "race.png", ContentType: "image/png", Size: 1,
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, uploader.calls)

	entries := logs.FilterField(zap.String("public_id", "race.png")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "post not saved, uploaded thumbnail is orphaned", entries[0].Message)
}

func TestCreatePostWithoutThumbnailLogsNothing(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	f := newFixture(t)
	svc := NewPostService(f.db, &fakeUploader{}, 1<<20)
	_, err := svc.Create(context.Background(), f.alice, CreatePostInput{Title: "Plain", Content: "c"}, nil)
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}
