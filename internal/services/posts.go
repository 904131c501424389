package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"codenook/internal/logger"
	"codenook/internal/models"
	"codenook/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const excerptLength = 160

type PostCount struct {
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

type TermRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostSummary is a published post as listed to readers.
type PostSummary struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Excerpt   string        `json:"excerpt"`
	Thumbnail string        `json:"thumbnail"`
	Published bool          `json:"published"`
	AuthorID  string        `json:"authorId"`
	Author    models.Author `json:"author"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Count     PostCount     `json:"_count"`
}

type PostDetail struct {
	PostSummary
	Content    string    `json:"content"`
	Categories []TermRef `json:"categories"`
	Tags       []TermRef `json:"tags"`
}

// ThumbnailFile is an image submitted together with a new post.
type ThumbnailFile struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type CreatePostInput struct {
	Title       string   `json:"title" form:"title"`
	Slug        string   `json:"slug" form:"slug"`
	Excerpt     string   `json:"excerpt" form:"excerpt"`
	Content     string   `json:"content" form:"content"`
	Published   bool     `json:"published" form:"published"`
	CategoryIDs []string `json:"categoryIds"`
	TagIDs      []string `json:"tagIds"`
}

type PostService struct {
	db       *gorm.DB
	uploader ImageUploader
	maxBytes int64
}

func NewPostService(db *gorm.DB, uploader ImageUploader, maxUploadBytes int64) *PostService {
	return &PostService{db: db, uploader: uploader, maxBytes: maxUploadBytes}
}

// List returns published posts newest first. limit <= 0 returns all of them.
func (s *PostService) List(ctx context.Context, limit int) ([]PostSummary, error) {
	q := s.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Where("published = ?", true).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	summaries := make([]PostSummary, len(posts))
	ids := make([]string, len(posts))
	for i, p := range posts {
		summaries[i] = newPostSummary(p)
		ids[i] = p.ID
	}
	counts, err := s.fillCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Count = counts[summaries[i].ID]
	}
	return summaries, nil
}

// Get returns one published post with its categories, tags and counters.
func (s *PostService) Get(ctx context.Context, id string) (*PostDetail, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Preload("Categories").
		Preload("Tags").
		Where("id = ? AND published = ?", id, true).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("post %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", id, err)
	}

	counts, err := s.fillCounts(ctx, []string{post.ID})
	if err != nil {
		return nil, err
	}
	detail := &PostDetail{
		PostSummary: newPostSummary(post),
		Content:     post.Content,
		Categories:  make([]TermRef, 0, len(post.Categories)),
		Tags:        make([]TermRef, 0, len(post.Tags)),
	}
	detail.Count = counts[post.ID]
	for _, c := range post.Categories {
		detail.Categories = append(detail.Categories, TermRef{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	for _, t := range post.Tags {
		detail.Tags = append(detail.Tags, TermRef{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return detail, nil
}

// Create validates and stores a new post. The thumbnail, when present, is
// uploaded to the media host after validation and before the row is written.
func (s *PostService) Create(ctx context.Context, author *models.User, in CreatePostInput, thumb *ThumbnailFile) (*PostDetail, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, validationf("title and content are required")
	}
	slug := utils.Slugify(in.Slug)
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if slug == "" {
		return nil, validationf("a slug could not be derived from the title")
	}
	excerpt := strings.TrimSpace(in.Excerpt)
	if excerpt == "" {
		excerpt = utils.Excerpt(content, excerptLength)
	}

	categories, err := loadTerms[models.Category](ctx, s.db, in.CategoryIDs, "category")
	if err != nil {
		return nil, err
	}
	tags, err := loadTerms[models.Tag](ctx, s.db, in.TagIDs, "tag")
	if err != nil {
		return nil, err
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check slug %s: %w", slug, err)
	}
	if taken > 0 {
		return nil, conflictf("a post with slug %q already exists", slug)
	}

	var uploaded *UploadResult
	if thumb != nil {
		if err := CheckImage(thumb.ContentType, thumb.Size, s.maxBytes); err != nil {
			return nil, err
		}
		uploaded, err = s.uploader.Upload(ctx, thumb.Reader, thumb.Filename)
		if err != nil {
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
	}

	post := models.Post{
		Title:      title,
		Slug:       slug,
		Excerpt:    excerpt,
		Content:    content,
		Thumbnail:  uploaded.url(),
		Published:  in.Published,
		AuthorID:   author.ID,
		Categories: categories,
		Tags:       tags,
	}
	err = s.db.WithContext(ctx).Omit("Author", "Categories.*", "Tags.*").Create(&post).Error
	if err != nil && uploaded != nil {
		logger.L().Warn("post not saved, uploaded thumbnail is orphaned",
			zap.String("public_id", uploaded.PublicID),
			zap.String("url", uploaded.URL),
			zap.Error(err))
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflictf("a post with slug %q already exists", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	post.Author = *author
	detail := &PostDetail{
		PostSummary: newPostSummary(post),
		Content:     post.Content,
		Categories:  make([]TermRef, 0, len(categories)),
		Tags:        make([]TermRef, 0, len(tags)),
	}
	for _, c := range categories {
		detail.Categories = append(detail.Categories, TermRef{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	for _, t := range tags {
		detail.Tags = append(detail.Tags, TermRef{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return detail, nil
}

// fillCounts batches comment and like counts for the given posts.
func (s *PostService) fillCounts(ctx context.Context, postIDs []string) (map[string]PostCount, error) {
	counts := make(map[string]PostCount, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type row struct {
		PostID string
		Count  int64
	}
	var comments, likes []row
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&comments).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Like{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likes).Error; err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	for _, r := range comments {
		c := counts[r.PostID]
		c.Comments = r.Count
		counts[r.PostID] = c
	}
	for _, r := range likes {
		c := counts[r.PostID]
		c.Likes = r.Count
		counts[r.PostID] = c
	}
	return counts, nil
}

func newPostSummary(p models.Post) PostSummary {
	return PostSummary{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		Thumbnail: p.Thumbnail,
		Published: p.Published,
		AuthorID:  p.AuthorID,
		Author:    p.Author.Author(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// requirePublishedPost reports ErrNotFound unless a published post with id exists.
func requirePublishedPost(ctx context.Context, db *gorm.DB, id string) error {
	var n int64
	err := db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND published = ?", id, true).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("fetch post %s: %w", id, err)
	}
	if n == 0 {
		return notFoundf("post %s", id)
	}
	return nil
}
