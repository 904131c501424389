package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"codenook/internal/models"

	"gorm.io/gorm"
)

const maxCommentLength = 10000

// CommentNode is one comment with its replies, as served to readers.
type CommentNode struct {
	ID        string         `json:"id"`
	PostID    string         `json:"postId"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Author    models.Author  `json:"author"`
	AuthorID  string         `json:"authorId"`
	ParentID  *string        `json:"parentId"`
	Replies   []*CommentNode `json:"replies"`
}

type CreateCommentInput struct {
	Content  string  `json:"content" form:"content"`
	PostID   string  `json:"postId" form:"postId"`
	ParentID *string `json:"parentId" form:"parentId"`
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Tree returns the comment forest of a post: top-level comments newest first,
// replies at every depth oldest first. A post without comments yields an empty slice.
func (s *CommentService) Tree(ctx context.Context, postID string) ([]*CommentNode, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("fetch comments of post %s: %w", postID, err)
	}
	return BuildForest(comments), nil
}

// BuildForest links comments of one post through their parent reference.
// Comments whose parent is not among the given rows are unreachable and dropped.
func BuildForest(comments []models.Comment) []*CommentNode {
	nodes := make(map[string]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = newCommentNode(c, c.Author)
	}

	roots := make([]*CommentNode, 0)
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok || parent == node {
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	slices.SortStableFunc(roots, newestFirst)
	for _, node := range nodes {
		slices.SortStableFunc(node.Replies, oldestFirst)
	}
	return roots
}

func oldestFirst(a, b *CommentNode) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func newestFirst(a, b *CommentNode) int {
	return oldestFirst(b, a)
}

// Create stores one comment by author. The parent, when given, must be a comment
// of the same post.
func (s *CommentService) Create(ctx context.Context, author *models.User, in CreateCommentInput) (*CommentNode, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}

	content := strings.TrimSpace(in.Content)
	postID := strings.TrimSpace(in.PostID)
	if content == "" || postID == "" {
		return nil, validationf("content and postId are required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, validationf("content must be at most %d characters", maxCommentLength)
	}

	if err := requirePublishedPost(ctx, s.db, postID); err != nil {
		return nil, err
	}

	var parentID *string
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) != "" {
		id := strings.TrimSpace(*in.ParentID)
		var parent models.Comment
		err := s.db.WithContext(ctx).Select("id", "post_id").Where("id = ?", id).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("parent comment %s does not exist", id)
		}
		if err != nil {
			return nil, fmt.Errorf("fetch parent comment %s: %w", id, err)
		}
		if parent.PostID != postID {
			return nil, validationf("parent comment %s belongs to another post", id)
		}
		parentID = &id
	}

	// Postgres keeps microseconds, so the returned node matches later reads.
	comment := models.Comment{
		PostID:    postID,
		AuthorID:  author.ID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.db.WithContext(ctx).Omit("Post", "Author", "Parent").Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment on post %s: %w", postID, err)
	}
	return newCommentNode(comment, *author), nil
}

// Count returns the number of comments on a post.
func (s *CommentService) Count(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

func newCommentNode(c models.Comment, author models.User) *CommentNode {
	return &CommentNode{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Author:    author.Author(),
		AuthorID:  c.AuthorID,
		ParentID:  c.ParentID,
		Replies:   make([]*CommentNode, 0),
	}
}

func selectAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "image")
}
