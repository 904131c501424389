package services

import (
	"context"
	"errors"
	"fmt"

	"codenook/internal/models"

	"gorm.io/gorm"
)

type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// Toggle flips the like of user on a post and reports the resulting state.
//
// The delete runs first; only when nothing was deleted is a like inserted. The
// (post_id, user_id) unique index arbitrates concurrent toggles: losing the insert
// race means the post is already liked, which is reported as liked.
func (s *LikeService) Toggle(ctx context.Context, user *models.User, postID string) (bool, error) {
	if user == nil {
		return false, ErrUnauthenticated
	}
	if err := requirePublishedPost(ctx, s.db, postID); err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, user.ID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("unlike post %s: %w", postID, res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	like := models.Like{PostID: postID, UserID: user.ID}
	if err := s.db.WithContext(ctx).Omit("Post", "User").Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return true, nil
		}
		return false, fmt.Errorf("like post %s: %w", postID, err)
	}
	return true, nil
}

// Status reports whether user likes the post. Anonymous readers never do.
func (s *LikeService) Status(ctx context.Context, user *models.User, postID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, user.ID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("like status of post %s: %w", postID, err)
	}
	return n > 0, nil
}

func (s *LikeService) Count(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}
