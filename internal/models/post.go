package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Title      string     `gorm:"not null" json:"title"`
	Slug       string     `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt    string     `gorm:"size:500" json:"excerpt"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Thumbnail  string     `json:"thumbnail"`
	Published  bool       `gorm:"default:false;index" json:"published"`
	AuthorID   string     `gorm:"size:36;not null;index" json:"authorId"`
	Author     User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Categories []Category `gorm:"many2many:post_categories;constraint:OnDelete:CASCADE;" json:"categories,omitempty"`
	Tags       []Tag      `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE;" json:"tags,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
