package models

import (
	"strings"
	"time"
)

// PostStatus is the editorial state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusArchived  PostStatus = "ARCHIVED"
)

// ParsePostStatus accepts a status name in any case.
func ParsePostStatus(raw string) (PostStatus, bool) {
	switch PostStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case PostStatusDraft:
		return PostStatusDraft, true
	case PostStatusPublished:
		return PostStatusPublished, true
	case PostStatusArchived:
		return PostStatusArchived, true
	}
	return "", false
}

// Post is a blog article. Author and category are plain foreign keys; the
// pointer fields are only filled by explicit preloads on read paths.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;size:300;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Excerpt     string     `gorm:"size:400" json:"excerpt"`
	ReadingTime int        `gorm:"column:reading_time_minutes;not null;default:1" json:"readingTimeMinutes"`
	Status      PostStatus `gorm:"size:20;not null;default:DRAFT;index" json:"status"`
	AuthorID    uint       `gorm:"not null;index" json:"authorId"`
	Author      *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CategoryID  uint       `gorm:"not null;index" json:"categoryId"`
	Category    *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Tags is loaded from post_tags by the repository
	Tags []Tag `gorm:"-" json:"tags"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostTag links a post to a tag.
type PostTag struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"tagId"`
}

// TableName pins the join table name.
func (PostTag) TableName() string {
	return "post_tags"
}

// PostFilter narrows post listings. Zero values mean "any".
type PostFilter struct {
	Status     PostStatus
	AuthorID   uint
	CategoryID uint
	Tag        string
	Query      string
}
