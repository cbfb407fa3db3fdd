package models

import (
	"strings"
	"time"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "PENDING"
	CommentStatusApproved CommentStatus = "APPROVED"
	CommentStatusSpam     CommentStatus = "SPAM"
	CommentStatusArchived CommentStatus = "ARCHIVED"
)

// ParseCommentStatus accepts a status name in any case.
func ParseCommentStatus(raw string) (CommentStatus, bool) {
	switch CommentStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case CommentStatusPending:
		return CommentStatusPending, true
	case CommentStatusApproved:
		return CommentStatusApproved, true
	case CommentStatusSpam:
		return CommentStatusSpam, true
	case CommentStatusArchived:
		return CommentStatusArchived, true
	}
	return "", false
}

// Comment is a reader response attached to a post.
type Comment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	Status    CommentStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	PostID    uint          `gorm:"not null;index" json:"postId"`
	AuthorID  uint          `gorm:"not null;index" json:"authorId"`
	Author    *User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CommentFilter narrows comment listings. Zero values mean "any".
type CommentFilter struct {
	PostID   uint
	AuthorID uint
	Status   CommentStatus
}
