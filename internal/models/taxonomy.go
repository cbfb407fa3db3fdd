package models

import "time"

// Category groups posts; every post belongs to exactly one.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// PostCount is computed at query time
	PostCount int64 `gorm:"-" json:"postCount"`
}

// Tag is a free-form label shared by many posts.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// PostCount counts PUBLISHED posts only; computed at query time
	PostCount int64 `gorm:"-" json:"postCount"`
}
