package server

import (
	"time"

	"zenith/internal/models"
)

// Request bodies. Validation of domain rules stays in the services; the tags
// here only reject shapes no service call could accept.

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type createPostRequest struct {
	Title      string   `json:"title" validate:"required,max=255"`
	Content    string   `json:"content" validate:"required"`
	CategoryID uint     `json:"categoryId" validate:"required,gt=0"`
	TagIDs     []uint   `json:"tagIds" validate:"omitempty,dive,gt=0"`
	TagNames   []string `json:"tagNames" validate:"omitempty,dive,max=50"`
	Status     string   `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED draft published archived"`
}

type updatePostRequest struct {
	Title      *string   `json:"title" validate:"omitempty,max=255"`
	Content    *string   `json:"content"`
	CategoryID *uint     `json:"categoryId" validate:"omitempty,gt=0"`
	TagIDs     *[]uint   `json:"tagIds"`
	TagNames   *[]string `json:"tagNames"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type createCommentRequest struct {
	PostID  uint   `json:"postId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=5000"`
}

type updateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=500"`
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// Responses.

type CategorySummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type TagSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type PostResponse struct {
	ID                 uint                `json:"id"`
	Title              string              `json:"title"`
	Slug               string              `json:"slug"`
	Content            string              `json:"content"`
	Excerpt            string              `json:"excerpt"`
	ReadingTimeMinutes int                 `json:"readingTimeMinutes"`
	Status             models.PostStatus   `json:"status"`
	Author             *models.UserSummary `json:"author"`
	Category           *CategorySummary    `json:"category"`
	Tags               []TagSummary        `json:"tags"`
	PublishedAt        *time.Time          `json:"publishedAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

type CommentResponse struct {
	ID        uint                 `json:"id"`
	Content   string               `json:"content"`
	Status    models.CommentStatus `json:"status"`
	PostID    uint                 `json:"postId"`
	Author    *models.UserSummary  `json:"author"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func toPostResponse(p models.Post) PostResponse {
	resp := PostResponse{
		ID:                 p.ID,
		Title:              p.Title,
		Slug:               p.Slug,
		Content:            p.Content,
		Excerpt:            p.Excerpt,
		ReadingTimeMinutes: p.ReadingTime,
		Status:             p.Status,
		Author:             p.Author.Summary(),
		Tags:               make([]TagSummary, 0, len(p.Tags)),
		PublishedAt:        p.PublishedAt,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Category != nil {
		resp.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name}
	}
	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, TagSummary{ID: t.ID, Name: t.Name})
	}
	return resp
}

func toCommentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		Status:    c.Status,
		PostID:    c.PostID,
		Author:    c.Author.Summary(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
