// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"zenith/internal/database"
	"zenith/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite returns a migrated in-memory database private to the test.
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the shared-cache database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user with the given role and a fake profile.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     strings.ToLower(username) + "@example.com",
		Password:  "$2a$10$placeholderplaceholderplaceholderplaceholderplacehold",
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Role:      role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Description: gofakeit.Sentence(6)}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateTag inserts a tag.
func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreatePost inserts a post with the given status and links it to tags.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, category *models.Category, status models.PostStatus, tags ...*models.Tag) *models.Post {
	t.Helper()
	title := gofakeit.Sentence(4)
	post := &models.Post{
		Title:       title,
		Slug:        fmt.Sprintf("post-%s", gofakeit.UUID()),
		Content:     gofakeit.Paragraph(1, 3, 20, " "),
		ReadingTime: 1,
		Status:      status,
		AuthorID:    author.ID,
		CategoryID:  category.ID,
	}
	if status == models.PostStatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}
	require.NoError(t, db.Omit("Author", "Category").Create(post).Error)
	for _, tag := range tags {
		require.NoError(t, db.Create(&models.PostTag{PostID: post.ID, TagID: tag.ID}).Error)
	}
	return post
}

// CreateComment inserts a comment with the given status.
func CreateComment(t *testing.T, db *gorm.DB, author *models.User, post *models.Post, status models.CommentStatus) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Content:  gofakeit.Sentence(8),
		Status:   status,
		PostID:   post.ID,
		AuthorID: author.ID,
	}
	require.NoError(t, db.Omit("Author").Create(comment).Error)
	return comment
}

// Backdate rewrites created_at on a row of model's table.
func Backdate(t *testing.T, db *gorm.DB, model any, id uint, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).UpdateColumn("created_at", time.Now().UTC().Add(-age)).Error)
}
