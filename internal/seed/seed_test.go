package seed

import (
	"context"
	"strings"
	"testing"

	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseFixtures_Normalizes(t *testing.T) {
	doc := `
categories:
  - name: "  Go  "
    description: Gophers
  - name: go
  - name: ""
tags: [Go, " go ", Testing, ""]
`
	fx, err := ParseFixtures(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, fx.Categories, 1)
	assert.Equal(t, "Go", fx.Categories[0].Name)
	assert.Equal(t, []string{"go", "testing"}, fx.Tags)
}

func TestParseFixtures_RejectsUnknownFields(t *testing.T) {
	_, err := ParseFixtures(strings.NewReader("categorys: []\n"))
	assert.Error(t, err)
}

func TestParseFixtures_RejectsLongNames(t *testing.T) {
	_, err := ParseFixtures(strings.NewReader("tags: [" + strings.Repeat("x", 51) + "]\n"))
	assert.Error(t, err)
}

func TestDefaultFixtures(t *testing.T) {
	fx, err := DefaultFixtures()
	require.NoError(t, err)
	assert.NotEmpty(t, fx.Categories)
	assert.NotEmpty(t, fx.Tags)
}

func TestApplyFixtures_Idempotent(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()
	fx := &Fixtures{
		Categories: []CategoryFixture{{Name: "Engineering", Description: "v1"}},
		Tags:       []string{"go", "sql"},
	}
	require.NoError(t, ApplyFixtures(ctx, db, fx))

	fx.Categories[0].Description = "v2"
	require.NoError(t, ApplyFixtures(ctx, db, fx))

	var categories []models.Category
	require.NoError(t, db.Find(&categories).Error)
	require.Len(t, categories, 1)
	assert.Equal(t, "v2", categories[0].Description)

	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.EqualValues(t, 2, tagCount)
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()

	summary, err := NewSeeder(db, Options{
		Users:           3,
		PostsPerUser:    4,
		CommentsPerPost: 2,
		PasswordCost:    bcrypt.MinCost,
		Seed:            42,
	}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 12, summary.Posts)

	var moderators int64
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.RoleModerator).Count(&moderators).Error)
	assert.EqualValues(t, 1, moderators)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 12)
	for _, p := range posts {
		assert.NotEmpty(t, p.Slug)
		assert.GreaterOrEqual(t, p.ReadingTime, 1)
		if p.Status == models.PostStatusPublished {
			assert.NotNil(t, p.PublishedAt, "published post %d has no publication time", p.ID)
		} else {
			assert.Nil(t, p.PublishedAt)
		}
	}

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.EqualValues(t, summary.Comments, comments)

	var draftComments int64
	require.NoError(t, db.Model(&models.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.status = ?", models.PostStatusDraft).
		Count(&draftComments).Error)
	assert.Zero(t, draftComments)
}

func TestSeeder_DemoPasswordVerifies(t *testing.T) {
	db := testutil.OpenSQLite(t)
	_, err := NewSeeder(db, Options{Users: 1, PasswordCost: bcrypt.MinCost, Password: "Sup3r-Secret!"}).Run(context.Background())
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Sup3r-Secret!")))
}

func TestClean(t *testing.T) {
	db := testutil.OpenSQLite(t)
	author := testutil.CreateUser(t, db, "author", models.RoleUser)
	category := testutil.CreateCategory(t, db, "Misc")
	post := testutil.CreatePost(t, db, author, category, models.PostStatusPublished)
	testutil.CreateComment(t, db, author, post, models.CommentStatusApproved)

	require.NoError(t, Clean(context.Background(), db))

	for _, model := range []any{&models.User{}, &models.Post{}, &models.Comment{}, &models.Category{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T not cleaned", model)
	}
}
