package service

import (
	"context"
	"testing"
	"time"

	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestCleanupService_Run(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	category := testutil.CreateCategory(t, env.db, "Engineering")
	tag := testutil.CreateTag(t, env.db, "go")

	oldArchived := testutil.CreatePost(t, env.db, author, category, models.PostStatusArchived, tag)
	testutil.Backdate(t, env.db, &models.Post{}, oldArchived.ID, 31*day)
	orphan := testutil.CreateComment(t, env.db, author, oldArchived, models.CommentStatusApproved)

	recentArchived := testutil.CreatePost(t, env.db, author, category, models.PostStatusArchived)
	testutil.Backdate(t, env.db, &models.Post{}, recentArchived.ID, 29*day)

	oldPublished := testutil.CreatePost(t, env.db, author, category, models.PostStatusPublished)
	testutil.Backdate(t, env.db, &models.Post{}, oldPublished.ID, 400*day)

	oldArchivedComment := testutil.CreateComment(t, env.db, author, oldPublished, models.CommentStatusArchived)
	testutil.Backdate(t, env.db, &models.Comment{}, oldArchivedComment.ID, 45*day)
	recentArchivedComment := testutil.CreateComment(t, env.db, author, oldPublished, models.CommentStatusArchived)
	oldSpam := testutil.CreateComment(t, env.db, author, oldPublished, models.CommentStatusSpam)
	testutil.Backdate(t, env.db, &models.Comment{}, oldSpam.ID, 90*day)

	result, err := env.cleanup.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.PostsDeleted)
	assert.EqualValues(t, 2, result.CommentsDeleted)
	assert.WithinDuration(t, time.Now().Add(-30*day), result.Cutoff, time.Minute)

	exists := func(model any, id uint) bool {
		var n int64
		require.NoError(t, env.db.Model(model).Where("id = ?", id).Count(&n).Error)
		return n > 0
	}
	assert.False(t, exists(&models.Post{}, oldArchived.ID))
	assert.False(t, exists(&models.Comment{}, orphan.ID))
	assert.False(t, exists(&models.Comment{}, oldArchivedComment.ID))
	assert.True(t, exists(&models.Post{}, recentArchived.ID))
	assert.True(t, exists(&models.Post{}, oldPublished.ID))
	assert.True(t, exists(&models.Comment{}, recentArchivedComment.ID))
	assert.True(t, exists(&models.Comment{}, oldSpam.ID))

	var links int64
	require.NoError(t, env.db.Model(&models.PostTag{}).Where("post_id = ?", oldArchived.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestCleanupService_NothingToDo(t *testing.T) {
	env := newTestEnv(t)
	result, err := env.cleanup.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.PostsDeleted)
	assert.Zero(t, result.CommentsDeleted)
	assert.Equal(t, 30*day, env.cleanup.Retention())
}

func TestCleanupService_UsesCreationTime(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	category := testutil.CreateCategory(t, env.db, "Engineering")
	post := testutil.CreatePost(t, env.db, author, category, models.PostStatusArchived)
	testutil.Backdate(t, env.db, &models.Post{}, post.ID, 60*day)
	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("updated_at", time.Now().UTC()).Error)

	result, err := env.cleanup.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.PostsDeleted, "a recent edit does not extend retention")
}
