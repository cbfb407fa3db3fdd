//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"zenith/internal/config"
	"zenith/internal/database"
	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// startPostgres runs a throwaway Postgres and applies the SQL migrations.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("zenith"),
		postgres.WithUsername("zenith"),
		postgres.WithPassword("zenith"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:          "test",
		DBHost:       host,
		DBPort:       port.Port(),
		DBUser:       "zenith",
		DBPassword:   "zenith",
		DBName:       "zenith",
		DBSSLMode:    "disable",
		DBSchemaMode: database.SchemaModeSQL,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.ApplySchema(ctx, db, cfg))
	return db
}

func TestPostgres_UniqueViolationsMapToDuplicate(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	require.NoError(t, users.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com", Password: "hash", Role: models.RoleUser}))
	err := users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "hash", Role: models.RoleUser})
	appErr := models.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, models.CodeDuplicate, appErr.Code)

	tags := NewTagRepository(db)
	require.NoError(t, tags.Create(ctx, &models.Tag{Name: "go"}))
	appErr = models.AsAppError(tags.Create(ctx, &models.Tag{Name: "go"}))
	require.NotNil(t, appErr)
	assert.Equal(t, models.CodeDuplicate, appErr.Code)
}

func TestPostgres_PostQueriesAndRetention(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)

	author := testutil.CreateUser(t, db, "writer", models.RoleUser)
	category := testutil.CreateCategory(t, db, "Engineering")
	golang := testutil.CreateTag(t, db, "go")

	live := testutil.CreatePost(t, db, author, category, models.PostStatusPublished, golang)
	old := testutil.CreatePost(t, db, author, category, models.PostStatusArchived)
	testutil.Backdate(t, db, &models.Post{}, old.ID, 45*24*time.Hour)
	oldComment := testutil.CreateComment(t, db, author, old, models.CommentStatusArchived)
	testutil.Backdate(t, db, &models.Comment{}, oldComment.ID, 45*24*time.Hour)
	testutil.CreateComment(t, db, author, live, models.CommentStatusApproved)

	listed, total, err := posts.List(ctx, models.PostFilter{Tag: "GO"}, page(10, "created_at", true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, listed, 1)
	assert.Equal(t, live.ID, listed[0].ID)
	require.Len(t, listed[0].Tags, 1)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	ids, err := posts.ArchivedIDsBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []uint{old.ID}, ids)

	tx := NewTransactor(db)
	require.NoError(t, tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := comments.DeleteArchivedBefore(ctx, cutoff); err != nil {
			return err
		}
		if _, err := comments.DeleteByPostIDs(ctx, ids); err != nil {
			return err
		}
		if err := posts.DeleteTagLinks(ctx, ids); err != nil {
			return err
		}
		_, err := posts.DeleteByIDs(ctx, ids)
		return err
	}))

	_, err = posts.GetByID(ctx, old.ID)
	appErr := models.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
