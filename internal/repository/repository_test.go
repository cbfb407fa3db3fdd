package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(size int, column string, desc bool) models.PageRequest {
	return models.PageRequest{Size: size, Sort: models.Sort{Column: column, Desc: desc}}
}

func TestPostRepository_ListFilters(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)
	tech := testutil.CreateCategory(t, db, "Tech")
	life := testutil.CreateCategory(t, db, "Life")
	golang := testutil.CreateTag(t, db, "Go")
	rust := testutil.CreateTag(t, db, "Rust")

	p1 := testutil.CreatePost(t, db, alice, tech, models.PostStatusPublished, golang)
	p2 := testutil.CreatePost(t, db, alice, life, models.PostStatusPublished, rust, golang)
	testutil.CreatePost(t, db, bob, tech, models.PostStatusDraft, golang)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p2.ID).Update("title", "Gophers in the wild").Error)

	tests := []struct {
		name    string
		filter  models.PostFilter
		wantIDs []uint
	}{
		{"published only", models.PostFilter{Status: models.PostStatusPublished}, []uint{p1.ID, p2.ID}},
		{"by category", models.PostFilter{Status: models.PostStatusPublished, CategoryID: life.ID}, []uint{p2.ID}},
		{"by tag case insensitive", models.PostFilter{Status: models.PostStatusPublished, Tag: "rUsT"}, []uint{p2.ID}},
		{"by author any status", models.PostFilter{AuthorID: bob.ID}, []uint{3}},
		{"full text", models.PostFilter{Query: "GOPHERS"}, []uint{p2.ID}},
		{"no match", models.PostFilter{Tag: "haskell"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := repo.List(ctx, tt.filter, page(10, "created_at", false))
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.wantIDs)), total)
			var got []uint
			for _, p := range posts {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}

	t.Run("preloads author category and tags", func(t *testing.T) {
		posts, _, err := repo.List(ctx, models.PostFilter{AuthorID: alice.ID}, page(10, "created_at", false))
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "alice", posts[1].Author.Username)
		assert.Equal(t, "Life", posts[1].Category.Name)
		require.Len(t, posts[1].Tags, 2)
		assert.Equal(t, "Go", posts[1].Tags[0].Name)
		assert.Equal(t, "Rust", posts[1].Tags[1].Name)
	})

	t.Run("paginates", func(t *testing.T) {
		posts, total, err := repo.List(ctx, models.PostFilter{}, models.PageRequest{Page: 1, Size: 2, Sort: models.Sort{Column: "id"}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, posts, 1)
		assert.Equal(t, uint(3), posts[0].ID)
	})
}

func TestPostRepository_ReplaceTagsDeduplicates(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "writer", models.RoleUser)
	cat := testutil.CreateCategory(t, db, "News")
	a := testutil.CreateTag(t, db, "a")
	b := testutil.CreateTag(t, db, "b")
	post := testutil.CreatePost(t, db, author, cat, models.PostStatusDraft, a)

	require.NoError(t, repo.ReplaceTags(ctx, post.ID, []uint{b.ID, b.ID}))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "b", got.Tags[0].Name)

	require.NoError(t, repo.ReplaceTags(ctx, post.ID, nil))
	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestPostRepository_SlugLookups(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "writer", models.RoleUser)
	cat := testutil.CreateCategory(t, db, "News")
	post := testutil.CreatePost(t, db, author, cat, models.PostStatusDraft)

	found, err := repo.GetBySlug(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)

	taken, err := repo.SlugExists(ctx, post.Slug, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugExists(ctx, post.Slug, post.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestArchivedRetentionQueries(t *testing.T) {
	db := testutil.OpenSQLite(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "writer", models.RoleUser)
	cat := testutil.CreateCategory(t, db, "News")
	live := testutil.CreatePost(t, db, author, cat, models.PostStatusPublished)
	oldPost := testutil.CreatePost(t, db, author, cat, models.PostStatusArchived)
	freshPost := testutil.CreatePost(t, db, author, cat, models.PostStatusArchived)
	testutil.Backdate(t, db, &models.Post{}, oldPost.ID, 31*24*time.Hour)
	testutil.Backdate(t, db, &models.Post{}, freshPost.ID, 29*24*time.Hour)

	oldComment := testutil.CreateComment(t, db, author, live, models.CommentStatusArchived)
	freshComment := testutil.CreateComment(t, db, author, live, models.CommentStatusArchived)
	pending := testutil.CreateComment(t, db, author, live, models.CommentStatusPending)
	testutil.Backdate(t, db, &models.Comment{}, oldComment.ID, 31*24*time.Hour)
	testutil.Backdate(t, db, &models.Comment{}, freshComment.ID, 29*24*time.Hour)
	testutil.Backdate(t, db, &models.Comment{}, pending.ID, 90*24*time.Hour)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	ids, err := posts.ArchivedIDsBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []uint{oldPost.ID}, ids)

	n, err := comments.DeleteArchivedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, total, err := comments.List(ctx, models.CommentFilter{PostID: live.ID}, page(10, "id", false))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, freshComment.ID, remaining[0].ID)
	assert.Equal(t, pending.ID, remaining[1].ID)
}

func TestCommentRepository_StatusAndContent(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "reader", models.RoleUser)
	cat := testutil.CreateCategory(t, db, "News")
	post := testutil.CreatePost(t, db, author, cat, models.PostStatusPublished)
	comment := &models.Comment{Content: "first", PostID: post.ID, AuthorID: author.ID}
	require.NoError(t, repo.Create(ctx, comment))

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusPending, got.Status)
	assert.Equal(t, "reader", got.Author.Username)

	require.NoError(t, repo.UpdateStatus(ctx, comment.ID, models.CommentStatusApproved))
	require.NoError(t, repo.UpdateContent(ctx, comment.ID, "edited"))
	got, err = repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusApproved, got.Status)
	assert.Equal(t, "edited", got.Content)

	err = repo.UpdateStatus(ctx, 999, models.CommentStatusSpam)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)

	approved, total, err := repo.List(ctx, models.CommentFilter{PostID: post.ID, Status: models.CommentStatusApproved}, page(10, "created_at", true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, approved, 1)
}

func TestTaxonomyPostCounts(t *testing.T) {
	db := testutil.OpenSQLite(t)
	categories := NewCategoryRepository(db)
	tags := NewTagRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "writer", models.RoleUser)
	tech := testutil.CreateCategory(t, db, "Tech")
	empty := testutil.CreateCategory(t, db, "Empty")
	golang := testutil.CreateTag(t, db, "go")
	testutil.CreatePost(t, db, author, tech, models.PostStatusPublished, golang)
	testutil.CreatePost(t, db, author, tech, models.PostStatusDraft, golang)

	cat, err := categories.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cat.PostCount)

	list, total, err := categories.List(ctx, page(10, "name", false))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, empty.ID, list[0].ID)
	assert.Equal(t, int64(0), list[0].PostCount)
	assert.Equal(t, int64(2), list[1].PostCount)

	tag, err := tags.GetByID(ctx, golang.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.PostCount)
}

func TestTaxonomyNameChecks(t *testing.T) {
	db := testutil.OpenSQLite(t)
	categories := NewCategoryRepository(db)
	tags := NewTagRepository(db)
	ctx := context.Background()

	tech := testutil.CreateCategory(t, db, "Tech")
	exists, err := categories.ExistsByName(ctx, "TECH", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = categories.ExistsByName(ctx, "tech", tech.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, tags.CreateBatch(ctx, []models.Tag{{Name: "Go"}, {Name: "Rust"}}))
	found, err := tags.FindByNames(ctx, []string{"go", "RUST", "zig"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	err = tags.Create(ctx, &models.Tag{Name: "Go"})
	assert.Equal(t, models.CodeDuplicate, models.AsAppError(err).Code)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := testutil.OpenSQLite(t)
	tx := NewTransactor(db)
	tags := NewTagRepository(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := tags.Create(ctx, &models.Tag{Name: "ephemeral"}); err != nil {
			return err
		}
		// nested call joins the same transaction
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			exists, err := tags.ExistsByName(ctx, "ephemeral", 0)
			require.NoError(t, err)
			assert.True(t, exists)
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	exists, err := tags.ExistsByName(ctx, "ephemeral", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := testutil.OpenSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "alice", models.RoleUser)
	category := testutil.CreateCategory(t, db, "Tech")
	titles := map[string]*models.Post{}
	for _, title := range []string{"100% coverage", "1000 coverage", "snake_case names", "snakeXcase names"} {
		p := testutil.CreatePost(t, db, author, category, models.PostStatusPublished)
		require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p.ID).
			Updates(map[string]any{"title": title, "content": "plain body"}).Error)
		titles[title] = p
	}

	tests := []struct {
		query string
		want  uint
	}{
		{"100%", titles["100% coverage"].ID},
		{"snake_case", titles["snake_case names"].ID},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			posts, total, err := repo.List(ctx, models.PostFilter{Query: tt.query}, page(10, "created_at", true))
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
			require.Len(t, posts, 1)
			assert.Equal(t, tt.want, posts[0].ID)
		})
	}
}
