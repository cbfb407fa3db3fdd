package service

import (
	"context"
	"strings"
	"testing"

	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := identity(testutil.CreateUser(t, env.db, "root", models.RoleAdmin))
	mod := identity(testutil.CreateUser(t, env.db, "mod", models.RoleModerator))

	_, err := env.categories.Create(ctx, mod, CategoryInput{Name: "Go"})
	assertAppError(t, err, models.CodeForbidden)

	_, err = env.categories.Create(ctx, admin, CategoryInput{Name: "  "})
	assertAppError(t, err, models.CodeValidation)

	_, err = env.categories.Create(ctx, admin, CategoryInput{Name: strings.Repeat("c", 51)})
	assertAppError(t, err, models.CodeValidation)

	golang, err := env.categories.Create(ctx, admin, CategoryInput{Name: " Go ", Description: " Gophers "})
	require.NoError(t, err)
	assert.Equal(t, "Go", golang.Name)
	assert.Equal(t, "Gophers", golang.Description)

	_, err = env.categories.Create(ctx, admin, CategoryInput{Name: "go"})
	assertAppError(t, err, models.CodeDuplicate)

	rust, err := env.categories.Create(ctx, admin, CategoryInput{Name: "Rust"})
	require.NoError(t, err)

	_, err = env.categories.Update(ctx, admin, rust.ID, CategoryInput{Name: "GO"})
	assertAppError(t, err, models.CodeDuplicate)

	renamed, err := env.categories.Update(ctx, admin, golang.ID, CategoryInput{Name: "go"})
	require.NoError(t, err, "renaming to a case variant of its own name is allowed")
	assert.Equal(t, "go", renamed.Name)

	got, err := env.categories.Get(ctx, golang.ID)
	require.NoError(t, err)
	assert.Equal(t, "go", got.Name)

	list, err := env.categories.List(ctx, defaultPage(t, TaxonomySortFields))
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.TotalElements)

	_, err = env.categories.Get(ctx, 999)
	assertAppError(t, err, models.CodeNotFound)
}

func TestCategoryService_DeleteWithDependents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, "root", models.RoleAdmin)
	category := testutil.CreateCategory(t, env.db, "Busy")
	empty := testutil.CreateCategory(t, env.db, "Empty")
	testutil.CreatePost(t, env.db, admin, category, models.PostStatusDraft)

	err := env.categories.Delete(ctx, identity(admin), category.ID)
	assertAppError(t, err, models.CodeHasDependents)

	require.NoError(t, env.categories.Delete(ctx, identity(admin), empty.ID))
	err = env.categories.Delete(ctx, identity(admin), empty.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestTagService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := identity(testutil.CreateUser(t, env.db, "root", models.RoleAdmin))
	user := identity(testutil.CreateUser(t, env.db, "alice", models.RoleUser))

	_, err := env.tags.Create(ctx, user, "go")
	assertAppError(t, err, models.CodeForbidden)

	tag, err := env.tags.Create(ctx, admin, " Testing ")
	require.NoError(t, err)
	assert.Equal(t, "Testing", tag.Name)

	_, err = env.tags.Create(ctx, admin, "TESTING")
	assertAppError(t, err, models.CodeDuplicate)

	updated, err := env.tags.Update(ctx, admin, tag.ID, "testing")
	require.NoError(t, err)
	assert.Equal(t, "testing", updated.Name)

	other, err := env.tags.Create(ctx, admin, "Go")
	require.NoError(t, err)
	_, err = env.tags.Create(ctx, admin, "go")
	assertAppError(t, err, models.CodeDuplicate)
	_, err = env.tags.Update(ctx, admin, other.ID, "TESTING")
	assertAppError(t, err, models.CodeDuplicate)

	_, err = env.tags.Update(ctx, admin, 999, "x")
	assertAppError(t, err, models.CodeNotFound)
}

func TestTagService_DeleteWithDependents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, "root", models.RoleAdmin)
	category := testutil.CreateCategory(t, env.db, "Misc")
	used := testutil.CreateTag(t, env.db, "used")
	unused := testutil.CreateTag(t, env.db, "unused")
	testutil.CreatePost(t, env.db, admin, category, models.PostStatusDraft, used)

	err := env.tags.Delete(ctx, identity(admin), used.ID)
	assertAppError(t, err, models.CodeHasDependents)

	require.NoError(t, env.tags.Delete(ctx, identity(admin), unused.ID))
}

func TestTagService_FindByIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateTag(t, env.db, "a")
	b := testutil.CreateTag(t, env.db, "b")

	tags, err := env.tags.FindByIDs(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = env.tags.FindByIDs(ctx, []uint{a.ID, 999})
	assertAppError(t, err, models.CodeNotFound)

	tags, err = env.tags.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
