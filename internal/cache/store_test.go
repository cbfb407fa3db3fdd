package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	calls := 0

	fetch := func(dest *item) func() error {
		return func() error {
			calls++
			dest.Name = "go"
			return nil
		}
	}

	var first item
	require.NoError(t, store.Aside(ctx, "tag", TagKey(1), &first, time.Minute, fetch(&first)))
	assert.Equal(t, "go", first.Name)
	assert.True(t, mr.Exists(TagKey(1)))

	var second item
	require.NoError(t, store.Aside(ctx, "tag", TagKey(1), &second, time.Minute, fetch(&second)))
	assert.Equal(t, "go", second.Name)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	var third item
	require.NoError(t, store.Aside(ctx, "tag", TagKey(1), &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_PropagatesFetchError(t *testing.T) {
	store, mr := newTestStore(t)
	var dest item
	err := store.Aside(context.Background(), "tag", TagKey(2), &dest, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(TagKey(2)))
}

func TestNilStoreIsPassThrough(t *testing.T) {
	store := NewStore(nil)
	assert.False(t, store.Enabled())

	calls := 0
	var dest item
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Aside(context.Background(), "tag", "k", &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	store.InvalidateTaxonomy(context.Background())
}

func TestInvalidatePrefix(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, ListKey(CategoryListPrefix, 0, 10, "name ASC"), []item{{"a"}}, time.Minute))
	require.NoError(t, store.SetJSON(ctx, ListKey(CategoryListPrefix, 1, 10, "name ASC"), []item{{"b"}}, time.Minute))
	require.NoError(t, store.SetJSON(ctx, ListKey(TagListPrefix, 0, 10, "name ASC"), []item{{"c"}}, time.Minute))
	require.NoError(t, store.SetJSON(ctx, "unrelated", item{"d"}, time.Minute))

	store.InvalidatePrefix(ctx, CategoryListPrefix)
	assert.Len(t, mr.Keys(), 2)

	store.InvalidateTaxonomy(ctx)
	assert.Equal(t, []string{"unrelated"}, mr.Keys())
}
