package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("  short  "))

	long := strings.Repeat("é", 450)
	got := Excerpt(long)
	assert.Equal(t, 200, utf8.RuneCountInString(got))
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("a few words"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 5, ReadingTime(strings.Repeat("word ", 1000)))
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"hello-world": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := uniqueSlug(ctx, "Brand New Post!", exists)
	require.NoError(t, err)
	assert.Equal(t, "brand-new-post", got)

	got, err = uniqueSlug(ctx, "Hello, World", exists)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "hello-world-"), got)
	assert.NotEqual(t, "hello-world", got)

	got, err = uniqueSlug(ctx, "!!!", exists)
	require.NoError(t, err)
	assert.Equal(t, "post", got)
}
