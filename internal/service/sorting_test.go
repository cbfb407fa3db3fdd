package service

import (
	"testing"

	"zenith/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePage_Defaults(t *testing.T) {
	page, err := ResolvePage(PageInput{}, PostSortFields)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, models.Sort{Column: "created_at", Desc: true}, page.Sort)

	page, err = ResolvePage(PageInput{}, TaxonomySortFields)
	require.NoError(t, err)
	assert.Equal(t, "name ASC", page.Sort.Clause())
}

func TestResolvePage_ClampsSize(t *testing.T) {
	page, err := ResolvePage(PageInput{Size: 5000}, PostSortFields)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Size)
}

func TestResolvePage_NegativePage(t *testing.T) {
	_, err := ResolvePage(PageInput{Page: -1}, PostSortFields)
	assertAppError(t, err, models.CodeValidation)
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		name      string
		sortBy    string
		direction string
		want      string
		wantErr   bool
	}{
		{name: "field is case-insensitive", sortBy: "PublishedAt", want: "published_at DESC"},
		{name: "explicit asc", sortBy: "title", direction: "ASC", want: "title ASC"},
		{name: "direction without field", direction: "asc", want: "created_at ASC"},
		{name: "api name maps to column", sortBy: "readingTime", direction: "desc", want: "reading_time_minutes DESC"},
		{name: "column name is not an api name", sortBy: "created_at", wantErr: true},
		{name: "injection attempt", sortBy: "title; DROP TABLE posts", wantErr: true},
		{name: "bad direction", sortBy: "title", direction: "sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sort, err := ResolveSort(tt.sortBy, tt.direction, PostSortFields)
			if tt.wantErr {
				assertAppError(t, err, models.CodeValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sort.Clause())
		})
	}
}

func TestResolveSort_PerResourceAllowList(t *testing.T) {
	_, err := ResolveSort("title", "", CommentSortFields)
	assertAppError(t, err, models.CodeValidation)

	_, err = ResolveSort("username", "", UserSortFields)
	assert.NoError(t, err)
}
