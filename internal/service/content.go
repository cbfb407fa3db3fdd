package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	excerptLength  = 200
	wordsPerMinute = 200
	maxSlugTries   = 5
)

// Excerpt returns the first 200 runes of content, trimmed.
func Excerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= excerptLength {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:excerptLength]))
}

// ReadingTime estimates minutes to read content at 200 words per minute,
// never less than one.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// uniqueSlug derives a slug from title and appends a short random suffix
// while taken reports a clash.
func uniqueSlug(ctx context.Context, title string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 0; i < maxSlugTries; i++ {
		clash, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !clash {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:8]
	}
	// collisions on a random suffix this often are not expected; fall back to a full uuid
	return base + "-" + uuid.NewString(), nil
}
