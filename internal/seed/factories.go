package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"zenith/internal/models"
	"zenith/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds demo entities and persists them.
type Factory struct {
	db     *gorm.DB
	faker  *gofakeit.Faker
	opts   Options
	hashed string
	now    func() time.Time
}

// NewFactory returns a Factory writing through db. Options.Seed makes the
// generated content reproducible.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	opts = opts.withDefaults()
	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &Factory{
		db:     db,
		faker:  gofakeit.New(opts.Seed),
		opts:   opts,
		hashed: string(hashed),
		now:    time.Now,
	}, nil
}

// CreateUser inserts a user with a fake profile. Every demo account shares
// the configured password.
func (f *Factory) CreateUser(ctx context.Context, role models.Role) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := f.username(first, last)
	user := &models.User{
		Username:  username,
		Email:     username + "@demo.zenith.local",
		Password:  f.hashed,
		FirstName: first,
		LastName:  last,
		Bio:       f.faker.Sentence(12),
		Role:      role,
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return user, nil
}

func (f *Factory) username(first, last string) string {
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return -1
	}, first+"_"+last)
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "writer"
	}
	return base + "_" + uuid.NewString()[:6]
}

// CreatePost inserts a post with a random title and body, linking tags. The
// creation time is spread over the configured window; published posts get a
// publication time after it.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, category *models.Category, status models.PostStatus, tags []models.Tag) (*models.Post, error) {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")
	paragraphs := f.faker.Number(2, 8)
	content := f.faker.Paragraph(paragraphs, f.faker.Number(3, 6), f.faker.Number(8, 16), "\n\n")

	created := f.now().Add(-time.Duration(f.faker.Number(0, f.opts.MaxDays*24)) * time.Hour)
	post := &models.Post{
		Title:       title,
		Slug:        slug.Make(title) + "-" + uuid.NewString()[:8],
		Content:     content,
		Excerpt:     service.Excerpt(content),
		ReadingTime: service.ReadingTime(content),
		Status:      status,
		AuthorID:    author.ID,
		CategoryID:  category.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if status == models.PostStatusPublished {
		published := created.Add(time.Duration(f.faker.Number(1, 48)) * time.Hour)
		if published.After(f.now()) {
			published = f.now()
		}
		post.PublishedAt = &published
	}

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Create(&models.PostTag{PostID: post.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create post %q: %w", title, err)
	}
	post.Tags = tags
	return post, nil
}

// CreateComment inserts a comment on post written after the post itself.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User, status models.CommentStatus) (*models.Comment, error) {
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72)) * time.Hour)
	if created.After(f.now()) {
		created = f.now()
	}
	comment := &models.Comment{
		Content:   f.faker.Sentence(f.faker.Number(6, 30)),
		Status:    status,
		PostID:    post.ID,
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment on post %d: %w", post.ID, err)
	}
	return comment, nil
}

// pick returns up to n distinct tags.
func (f *Factory) pick(tags []models.Tag, n int) []models.Tag {
	if n > len(tags) {
		n = len(tags)
	}
	shuffled := append([]models.Tag(nil), tags...)
	f.faker.ShuffleAnySlice(shuffled)
	return shuffled[:n]
}

func (f *Factory) postStatus() models.PostStatus {
	switch roll := f.faker.Number(1, 10); {
	case roll <= 6:
		return models.PostStatusPublished
	case roll <= 9:
		return models.PostStatusDraft
	default:
		return models.PostStatusArchived
	}
}

func (f *Factory) commentStatus() models.CommentStatus {
	switch roll := f.faker.Number(1, 10); {
	case roll <= 6:
		return models.CommentStatusApproved
	case roll <= 8:
		return models.CommentStatusPending
	case roll == 9:
		return models.CommentStatusSpam
	default:
		return models.CommentStatusArchived
	}
}
