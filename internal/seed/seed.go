// Package seed loads the bundled taxonomy and generates demo content for
// development databases.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zenith/internal/middleware"
	"zenith/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much demo content is generated.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// MaxDays spreads creation times over this many past days.
	MaxDays      int
	Password     string
	PasswordCost int
	Seed         int64
	Clean        bool
	// Fixtures overrides the bundled taxonomy.
	Fixtures *Fixtures
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.Password == "" {
		o.Password = "DemoPass123!"
	}
	if o.PasswordCost == 0 {
		o.PasswordCost = bcrypt.DefaultCost
	}
	return o
}

// Summary reports what a run created.
type Summary struct {
	Categories int
	Tags       int
	Users      int
	Posts      int
	Comments   int
}

// Seeder populates a database.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

// NewSeeder returns a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts.withDefaults()}
}

// Run applies the fixtures and then generates demo users, posts and comments.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Clean {
		if err := Clean(ctx, s.db); err != nil {
			return nil, err
		}
	}

	fx := s.opts.Fixtures
	if fx == nil {
		var err error
		if fx, err = DefaultFixtures(); err != nil {
			return nil, err
		}
	}
	if err := ApplyFixtures(ctx, s.db, fx); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "taxonomy fixtures applied",
		slog.Int("categories", len(fx.Categories)), slog.Int("tags", len(fx.Tags)))

	summary := &Summary{Categories: len(fx.Categories), Tags: len(fx.Tags)}
	if s.opts.Users <= 0 {
		return summary, nil
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, errors.New("demo content needs at least one category")
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}

	factory, err := NewFactory(s.db, s.opts)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		role := models.RoleUser
		if i == 0 {
			role = models.RoleModerator
		}
		user, err := factory.CreateUser(ctx, role)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	summary.Users = len(users)

	for _, author := range users {
		for p := 0; p < s.opts.PostsPerUser; p++ {
			category := categories[factory.faker.Number(0, len(categories)-1)]
			post, err := factory.CreatePost(ctx, author, &category, factory.postStatus(),
				factory.pick(tags, factory.faker.Number(0, 3)))
			if err != nil {
				return nil, err
			}
			summary.Posts++

			if post.Status == models.PostStatusDraft {
				continue
			}
			for c := 0; c < s.opts.CommentsPerPost; c++ {
				commenter := users[factory.faker.Number(0, len(users)-1)]
				if _, err := factory.CreateComment(ctx, post, commenter, factory.commentStatus()); err != nil {
					return nil, err
				}
				summary.Comments++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "demo content generated",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments))
	return summary, nil
}

// Clean removes all blog content and users, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	tables := []any{&models.Comment{}, &models.PostTag{}, &models.Post{}, &models.Tag{}, &models.Category{}, &models.User{}}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clean %T: %w", model, err)
			}
		}
		middleware.Logger.WarnContext(ctx, "database cleaned")
		return nil
	})
}
