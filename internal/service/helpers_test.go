package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zenith/internal/access"
	"zenith/internal/auth"
	"zenith/internal/cache"
	"zenith/internal/models"
	"zenith/internal/notifications"
	"zenith/internal/repository"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) ofType(eventType string) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notifications.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	events     *recordingPublisher
	auth       *AuthService
	users      *UserService
	posts      *PostService
	comments   *CommentService
	categories *CategoryService
	tags       *TagService
	cleanup    *CleanupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenSQLite(t)
	store := cache.NewStore(nil)
	events := &recordingPublisher{}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tx := repository.NewTransactor(db)

	tags := NewTagService(repository.NewTagRepository(db), postRepo, store)
	authSvc := NewAuthService(userRepo, auth.NewTokenManager("test-secret-with-enough-length-123456", "zenith", "zenith-api", time.Hour), nil)
	authSvc.bcryptCost = bcrypt.MinCost
	users := NewUserService(tx, userRepo, postRepo, commentRepo, store)
	users.bcryptCost = bcrypt.MinCost

	return &testEnv{
		db:         db,
		events:     events,
		auth:       authSvc,
		users:      users,
		categories: NewCategoryService(repository.NewCategoryRepository(db), postRepo, store),
		tags:       tags,
		comments:   NewCommentService(commentRepo, postRepo, events),
		cleanup:    NewCleanupService(tx, postRepo, commentRepo, store, 30*24*time.Hour),
		posts: NewPostService(PostServiceDeps{
			Tx:         tx,
			Posts:      postRepo,
			Comments:   commentRepo,
			Categories: repository.NewCategoryRepository(db),
			Users:      userRepo,
			Tags:       tags,
			Cache:      store,
			Events:     events,
		}),
	}
}

func identity(u *models.User) *access.Identity {
	return &access.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func defaultPage(t *testing.T, fields SortFields) models.PageRequest {
	t.Helper()
	page, err := ResolvePage(PageInput{}, fields)
	require.NoError(t, err)
	return page
}
