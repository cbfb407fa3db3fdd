package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"zenith/internal/access"
	"zenith/internal/cache"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/notifications"
	"zenith/internal/repository"
)

const (
	maxTitleLength   = 255
	maxContentLength = 100000
)

type PostService struct {
	tx           repository.Transactor
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	tags         *TagService
	cache        *cache.Store
	events       notifications.Publisher
	now          func() time.Time
}

type CreatePostInput struct {
	Title      string
	Content    string
	CategoryID uint
	TagIDs     []uint
	TagNames   []string
	Status     models.PostStatus
}

// UpdatePostInput is a partial update; nil fields and blank strings are left unchanged.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	CategoryID *uint
	TagIDs     *[]uint
	TagNames   *[]string
}

type PostServiceDeps struct {
	Tx         repository.Transactor
	Posts      repository.PostRepository
	Comments   repository.CommentRepository
	Categories repository.CategoryRepository
	Users      repository.UserRepository
	Tags       *TagService
	Cache      *cache.Store
	Events     notifications.Publisher
}

func NewPostService(deps PostServiceDeps) *PostService {
	return &PostService{
		tx:           deps.Tx,
		postRepo:     deps.Posts,
		commentRepo:  deps.Comments,
		categoryRepo: deps.Categories,
		userRepo:     deps.Users,
		tags:         deps.Tags,
		cache:        deps.Cache,
		events:       deps.Events,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", models.NewValidationError("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", models.NewValidationError("title must not exceed 255 characters")
	}
	return title, nil
}

func validatePostContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", models.NewValidationError("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return "", models.NewValidationError("content must not exceed 100000 characters")
	}
	return content, nil
}

func (s *PostService) Create(ctx context.Context, actor *access.Identity, in CreatePostInput) (*models.Post, error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return nil, err
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validatePostContent(in.Content)
	if err != nil {
		return nil, err
	}
	if in.CategoryID == 0 {
		return nil, models.NewValidationError("categoryId is required")
	}

	status := models.PostStatusDraft
	if strings.TrimSpace(string(in.Status)) != "" {
		parsed, ok := models.ParsePostStatus(string(in.Status))
		if !ok {
			return nil, models.NewValidationError("invalid post status: " + string(in.Status))
		}
		status = parsed
	}
	if status != models.PostStatusDraft && !actor.IsModerator() {
		return nil, models.NewForbiddenError("only moderators can create posts with status " + string(status))
	}

	var created *models.Post
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
			return err
		}
		tagIDs, err := s.resolveTags(ctx, in.TagIDs, in.TagNames)
		if err != nil {
			return err
		}
		slug, err := uniqueSlug(ctx, title, func(ctx context.Context, candidate string) (bool, error) {
			return s.postRepo.SlugExists(ctx, candidate, 0)
		})
		if err != nil {
			return err
		}

		post := &models.Post{
			Title:       title,
			Slug:        slug,
			Content:     content,
			Excerpt:     Excerpt(content),
			ReadingTime: ReadingTime(content),
			Status:      status,
			AuthorID:    actor.UserID,
			CategoryID:  in.CategoryID,
		}
		if status == models.PostStatusPublished {
			now := s.now()
			post.PublishedAt = &now
		}
		if err := s.postRepo.Create(ctx, post); err != nil {
			return err
		}
		if err := s.postRepo.ReplaceTags(ctx, post.ID, tagIDs); err != nil {
			return err
		}
		created, err = s.postRepo.GetByID(ctx, post.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateTaxonomy(ctx)
	middleware.Logger.InfoContext(ctx, "post created", slog.Uint64("post_id", uint64(created.ID)), slog.String("status", string(created.Status)))
	return created, nil
}

// resolveTags merges explicit tag ids (which must exist) with tags resolved
// by name.
func (s *PostService) resolveTags(ctx context.Context, ids []uint, names []string) ([]uint, error) {
	byID, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byName, err := s.tags.ResolveByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([]uint, 0, len(byID)+len(byName))
	seen := make(map[uint]struct{}, cap(out))
	for _, t := range append(byID, byName...) {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t.ID)
	}
	return out, nil
}

func (s *PostService) Get(ctx context.Context, actor *access.Identity, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewPost(actor, post).Err(); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetBySlug(ctx context.Context, actor *access.Identity, slug string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if err := access.CanViewPost(actor, post).Err(); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, actor *access.Identity, id uint, in UpdatePostInput) (*models.Post, error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return nil, err
	}

	var updated *models.Post
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		post, err := s.postRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := access.CanModify(actor, post.AuthorID).Err(); err != nil {
			return err
		}

		if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
			title, err := validateTitle(*in.Title)
			if err != nil {
				return err
			}
			if title != post.Title {
				post.Title = title
				post.Slug, err = uniqueSlug(ctx, title, func(ctx context.Context, candidate string) (bool, error) {
					return s.postRepo.SlugExists(ctx, candidate, post.ID)
				})
				if err != nil {
					return err
				}
			}
		}
		if in.Content != nil && strings.TrimSpace(*in.Content) != "" {
			content, err := validatePostContent(*in.Content)
			if err != nil {
				return err
			}
			post.Content = content
			post.Excerpt = Excerpt(content)
			post.ReadingTime = ReadingTime(content)
		}
		if in.CategoryID != nil && *in.CategoryID != 0 && *in.CategoryID != post.CategoryID {
			if _, err := s.categoryRepo.GetByID(ctx, *in.CategoryID); err != nil {
				return err
			}
			post.CategoryID = *in.CategoryID
		}

		if err := s.postRepo.Update(ctx, post); err != nil {
			return err
		}

		if in.TagIDs != nil || in.TagNames != nil {
			var ids []uint
			var names []string
			if in.TagIDs != nil {
				ids = *in.TagIDs
			}
			if in.TagNames != nil {
				names = *in.TagNames
			}
			tagIDs, err := s.resolveTags(ctx, ids, names)
			if err != nil {
				return err
			}
			if err := s.postRepo.ReplaceTags(ctx, post.ID, tagIDs); err != nil {
				return err
			}
		}

		updated, err = s.postRepo.GetByID(ctx, post.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateTaxonomy(ctx)
	return updated, nil
}

// Delete removes the post with its comments and tag links.
func (s *PostService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return err
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		post, err := s.postRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := access.CanModify(actor, post.AuthorID).Err(); err != nil {
			return err
		}
		if _, err := s.commentRepo.DeleteByPostIDs(ctx, []uint{id}); err != nil {
			return err
		}
		if err := s.postRepo.DeleteTagLinks(ctx, []uint{id}); err != nil {
			return err
		}
		return s.postRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.cache.InvalidateTaxonomy(ctx)
	middleware.Logger.InfoContext(ctx, "post deleted", slog.Uint64("post_id", uint64(id)))
	return nil
}

// ListPublished is the public listing; status and author filters are forced.
func (s *PostService) ListPublished(ctx context.Context, filter models.PostFilter, page models.PageRequest) (models.Page[models.Post], error) {
	filter.Status = models.PostStatusPublished
	filter.AuthorID = 0
	filter.Tag = strings.TrimSpace(filter.Tag)
	filter.Query = strings.TrimSpace(filter.Query)
	return s.list(ctx, filter, page)
}

// ListMine lists the caller's own posts of any status.
func (s *PostService) ListMine(ctx context.Context, actor *access.Identity, status models.PostStatus, page models.PageRequest) (models.Page[models.Post], error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return models.Page[models.Post]{}, err
	}
	return s.list(ctx, models.PostFilter{AuthorID: actor.UserID, Status: status}, page)
}

// ListByAuthor lists the published posts of a user.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) (models.Page[models.Post], error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return models.Page[models.Post]{}, err
	}
	return s.list(ctx, models.PostFilter{AuthorID: authorID, Status: models.PostStatusPublished}, page)
}

// ListByStatus is the moderation listing; an empty status lists everything.
func (s *PostService) ListByStatus(ctx context.Context, actor *access.Identity, status models.PostStatus, page models.PageRequest) (models.Page[models.Post], error) {
	if err := access.CanModerate(actor).Err(); err != nil {
		return models.Page[models.Post]{}, err
	}
	return s.list(ctx, models.PostFilter{Status: status}, page)
}

func (s *PostService) list(ctx context.Context, filter models.PostFilter, page models.PageRequest) (models.Page[models.Post], error) {
	posts, total, err := s.postRepo.List(ctx, filter, page)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.NewPage(posts, page, total), nil
}

// UpdateStatus sets any status; publishedAt is stamped the first time a post
// is published and kept afterwards.
func (s *PostService) UpdateStatus(ctx context.Context, actor *access.Identity, id uint, status models.PostStatus) (*models.Post, error) {
	if err := access.CanModerate(actor).Err(); err != nil {
		return nil, err
	}
	status, ok := models.ParsePostStatus(string(status))
	if !ok {
		return nil, models.NewValidationError("invalid post status")
	}

	var (
		updated  *models.Post
		previous models.PostStatus
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		post, err := s.postRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = post.Status

		publishedAt := post.PublishedAt
		if status == models.PostStatusPublished && publishedAt == nil {
			now := s.now()
			publishedAt = &now
		}
		if err := s.postRepo.UpdateStatus(ctx, id, status, publishedAt); err != nil {
			return err
		}
		updated, err = s.postRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateTaxonomy(ctx)
	middleware.Logger.InfoContext(ctx, "post status changed",
		slog.Uint64("post_id", uint64(id)), slog.String("from", string(previous)), slog.String("to", string(status)))
	s.publish(ctx, notifications.Event{
		Type: notifications.EventPostStatusChanged,
		Payload: map[string]any{
			"postId":    id,
			"title":     updated.Title,
			"from":      previous,
			"to":        status,
			"changedBy": actor.Username,
		},
	})
	return updated, nil
}

func (s *PostService) Publish(ctx context.Context, actor *access.Identity, id uint) (*models.Post, error) {
	return s.UpdateStatus(ctx, actor, id, models.PostStatusPublished)
}

func (s *PostService) Archive(ctx context.Context, actor *access.Identity, id uint) (*models.Post, error) {
	return s.UpdateStatus(ctx, actor, id, models.PostStatusArchived)
}

func (s *PostService) publish(ctx context.Context, event notifications.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish moderation event",
			slog.String("type", event.Type), slog.String("error", err.Error()))
	}
}
