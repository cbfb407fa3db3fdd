package service

import (
	"context"
	"log/slog"
	"time"

	"zenith/internal/cache"
	"zenith/internal/middleware"
	"zenith/internal/observability"
	"zenith/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// CleanupResult reports what one cleanup run removed.
type CleanupResult struct {
	CommentsDeleted int64     `json:"commentsDeleted"`
	PostsDeleted    int64     `json:"postsDeleted"`
	Cutoff          time.Time `json:"cutoff"`
}

// CleanupService purges ARCHIVED content older than the retention window.
type CleanupService struct {
	tx          repository.Transactor
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	cache       *cache.Store
	retention   time.Duration
	now         func() time.Time
}

func NewCleanupService(
	tx repository.Transactor,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	store *cache.Store,
	retention time.Duration,
) *CleanupService {
	return &CleanupService{
		tx:          tx,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		cache:       store,
		retention:   retention,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run deletes archived comments, then archived posts with whatever comments
// and tag links they still hold. Each step commits on its own; a failure is
// logged and returned with the counts reached so far.
func (s *CleanupService) Run(ctx context.Context) (result CleanupResult, err error) {
	ctx, span := observability.StartSpan(ctx, "cleanup.run")
	defer func() { observability.EndSpan(span, err) }()

	result.Cutoff = s.now().Add(-s.retention)
	logger := middleware.Logger.With(slog.Time("cutoff", result.Cutoff))

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.commentRepo.DeleteArchivedBefore(ctx, result.Cutoff)
		result.CommentsDeleted = n
		return err
	})
	if err != nil {
		observability.CleanupRuns.WithLabelValues("failure").Inc()
		logger.ErrorContext(ctx, "cleanup of archived comments failed", slog.String("error", err.Error()))
		return result, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ids, err := s.postRepo.ArchivedIDsBefore(ctx, result.Cutoff)
		if err != nil || len(ids) == 0 {
			return err
		}
		orphans, err := s.commentRepo.DeleteByPostIDs(ctx, ids)
		if err != nil {
			return err
		}
		if err := s.postRepo.DeleteTagLinks(ctx, ids); err != nil {
			return err
		}
		n, err := s.postRepo.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		result.CommentsDeleted += orphans
		result.PostsDeleted = n
		return nil
	})
	if err != nil {
		observability.CleanupRuns.WithLabelValues("failure").Inc()
		observability.CleanupDeleted.WithLabelValues("comment").Add(float64(result.CommentsDeleted))
		logger.ErrorContext(ctx, "cleanup of archived posts failed",
			slog.Int64("comments_deleted", result.CommentsDeleted), slog.String("error", err.Error()))
		return result, err
	}

	observability.CleanupRuns.WithLabelValues("success").Inc()
	observability.CleanupDeleted.WithLabelValues("comment").Add(float64(result.CommentsDeleted))
	observability.CleanupDeleted.WithLabelValues("post").Add(float64(result.PostsDeleted))
	span.SetAttributes(
		attribute.Int64("cleanup.comments_deleted", result.CommentsDeleted),
		attribute.Int64("cleanup.posts_deleted", result.PostsDeleted),
	)
	if result.PostsDeleted > 0 || result.CommentsDeleted > 0 {
		s.cache.InvalidateTaxonomy(ctx)
	}
	logger.InfoContext(ctx, "cleanup finished",
		slog.Int64("comments_deleted", result.CommentsDeleted), slog.Int64("posts_deleted", result.PostsDeleted))
	return result, nil
}

// Retention returns the configured retention window.
func (s *CleanupService) Retention() time.Duration {
	return s.retention
}
