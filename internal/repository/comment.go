package repository

import (
	"context"
	"time"

	"zenith/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	UpdateStatus(ctx context.Context, id uint, status models.CommentStatus) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter models.CommentFilter, page models.PageRequest) ([]models.Comment, int64, error)
	DeleteByPostIDs(ctx context.Context, postIDs []uint) (int64, error)
	DeleteByAuthor(ctx context.Context, authorID uint) (int64, error)
	DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := writer(ctx, r.db).Omit(clause.Associations).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := reader(ctx, r.db).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Comment", id))
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	return r.update(ctx, id, "content", content)
}

func (r *commentRepository) UpdateStatus(ctx context.Context, id uint, status models.CommentStatus) error {
	return r.update(ctx, id, "status", status)
}

func (r *commentRepository) update(ctx context.Context, id uint, column string, value any) error {
	res := writer(ctx, r.db).Model(&models.Comment{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := writer(ctx, r.db).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) List(ctx context.Context, filter models.CommentFilter, page models.PageRequest) ([]models.Comment, int64, error) {
	db := reader(ctx, r.db)

	var total int64
	if err := applyCommentFilter(db.Model(&models.Comment{}), filter).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []models.Comment
	q := applyCommentFilter(db.Preload("Author"), filter)
	if err := paginate(q, page).Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func applyCommentFilter(q *gorm.DB, f models.CommentFilter) *gorm.DB {
	if f.PostID != 0 {
		q = q.Where("post_id = ?", f.PostID)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

func (r *commentRepository) DeleteByPostIDs(ctx context.Context, postIDs []uint) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return r.deleteWhere(ctx, "post_id IN ?", postIDs)
}

func (r *commentRepository) DeleteByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.deleteWhere(ctx, "author_id = ?", authorID)
}

func (r *commentRepository) DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.deleteWhere(ctx, "status = ? AND created_at < ?", models.CommentStatusArchived, cutoff)
}

func (r *commentRepository) deleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	res := writer(ctx, r.db).Where(query, args...).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
