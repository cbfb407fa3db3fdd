package repository

import (
	"context"
	"strings"
	"time"

	"zenith/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines persistence operations for posts and their tag links.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id uint, status models.PostStatus, publishedAt *time.Time) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter models.PostFilter, page models.PageRequest) ([]models.Post, int64, error)
	ReplaceTags(ctx context.Context, postID uint, tagIDs []uint) error
	DeleteTagLinks(ctx context.Context, postIDs []uint) error
	IDsByAuthor(ctx context.Context, authorID uint) ([]uint, error)
	ArchivedIDsBefore(ctx context.Context, cutoff time.Time) ([]uint, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	CountByTag(ctx context.Context, tagID uint) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := writer(ctx, r.db).Omit(clause.Associations).Create(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateError("Post", "slug", post.Slug)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	db := reader(ctx, r.db)
	var post models.Post
	if err := db.Preload("Author").Preload("Category").First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Post", id))
	}
	if err := loadTags(db, []*models.Post{&post}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	db := reader(ctx, r.db)
	var post models.Post
	err := db.Preload("Author").Preload("Category").Where("slug = ?", slug).First(&post).Error
	if err != nil {
		return nil, notFoundOr(err, models.NewNotFoundByError("Post", "slug", slug))
	}
	if err := loadTags(db, []*models.Post{&post}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := reader(ctx, r.db).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Update writes the editable columns; tag links are handled by ReplaceTags.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := writer(ctx, r.db).Model(post).Omit(clause.Associations).
		Select("title", "slug", "content", "excerpt", "reading_time_minutes", "status", "category_id", "published_at", "updated_at").
		Updates(post)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewDuplicateError("Post", "slug", post.Slug)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, id uint, status models.PostStatus, publishedAt *time.Time) error {
	res := writer(ctx, r.db).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "published_at": publishedAt})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := writer(ctx, r.db).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, filter models.PostFilter, page models.PageRequest) ([]models.Post, int64, error) {
	db := reader(ctx, r.db)

	var total int64
	if err := applyPostFilter(db.Model(&models.Post{}), filter).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	q := applyPostFilter(db.Preload("Author").Preload("Category"), filter)
	if err := paginate(q, page).Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	refs := make([]*models.Post, len(posts))
	for i := range posts {
		refs[i] = &posts[i]
	}
	if err := loadTags(db, refs); err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// likeEscaper makes user search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyPostFilter(q *gorm.DB, f models.PostFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Tag != "" {
		q = q.Where("id IN (?)", q.Session(&gorm.Session{NewDB: true}).
			Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("LOWER(tags.name) = LOWER(?)", f.Tag))
	}
	if f.Query != "" {
		like := "%" + likeEscaper.Replace(f.Query) + "%"
		q = q.Where(`(LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(content) LIKE LOWER(?) ESCAPE '\')`, like, like)
	}
	return q
}

type postTagRow struct {
	PostID    uint
	ID        uint
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// loadTags fills Tags on every post with a single query.
func loadTags(db *gorm.DB, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		p.Tags = []models.Tag{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var rows []postTagRow
	err := db.Session(&gorm.Session{NewDB: true}).
		Table("post_tags").
		Select("post_tags.post_id, tags.id, tags.name, tags.created_at, tags.updated_at").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id IN ?", ids).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		if p, ok := byID[row.PostID]; ok {
			p.Tags = append(p.Tags, models.Tag{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt})
		}
	}
	return nil
}

func (r *postRepository) ReplaceTags(ctx context.Context, postID uint, tagIDs []uint) error {
	db := writer(ctx, r.db)
	if err := db.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(tagIDs))
	seen := make(map[uint]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, models.PostTag{PostID: postID, TagID: id})
	}
	if err := db.Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) DeleteTagLinks(ctx context.Context, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := writer(ctx, r.db).Where("post_id IN ?", postIDs).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) IDsByAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	var ids []uint
	if err := reader(ctx, r.db).Model(&models.Post{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) ArchivedIDsBefore(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := reader(ctx, r.db).Model(&models.Post{}).
		Where("status = ? AND created_at < ?", models.PostStatusArchived, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := writer(ctx, r.db).Where("id IN ?", ids).Delete(&models.Post{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *postRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	if err := reader(ctx, r.db).Model(&models.Post{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) CountByTag(ctx context.Context, tagID uint) (int64, error) {
	var count int64
	if err := reader(ctx, r.db).Model(&models.PostTag{}).Where("tag_id = ?", tagID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
