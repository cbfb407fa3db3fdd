package repository

import (
	"context"
	"strings"

	"zenith/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page models.PageRequest) ([]models.Category, int64, error)
}

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	CreateBatch(ctx context.Context, tags []models.Tag) error
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	FindByNames(ctx context.Context, names []string) ([]models.Tag, error)
	ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page models.PageRequest) ([]models.Tag, int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := writer(ctx, r.db).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateError("Category", "name", category.Name)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	db := reader(ctx, r.db)
	var category models.Category
	if err := db.First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Category", id))
	}
	counts, err := postCounts(db, "category_id", []uint{id})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	category.PostCount = counts[id]
	return &category, nil
}

func (r *categoryRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	return nameExists(reader(ctx, r.db).Model(&models.Category{}), name, excludeID)
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := writer(ctx, r.db).Model(category).Select("name", "description", "updated_at").Updates(category)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewDuplicateError("Category", "name", category.Name)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", category.ID)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	res := writer(ctx, r.db).Delete(&models.Category{}, id)
	if res.Error != nil {
		if isForeignKeyError(res.Error) {
			// a post started referencing the row after the dependents check
			return models.NewHasDependentsError("Category", id, 0)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", id)
	}
	return nil
}

func (r *categoryRepository) List(ctx context.Context, page models.PageRequest) ([]models.Category, int64, error) {
	db := reader(ctx, r.db)

	var total int64
	if err := db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var categories []models.Category
	if err := paginate(db, page).Find(&categories).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	ids := make([]uint, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}
	counts, err := postCounts(db, "category_id", ids)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for i := range categories {
		categories[i].PostCount = counts[categories[i].ID]
	}
	return categories, total, nil
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := writer(ctx, r.db).Create(tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateError("Tag", "name", tag.Name)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tagRepository) CreateBatch(ctx context.Context, tags []models.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	if err := writer(ctx, r.db).Create(&tags).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateError("Tag", "name", tags[0].Name)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	db := reader(ctx, r.db)
	var tag models.Tag
	if err := db.First(&tag, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("Tag", id))
	}
	counts, err := tagPostCounts(db, []uint{id})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	tag.PostCount = counts[id]
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := reader(ctx, r.db).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// FindByNames matches names case-insensitively.
func (r *tagRepository) FindByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	if len(names) == 0 {
		return tags, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	if err := reader(ctx, r.db).Where("LOWER(name) IN ?", lowered).Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

func (r *tagRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	return nameExists(reader(ctx, r.db).Model(&models.Tag{}), name, excludeID)
}

func (r *tagRepository) Update(ctx context.Context, tag *models.Tag) error {
	res := writer(ctx, r.db).Model(tag).Select("name", "updated_at").Updates(tag)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewDuplicateError("Tag", "name", tag.Name)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Tag", tag.ID)
	}
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	res := writer(ctx, r.db).Delete(&models.Tag{}, id)
	if res.Error != nil {
		if isForeignKeyError(res.Error) {
			// a post started referencing the row after the dependents check
			return models.NewHasDependentsError("Tag", id, 0)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Tag", id)
	}
	return nil
}

func (r *tagRepository) List(ctx context.Context, page models.PageRequest) ([]models.Tag, int64, error) {
	db := reader(ctx, r.db)

	var total int64
	if err := db.Model(&models.Tag{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var tags []models.Tag
	if err := paginate(db, page).Find(&tags).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	ids := make([]uint, len(tags))
	for i := range tags {
		ids[i] = tags[i].ID
	}
	counts, err := tagPostCounts(db, ids)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for i := range tags {
		tags[i].PostCount = counts[tags[i].ID]
	}
	return tags, total, nil
}

func nameExists(q *gorm.DB, name string, excludeID uint) (bool, error) {
	q = q.Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

type countRow struct {
	RefID uint
	Total int64
}

// postCounts counts posts of any status grouped by a foreign key column.
func postCounts(db *gorm.DB, column string, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := db.Session(&gorm.Session{NewDB: true}).Model(&models.Post{}).
		Select(column+" AS ref_id, COUNT(*) AS total").
		Where(column+" IN ?", ids)
	var rows []countRow
	if err := q.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RefID] = row.Total
	}
	return out, nil
}

// tagPostCounts counts PUBLISHED posts per tag.
func tagPostCounts(db *gorm.DB, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []countRow
	err := db.Session(&gorm.Session{NewDB: true}).
		Table("post_tags").
		Select("post_tags.tag_id AS ref_id, COUNT(*) AS total").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("post_tags.tag_id IN ? AND posts.status = ?", ids, models.PostStatusPublished).
		Group("post_tags.tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RefID] = row.Total
	}
	return out, nil
}
