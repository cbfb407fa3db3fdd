package service

import (
	"context"
	"strings"

	"zenith/internal/access"
	"zenith/internal/cache"
	"zenith/internal/models"
	"zenith/internal/repository"
	"zenith/internal/validation"
)

// postCounter is the slice of PostRepository the taxonomy services need.
type postCounter interface {
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	CountByTag(ctx context.Context, tagID uint) (int64, error)
}

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	posts        postCounter
	cache        *cache.Store
}

type CategoryInput struct {
	Name        string
	Description string
}

func NewCategoryService(categoryRepo repository.CategoryRepository, posts postCounter, store *cache.Store) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, posts: posts, cache: store}
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := s.cache.Aside(ctx, "category", cache.CategoryKey(id), &category, cache.TaxonomyTTL, func() error {
		found, err := s.categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		category = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) List(ctx context.Context, page models.PageRequest) (models.Page[models.Category], error) {
	var out models.Page[models.Category]
	key := cache.ListKey(cache.CategoryListPrefix, page.Page, page.Size, page.Sort.Clause())
	err := s.cache.Aside(ctx, "categories", key, &out, cache.ListTTL, func() error {
		items, total, err := s.categoryRepo.List(ctx, page)
		if err != nil {
			return err
		}
		out = models.NewPage(items, page, total)
		return nil
	})
	return out, err
}

func (s *CategoryService) Create(ctx context.Context, actor *access.Identity, in CategoryInput) (*models.Category, error) {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return nil, err
	}
	name, err := validation.NormalizeName("category", in.Name)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.ensureUnique(ctx, name, 0); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Description: strings.TrimSpace(in.Description)}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.cache.InvalidateTaxonomy(ctx)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, actor *access.Identity, id uint, in CategoryInput) (*models.Category, error) {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return nil, err
	}
	name, err := validation.NormalizeName("category", in.Name)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, name, id); err != nil {
		return nil, err
	}

	category.Name = name
	category.Description = strings.TrimSpace(in.Description)
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	s.cache.InvalidateTaxonomy(ctx)
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return err
	}
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.posts.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return models.NewHasDependentsError("Category", id, n)
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateTaxonomy(ctx)
	return nil
}

func (s *CategoryService) ensureUnique(ctx context.Context, name string, excludeID uint) error {
	taken, err := s.categoryRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewDuplicateError("Category", "name", name)
	}
	return nil
}

type TagService struct {
	tagRepo repository.TagRepository
	posts   postCounter
	cache   *cache.Store
}

func NewTagService(tagRepo repository.TagRepository, posts postCounter, store *cache.Store) *TagService {
	return &TagService{tagRepo: tagRepo, posts: posts, cache: store}
}

func (s *TagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.cache.Aside(ctx, "tag", cache.TagKey(id), &tag, cache.TaxonomyTTL, func() error {
		found, err := s.tagRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		tag = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) List(ctx context.Context, page models.PageRequest) (models.Page[models.Tag], error) {
	var out models.Page[models.Tag]
	key := cache.ListKey(cache.TagListPrefix, page.Page, page.Size, page.Sort.Clause())
	err := s.cache.Aside(ctx, "tags", key, &out, cache.ListTTL, func() error {
		items, total, err := s.tagRepo.List(ctx, page)
		if err != nil {
			return err
		}
		out = models.NewPage(items, page, total)
		return nil
	})
	return out, err
}

func (s *TagService) Create(ctx context.Context, actor *access.Identity, rawName string) (*models.Tag, error) {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return nil, err
	}
	name, err := validation.NormalizeName("tag", rawName)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.ensureUnique(ctx, name, 0); err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: name}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	s.cache.InvalidateTaxonomy(ctx)
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, actor *access.Identity, id uint, rawName string) (*models.Tag, error) {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return nil, err
	}
	name, err := validation.NormalizeName("tag", rawName)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, name, id); err != nil {
		return nil, err
	}
	tag.Name = name
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	s.cache.InvalidateTaxonomy(ctx)
	return tag, nil
}

func (s *TagService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return err
	}
	if _, err := s.tagRepo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.posts.CountByTag(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return models.NewHasDependentsError("Tag", id, n)
	}
	if err := s.tagRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateTaxonomy(ctx)
	return nil
}

func (s *TagService) ensureUnique(ctx context.Context, name string, excludeID uint) error {
	taken, err := s.tagRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewDuplicateError("Tag", "name", name)
	}
	return nil
}

// FindByIDs returns the tags for ids, failing with NOT_FOUND on the first
// id that does not exist.
func (s *TagService) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tags, err := s.tagRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]struct{}, len(tags))
	for _, t := range tags {
		found[t.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, models.NewNotFoundError("Tag", id)
		}
	}
	return tags, nil
}

// ResolveByNames trims and de-duplicates names case-insensitively, reuses
// existing tags and creates the rest.
func (s *TagService) ResolveByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	var wanted []string
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name, err := validation.NormalizeName("tag", raw)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		wanted = append(wanted, name)
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	existing, err := s.tagRepo.FindByNames(ctx, wanted)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		have[strings.ToLower(t.Name)] = struct{}{}
	}

	var missing []models.Tag
	for _, name := range wanted {
		if _, ok := have[strings.ToLower(name)]; !ok {
			missing = append(missing, models.Tag{Name: name})
		}
	}
	if err := s.tagRepo.CreateBatch(ctx, missing); err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.cache.InvalidateTaxonomy(ctx)
	}
	return append(existing, missing...), nil
}
