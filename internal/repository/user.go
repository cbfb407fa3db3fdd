package repository

import (
	"context"

	"zenith/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page models.PageRequest) ([]models.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := reader(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundError("User", id))
	}
	return &user, nil
}

// GetByUsername matches case-insensitively; returns (nil, nil) when absent.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(username) = LOWER(?)", username)
}

// GetByEmail matches case-insensitively; returns (nil, nil) when absent.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var users []models.User
	if err := reader(ctx, r.db).Where(where, arg).Limit(1).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	return r.exists(ctx, "LOWER(username) = LOWER(?)", username, excludeID)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.exists(ctx, "LOWER(email) = LOWER(?)", email, excludeID)
}

func (r *userRepository) exists(ctx context.Context, where string, arg any, excludeID uint) (bool, error) {
	var count int64
	q := reader(ctx, r.db).Model(&models.User{}).Where(where, arg)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := writer(ctx, r.db).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateError("User", "username or email", user.Username)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the editable profile fields.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := writer(ctx, r.db).Model(user).
		Select("email", "first_name", "last_name", "bio", "updated_at").
		Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateError("User", "email", user.Email)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password", hash)
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := writer(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := writer(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, page models.PageRequest) ([]models.User, int64, error) {
	var total int64
	if err := reader(ctx, r.db).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.User
	if err := paginate(reader(ctx, r.db), page).Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}
