package service

import (
	"context"
	"log/slog"
	"strings"

	"zenith/internal/access"
	"zenith/internal/cache"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/repository"
	"zenith/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	tx          repository.Transactor
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	cache       *cache.Store
	bcryptCost  int
}

// UpdateProfileInput is a partial profile update; nil fields are left unchanged.
type UpdateProfileInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

func NewUserService(
	tx repository.Transactor,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	store *cache.Store,
) *UserService {
	return &UserService{
		tx:          tx,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		cache:       store,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

func (s *UserService) Me(ctx context.Context, actor *access.Identity) (*models.User, error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, actor.UserID)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, actor *access.Identity, page models.PageRequest) (models.Page[models.User], error) {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return models.Page[models.User]{}, err
	}
	users, total, err := s.userRepo.List(ctx, page)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, page, total), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *access.Identity, in UpdateProfileInput) (*models.User, error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return nil, err
	}
	if in.Email != nil {
		trimmed := strings.TrimSpace(*in.Email)
		in.Email = &trimmed
	}
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && *in.Email != "" && !strings.EqualFold(*in.Email, user.Email) {
		taken, err := s.userRepo.ExistsByEmail(ctx, *in.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewDuplicateError("User", "email", *in.Email)
		}
		user.Email = *in.Email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor *access.Identity, current, next string) error {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return models.NewUnauthorizedError("current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, string(hashed))
}

// UpdateRole lets an admin change another user's role.
func (s *UserService) UpdateRole(ctx context.Context, actor *access.Identity, id uint, role models.Role) (*models.User, error) {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return nil, err
	}
	parsed, ok := models.ParseRole(string(role))
	if !ok {
		return nil, models.NewValidationError("invalid role: " + string(role))
	}
	if actor.UserID == id {
		return nil, models.NewForbiddenError("admins cannot change their own role")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, id, parsed); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user role changed",
		slog.Uint64("target_user_id", uint64(id)), slog.String("from", string(user.Role)), slog.String("to", string(parsed)))
	user.Role = parsed
	return user, nil
}

// Delete removes a user together with everything they authored and every
// comment left on their posts.
func (s *UserService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if err := access.CanAdminister(actor).Err(); err != nil {
		return err
	}
	if actor.UserID == id {
		return models.NewForbiddenError("admins cannot delete themselves")
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			return err
		}
		postIDs, err := s.postRepo.IDsByAuthor(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.commentRepo.DeleteByAuthor(ctx, id); err != nil {
			return err
		}
		if _, err := s.commentRepo.DeleteByPostIDs(ctx, postIDs); err != nil {
			return err
		}
		if err := s.postRepo.DeleteTagLinks(ctx, postIDs); err != nil {
			return err
		}
		if _, err := s.postRepo.DeleteByIDs(ctx, postIDs); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.cache.InvalidateTaxonomy(ctx)
	middleware.Logger.InfoContext(ctx, "user deleted", slog.Uint64("target_user_id", uint64(id)))
	return nil
}
