package infrastructure

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"jobboard/domain"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return errors.Mark(errors.Newf("a user with email %s already exists", u.Email), domain.ErrConflict)
		}
		return errors.Wrap(err, "create user")
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	var u domain.User
	err := r.DB.WithContext(ctx).Where("token_hash = ?", hash).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(domain.ErrNotFound, "user by token")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user by token")
	}
	return &u, nil
}
