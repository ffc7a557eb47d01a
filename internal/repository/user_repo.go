package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/model"
)

// UserRepository user data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, teachersOnly bool) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepository.
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, teachersOnly bool) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx)
	if teachersOnly {
		db = db.Where("is_teacher = ?", true)
	}
	err := db.Order("id ASC").Find(&users).Error
	return users, err
}
