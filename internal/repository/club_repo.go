package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KilloQ/StudentsClubs/internal/model"
)

// ClubRepository club data access
type ClubRepository interface {
	Create(ctx context.Context, club *model.Club) error
	GetByID(ctx context.Context, id uint) (*model.Club, error)
	// GetByIDForUpdate locks the club row (SELECT ... FOR UPDATE). It serializes every
	// capacity-sensitive write on one club and must run inside Repository.Transaction.
	GetByIDForUpdate(ctx context.Context, id uint) (*model.Club, error)
	List(ctx context.Context, category string) ([]model.Club, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Club, error)
	ListByIDs(ctx context.Context, ids []uint) ([]model.Club, error)
	Update(ctx context.Context, club *model.Club) error
}

type clubRepo struct {
	db *gorm.DB
}

// NewClubRepo creates a ClubRepository.
func NewClubRepo(db *gorm.DB) ClubRepository {
	return &clubRepo{db: db}
}

func (r *clubRepo) Create(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(club).Error
}

func (r *clubRepo) GetByID(ctx context.Context, id uint) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Schedules", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

// List returns clubs in creation order; an empty category disables the filter.
func (r *clubRepo) List(ctx context.Context, category string) ([]model.Club, error) {
	var clubs []model.Club
	db := r.db.WithContext(ctx).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })

	if category != "" {
		db = db.Where("category = ?", category)
	}

	err := db.Order("id ASC").Find(&clubs).Error
	return clubs, err
}

func (r *clubRepo) ListByOwner(ctx context.Context, ownerID uint) ([]model.Club, error) {
	var clubs []model.Club
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&clubs).Error
	return clubs, err
}

func (r *clubRepo) ListByIDs(ctx context.Context, ids []uint) ([]model.Club, error) {
	var clubs []model.Club
	if len(ids) == 0 {
		return clubs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Schedules", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&clubs).Error
	return clubs, err
}

// Update writes the mutable settings only.
func (r *clubRepo) Update(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).
		Model(&model.Club{}).
		Where("id = ?", club.ID).
		Updates(map[string]interface{}{
			"title":            club.Title,
			"description":      club.Description,
			"max_students":     club.MaxStudents,
			"recruitment_open": club.RecruitmentOpen,
			"updated_at":       gorm.Expr("NOW()"),
		}).Error
}
