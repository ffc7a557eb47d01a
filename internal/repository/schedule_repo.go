package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/model"
)

// ScheduleRepository schedule slot data access
type ScheduleRepository interface {
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	GetByID(ctx context.Context, id uint) (*model.ScheduleSlot, error)
	Delete(ctx context.Context, id uint) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo creates a ScheduleRepository.
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id uint) (*model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Delete hard-deletes: slots carry no history.
func (r *scheduleRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ScheduleSlot{}).Error
}
