package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository.
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Club       ClubRepository
	Schedule   ScheduleRepository
	Membership MembershipRepository
	Attendance AttendanceRepository
}

// NewRepository builds the aggregate on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Club:       NewClubRepo(db),
		Schedule:   NewScheduleRepo(db),
		Membership: NewMembershipRepo(db),
		Attendance: NewAttendanceRepo(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
// fn's error rolls the transaction back. A Repository assembled without a database
// (unit tests) runs fn against itself.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
