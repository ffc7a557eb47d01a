package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/model"
)

// MembershipRepository enrollment data access
type MembershipRepository interface {
	Create(ctx context.Context, m *model.Membership) error
	Get(ctx context.Context, clubID, studentID uint) (*model.Membership, error)
	// Delete returns gorm.ErrRecordNotFound when no row matched.
	Delete(ctx context.Context, clubID, studentID uint) error
	CountByClub(ctx context.Context, clubID uint) (int, error)
	CountByClubs(ctx context.Context, clubIDs []uint) (map[uint]int, error)
	// ListByClub returns members with Student preloaded, ordered by name.
	ListByClub(ctx context.Context, clubID uint) ([]model.Membership, error)
	ListByStudent(ctx context.Context, studentID uint) ([]model.Membership, error)
}

type membershipRepo struct {
	db *gorm.DB
}

// NewMembershipRepo creates a MembershipRepository.
func NewMembershipRepo(db *gorm.DB) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) Create(ctx context.Context, m *model.Membership) error {
	return r.db.WithContext(ctx).Omit("Student", "Club").Create(m).Error
}

func (r *membershipRepo) Get(ctx context.Context, clubID, studentID uint) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("club_id = ? AND student_id = ?", clubID, studentID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepo) Delete(ctx context.Context, clubID, studentID uint) error {
	res := r.db.WithContext(ctx).
		Where("club_id = ? AND student_id = ?", clubID, studentID).
		Delete(&model.Membership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *membershipRepo) CountByClub(ctx context.Context, clubID uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("club_id = ?", clubID).
		Count(&n).Error
	return int(n), err
}

func (r *membershipRepo) CountByClubs(ctx context.Context, clubIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int, len(clubIDs))
	if len(clubIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ClubID uint
		N      int
	}
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Select("club_id, COUNT(*) AS n").
		Where("club_id IN ?", clubIDs).
		Group("club_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ClubID] = row.N
	}
	return result, nil
}

func (r *membershipRepo) ListByClub(ctx context.Context, clubID uint) ([]model.Membership, error) {
	var list []model.Membership
	err := r.db.WithContext(ctx).
		Joins("Student").
		Where("club_memberships.club_id = ?", clubID).
		Order(`"Student".full_name ASC, club_memberships.student_id ASC`).
		Find(&list).Error
	return list, err
}

func (r *membershipRepo) ListByStudent(ctx context.Context, studentID uint) ([]model.Membership, error) {
	var list []model.Membership
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("club_id ASC").
		Find(&list).Error
	return list, err
}
