package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KilloQ/StudentsClubs/internal/model"
)

// SessionCount a held class date and how many students were marked present
type SessionCount struct {
	ClassDate time.Time
	Attended  int
}

// AttendanceRepository attendance ledger data access
type AttendanceRepository interface {
	// Create inserts a record; a repeat (club, student, date) fails with gorm.ErrDuplicatedKey.
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	Exists(ctx context.Context, clubID, studentID uint, date time.Time) (bool, error)
	// EnsureSession registers the class date for the club; repeats are no-ops.
	EnsureSession(ctx context.Context, clubID uint, date time.Time) error
	CountSessions(ctx context.Context, clubID uint) (int, error)
	CountSessionsByClubs(ctx context.Context, clubIDs []uint) (map[uint]int, error)
	// VisitsByClub maps student id -> visits in the club.
	VisitsByClub(ctx context.Context, clubID uint) (map[uint]int, error)
	// VisitsByStudent maps club id -> visits of the student.
	VisitsByStudent(ctx context.Context, studentID uint) (map[uint]int, error)
	ListSessions(ctx context.Context, clubID uint) ([]SessionCount, error)
	ListByClub(ctx context.Context, clubID uint) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo creates an AttendanceRepository.
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *attendanceRepo) Exists(ctx context.Context, clubID, studentID uint, date time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("club_id = ? AND student_id = ? AND class_date = ?", clubID, studentID, date).
		Count(&n).Error
	return n > 0, err
}

func (r *attendanceRepo) EnsureSession(ctx context.Context, clubID uint, date time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "club_id"}, {Name: "class_date"}},
			DoNothing: true,
		}).
		Create(&model.ClubSession{ClubID: clubID, ClassDate: date}).Error
}

func (r *attendanceRepo) CountSessions(ctx context.Context, clubID uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ClubSession{}).
		Where("club_id = ?", clubID).
		Count(&n).Error
	return int(n), err
}

func (r *attendanceRepo) CountSessionsByClubs(ctx context.Context, clubIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int, len(clubIDs))
	if len(clubIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ClubID uint
		N      int
	}
	err := r.db.WithContext(ctx).
		Model(&model.ClubSession{}).
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

func (r *attendanceRepo) VisitsByClub(ctx context.Context, clubID uint) (map[uint]int, error) {
	var rows []struct {
		StudentID uint
		N         int
	}
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Select("student_id, COUNT(*) AS n").
		Where("club_id = ?", clubID).
		Group("student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uint]int, len(rows))
	for _, row := range rows {
		result[row.StudentID] = row.N
	}
	return result, nil
}

func (r *attendanceRepo) VisitsByStudent(ctx context.Context, studentID uint) (map[uint]int, error) {
	var rows []struct {
		ClubID uint
		N      int
	}
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Select("club_id, COUNT(*) AS n").
		Where("student_id = ?", studentID).
		Group("club_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uint]int, len(rows))
	for _, row := range rows {
		result[row.ClubID] = row.N
	}
	return result, nil
}

// ListSessions newest first.
func (r *attendanceRepo) ListSessions(ctx context.Context, clubID uint) ([]SessionCount, error) {
	var rows []SessionCount
	err := r.db.WithContext(ctx).
		Table("club_sessions AS s").
		Select("s.class_date, COUNT(a.id) AS attended").
		Joins("LEFT JOIN attendances a ON a.club_id = s.club_id AND a.class_date = s.class_date").
		Where("s.club_id = ?", clubID).
		Group("s.class_date").
		Order("s.class_date DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *attendanceRepo) ListByClub(ctx context.Context, clubID uint) ([]model.AttendanceRecord, error) {
	var list []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("class_date ASC, student_id ASC").
		Find(&list).Error
	return list, err
}
