package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/model"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
	"github.com/KilloQ/StudentsClubs/pkg/metrics"
)

// ── attendance errors ──

var (
	ErrDuplicateAttendance = apperrors.New(apperrors.KindConflict, 41001, "attendance for this student and date is already recorded")
	ErrInvalidDate         = apperrors.New(apperrors.KindValidation, 41002, "date must be YYYY-MM-DD")
)

const dateLayout = "2006-01-02"

// AttendanceService the per-date attendance ledger of a club
type AttendanceService interface {
	MarkAttendance(ctx context.Context, actor *policy.Actor, clubID uint, req *dto.MarkAttendanceRequest) (*dto.AttendanceResponse, error)
	StudentAttendance(ctx context.Context, actor *policy.Actor, clubID uint) ([]dto.StudentAttendanceInfo, error)
	ListSessions(ctx context.Context, actor *policy.Actor, clubID uint) ([]dto.SessionResponse, error)
}

type attendanceService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAttendanceService creates an AttendanceService.
func NewAttendanceService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, metrics: m, logger: logger}
}

// ────────────────────── MarkAttendance ──────────────────────

// MarkAttendance records one presence and registers the class date as a held session.
// A repeat for the same (student, club, date) is rejected, never overwritten.
func (s *attendanceService) MarkAttendance(ctx context.Context, actor *policy.Actor, clubID uint, req *dto.MarkAttendanceRequest) (*dto.AttendanceResponse, error) {
	if _, err := checkOwner(ctx, s.repo, s.logger, actor, clubID); err != nil {
		return nil, err
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, ErrInvalidDate
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Membership.Get(ctx, clubID, req.StudentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}

		exists, err := tx.Attendance.Exists(ctx, clubID, req.StudentID, date)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateAttendance
		}

		record := &model.AttendanceRecord{
			ClubID:    clubID,
			StudentID: req.StudentID,
			ClassDate: date,
			MarkedBy:  actor.UserID,
		}
		if err := tx.Attendance.Create(ctx, record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateAttendance
			}
			return err
		}
		return tx.Attendance.EnsureSession(ctx, clubID, date)
	})

	s.metrics.AttendanceMarked(outcome(err))
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			s.logger.Error("mark attendance failed",
				zap.Uint("club_id", clubID),
				zap.Uint("student_id", req.StudentID),
				zap.String("date", req.Date),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return &dto.AttendanceResponse{
		ClubID:    clubID,
		StudentID: req.StudentID,
		Date:      date.Format(dateLayout),
	}, nil
}

// ────────────────────── StudentAttendance ──────────────────────

// StudentAttendance lists every active member, including those who never attended.
func (s *attendanceService) StudentAttendance(ctx context.Context, actor *policy.Actor, clubID uint) ([]dto.StudentAttendanceInfo, error) {
	if _, err := checkOwner(ctx, s.repo, s.logger, actor, clubID); err != nil {
		return nil, err
	}

	members, err := s.repo.Membership.ListByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("list members failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}
	total, err := s.repo.Attendance.CountSessions(ctx, clubID)
	if err != nil {
		s.logger.Error("count sessions failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}
	visits, err := s.repo.Attendance.VisitsByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("count visits failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentAttendanceInfo, 0, len(members))
	for _, m := range members {
		info := dto.StudentAttendanceInfo{
			StudentID:            m.StudentID,
			Visits:               visits[m.StudentID],
			TotalClasses:         total,
			AttendancePercentage: percentage(visits[m.StudentID], total),
		}
		if m.Student != nil {
			info.StudentName = m.Student.FullName
		}
		result = append(result, info)
	}
	return result, nil
}

// ────────────────────── ListSessions ──────────────────────

func (s *attendanceService) ListSessions(ctx context.Context, actor *policy.Actor, clubID uint) ([]dto.SessionResponse, error) {
	if _, err := checkOwner(ctx, s.repo, s.logger, actor, clubID); err != nil {
		return nil, err
	}

	sessions, err := s.repo.Attendance.ListSessions(ctx, clubID)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for _, sc := range sessions {
		result = append(result, dto.SessionResponse{
			Date:     sc.ClassDate.Format(dateLayout),
			Attended: sc.Attended,
		})
	}
	return result, nil
}
