package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/model"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
	"github.com/KilloQ/StudentsClubs/pkg/metrics"
)

// ── membership errors ──

var (
	ErrRecruitmentClosed = apperrors.New(apperrors.KindConflict, 40001, "recruitment for this club is closed")
	ErrAlreadyMember     = apperrors.New(apperrors.KindConflict, 40002, "you are already a member of this club")
	ErrClubFull          = apperrors.New(apperrors.KindConflict, 40003, "club has reached its maximum number of students")
	ErrNotMember         = apperrors.New(apperrors.KindConflict, 40004, "student is not a member of this club")
)

// MembershipService student enrollment under capacity and recruitment rules
type MembershipService interface {
	Join(ctx context.Context, actor *policy.Actor, clubID uint) error
	Leave(ctx context.Context, actor *policy.Actor, clubID uint) error
	CountActive(ctx context.Context, clubID uint) (int, error)
	Stats(ctx context.Context, actor *policy.Actor, clubID uint) (*dto.ClubStatsResponse, error)
}

type membershipService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewMembershipService creates a MembershipService.
func NewMembershipService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) MembershipService {
	return &membershipService{repo: repo, metrics: m, logger: logger}
}

// ────────────────────── Join ──────────────────────

// Join checks and inserts inside one transaction that holds the club row lock, so
// concurrent joins against the last seat are serialized. The unique index on
// (club_id, student_id) backs the AlreadyMember check.
func (s *membershipService) Join(ctx context.Context, actor *policy.Actor, clubID uint) error {
	if err := policy.Check(actor, policy.Student, 0); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		club, err := tx.Club.GetByIDForUpdate(ctx, clubID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClubNotFound
			}
			return err
		}

		if !club.RecruitmentOpen {
			return ErrRecruitmentClosed
		}

		if _, err := tx.Membership.Get(ctx, clubID, actor.UserID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		count, err := tx.Membership.CountByClub(ctx, clubID)
		if err != nil {
			return err
		}
		if count >= club.MaxStudents {
			return ErrClubFull
		}

		if err := tx.Membership.Create(ctx, &model.Membership{ClubID: clubID, StudentID: actor.UserID}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})

	s.metrics.MembershipEvent("join", outcome(err))
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			s.logger.Error("join club failed",
				zap.Uint("club_id", clubID),
				zap.Uint("student_id", actor.UserID),
				zap.Error(err),
			)
		}
		return err
	}

	s.logger.Info("student joined club", zap.Uint("club_id", clubID), zap.Uint("student_id", actor.UserID))
	return nil
}

// ────────────────────── Leave ──────────────────────

// Leave removes the membership only; attendance history is kept.
func (s *membershipService) Leave(ctx context.Context, actor *policy.Actor, clubID uint) error {
	if err := policy.Check(actor, policy.Student, 0); err != nil {
		return err
	}

	err := s.leave(ctx, actor.UserID, clubID)
	s.metrics.MembershipEvent("leave", outcome(err))
	if err != nil {
		return err
	}

	s.logger.Info("student left club", zap.Uint("club_id", clubID), zap.Uint("student_id", actor.UserID))
	return nil
}

func (s *membershipService) leave(ctx context.Context, studentID, clubID uint) error {
	if _, err := s.repo.Club.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClubNotFound
		}
		s.logger.Error("lookup club failed", zap.Uint("club_id", clubID), zap.Error(err))
		return err
	}

	if err := s.repo.Membership.Delete(ctx, clubID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		s.logger.Error("delete membership failed",
			zap.Uint("club_id", clubID),
			zap.Uint("student_id", studentID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ────────────────────── CountActive / Stats ──────────────────────

func (s *membershipService) CountActive(ctx context.Context, clubID uint) (int, error) {
	count, err := s.repo.Membership.CountByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("count members failed", zap.Uint("club_id", clubID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (s *membershipService) Stats(ctx context.Context, actor *policy.Actor, clubID uint) (*dto.ClubStatsResponse, error) {
	if _, err := checkOwner(ctx, s.repo, s.logger, actor, clubID); err != nil {
		return nil, err
	}

	count, err := s.CountActive(ctx, clubID)
	if err != nil {
		return nil, err
	}
	return &dto.ClubStatsResponse{TotalStudents: count}, nil
}

// ── helpers ──

// outcome is the metrics label for a service result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrClubFull):
		return "club_full"
	case errors.Is(err, ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, ErrRecruitmentClosed):
		return "recruitment_closed"
	case errors.Is(err, ErrNotMember):
		return "not_member"
	case errors.Is(err, ErrDuplicateAttendance):
		return "duplicate"
	}
	if e, ok := apperrors.As(err); ok && e.Kind == apperrors.KindNotFound {
		return "not_found"
	}
	return "error"
}

// checkOwner loads the club and requires actor to be its owning teacher.
func checkOwner(ctx context.Context, repo *repository.Repository, logger *zap.Logger, actor *policy.Actor, clubID uint) (*model.Club, error) {
	if err := policy.Check(actor, policy.Teacher, 0); err != nil {
		return nil, err
	}
	club, err := repo.Club.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		logger.Error("lookup club failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}
	if err := policy.Check(actor, policy.Owner, club.OwnerID); err != nil {
		return nil, err
	}
	return club, nil
}
