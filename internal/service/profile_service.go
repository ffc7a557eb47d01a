package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/model"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
)

// ProfileService read-only aggregates over catalog, memberships and attendance
type ProfileService interface {
	StudentProfile(ctx context.Context, actor *policy.Actor) (*dto.StudentProfileResponse, error)
	TeacherProfile(ctx context.Context, actor *policy.Actor) (*dto.TeacherProfileResponse, error)
}

type profileService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(repo *repository.Repository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

// ────────────────────── StudentProfile ──────────────────────

// StudentProfile covers current memberships only. The overall percentage is
// 100 * sum(visits) / sum(total_classes) across those clubs.
func (s *profileService) StudentProfile(ctx context.Context, actor *policy.Actor) (*dto.StudentProfileResponse, error) {
	if err := policy.Check(actor, policy.Student, 0); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.repo.Membership.ListByStudent(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("list memberships failed", zap.Uint("student_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	clubIDs := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		clubIDs = append(clubIDs, m.ClubID)
	}

	clubs, err := s.repo.Club.ListByIDs(ctx, clubIDs)
	if err != nil {
		s.logger.Error("list member clubs failed", zap.Uint("student_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	counts, err := s.repo.Membership.CountByClubs(ctx, clubIDs)
	if err != nil {
		s.logger.Error("count members failed", zap.Error(err))
		return nil, err
	}
	sessions, err := s.repo.Attendance.CountSessionsByClubs(ctx, clubIDs)
	if err != nil {
		s.logger.Error("count sessions failed", zap.Error(err))
		return nil, err
	}
	visits, err := s.repo.Attendance.VisitsByStudent(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("count visits failed", zap.Uint("student_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	resp := &dto.StudentProfileResponse{
		UserID:   user.ID,
		FullName: user.FullName,
		Clubs:    make([]dto.StudentClubInfo, 0, len(clubs)),
		Schedule: make([]dto.ScheduleItem, 0),
	}

	var totalVisits, totalClasses int
	for i := range clubs {
		c := &clubs[i]
		info := dto.StudentClubInfo{
			ClubID:               c.ID,
			ClubTitle:            c.Title,
			CurrentStudents:      counts[c.ID],
			MaxStudents:          c.MaxStudents,
			Visits:               visits[c.ID],
			TotalClasses:         sessions[c.ID],
			AttendancePercentage: percentage(visits[c.ID], sessions[c.ID]),
		}
		if c.Owner != nil {
			info.TeacherName = c.Owner.FullName
		}
		resp.Clubs = append(resp.Clubs, info)

		totalVisits += info.Visits
		totalClasses += info.TotalClasses

		for _, slot := range c.Schedules {
			resp.Schedule = append(resp.Schedule, dto.ScheduleItem{
				ClubTitle: c.Title,
				DayOfWeek: slot.DayOfWeek,
				StartTime: slot.StartTime,
				Location:  slot.Location,
			})
		}
	}

	sort.SliceStable(resp.Schedule, func(i, j int) bool {
		di, dj := model.DayIndex(resp.Schedule[i].DayOfWeek), model.DayIndex(resp.Schedule[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return resp.Schedule[i].StartTime < resp.Schedule[j].StartTime
	})

	resp.Stats = dto.StudentStats{
		MyClubs:              len(clubs),
		TotalVisits:          totalVisits,
		AttendancePercentage: percentage(totalVisits, totalClasses),
	}
	return resp, nil
}

// ────────────────────── TeacherProfile ──────────────────────

func (s *profileService) TeacherProfile(ctx context.Context, actor *policy.Actor) (*dto.TeacherProfileResponse, error) {
	if err := policy.Check(actor, policy.Teacher, 0); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	clubs, err := s.repo.Club.ListByOwner(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("list owned clubs failed", zap.Uint("owner_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	clubIDs := make([]uint, 0, len(clubs))
	for _, c := range clubs {
		clubIDs = append(clubIDs, c.ID)
	}
	counts, err := s.repo.Membership.CountByClubs(ctx, clubIDs)
	if err != nil {
		s.logger.Error("count members failed", zap.Error(err))
		return nil, err
	}

	resp := &dto.TeacherProfileResponse{
		UserID:   user.ID,
		FullName: user.FullName,
		Clubs:    make([]dto.TeacherClubInfo, 0, len(clubs)),
	}
	for _, c := range clubs {
		if c.RecruitmentOpen {
			resp.Stats.ActiveClubs++
		}
		resp.Clubs = append(resp.Clubs, dto.TeacherClubInfo{
			ID:              c.ID,
			Title:           c.Title,
			StudentCount:    counts[c.ID],
			RecruitmentOpen: c.RecruitmentOpen,
		})
	}
	resp.Stats.TotalClubs = len(clubs)
	return resp, nil
}

func (s *profileService) loadUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}
