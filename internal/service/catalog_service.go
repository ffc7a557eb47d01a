package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/model"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
)

// ── catalog errors ──

var (
	ErrClubNotFound       = apperrors.New(apperrors.KindNotFound, 30001, "club not found")
	ErrInvalidCategory    = apperrors.New(apperrors.KindValidation, 30002, "unknown club category")
	ErrInvalidCapacity    = apperrors.New(apperrors.KindValidation, 30003, "max_students must be at least 1")
	ErrCapacityBelowCount = apperrors.New(apperrors.KindValidation, 30004, "max_students cannot be lower than the current number of members")
	ErrScheduleNotFound   = apperrors.New(apperrors.KindNotFound, 30005, "schedule item not found")
	ErrInvalidDayOfWeek   = apperrors.New(apperrors.KindValidation, 30006, "day_of_week must be one of monday..sunday")
	ErrInvalidStartTime   = apperrors.New(apperrors.KindValidation, 30007, "start_time must be HH:MM")
	ErrTitleRequired      = apperrors.New(apperrors.KindValidation, 30008, "title is required")
	ErrLocationRequired   = apperrors.New(apperrors.KindValidation, 30009, "location is required")
	ErrTitleTooLong       = apperrors.New(apperrors.KindValidation, 30010, "title must be at most 200 characters")
	ErrLocationTooLong    = apperrors.New(apperrors.KindValidation, 30011, "location must be at most 200 characters")
	ErrImageURLTooLong    = apperrors.New(apperrors.KindValidation, 30012, "image_url must be at most 500 characters")
)

// column widths of clubs.title, schedules.location and clubs.image_url
const (
	maxTitleLen    = 200
	maxLocationLen = 200
	maxImageURLLen = 500
)

// classDuration is the assumed length of a class in the calendar feed.
const classDuration = "PT1H30M"

// CatalogService clubs, their settings and weekly schedules
type CatalogService interface {
	ListClubs(ctx context.Context, category string) ([]dto.ClubResponse, error)
	GetClub(ctx context.Context, clubID uint, actor *policy.Actor) (*dto.ClubDetailResponse, error)
	CreateClub(ctx context.Context, actor *policy.Actor, req *dto.CreateClubRequest) (*dto.ClubResponse, error)
	ListCategories() []string
	// OwnerOf resolves the owning teacher for authorization.
	OwnerOf(ctx context.Context, clubID uint) (uint, error)

	GetSettings(ctx context.Context, actor *policy.Actor, clubID uint) (*dto.ClubSettingsResponse, error)
	UpdateSettings(ctx context.Context, actor *policy.Actor, clubID uint, req *dto.ClubSettingsUpdate) (*dto.ClubSettingsResponse, error)
	AddScheduleItem(ctx context.Context, actor *policy.Actor, clubID uint, req *dto.ScheduleItemCreate) (*dto.ScheduleResponse, error)
	DeleteScheduleItem(ctx context.Context, actor *policy.Actor, clubID, scheduleID uint) error

	// Calendar renders the weekly schedule as an iCalendar document.
	Calendar(ctx context.Context, clubID uint) ([]byte, string, error)
}

type catalogService struct {
	repo      *repository.Repository
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// ────────────────────── ListClubs ──────────────────────

func (s *catalogService) ListClubs(ctx context.Context, category string) ([]dto.ClubResponse, error) {
	category = strings.TrimSpace(category)
	if category == model.CategoryAll {
		category = ""
	}

	clubs, err := s.repo.Club.List(ctx, category)
	if err != nil {
		s.logger.Error("list clubs failed", zap.String("category", category), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClubResponse, 0, len(clubs))
	for i := range clubs {
		result = append(result, toClubResponse(&clubs[i]))
	}
	return result, nil
}

// ────────────────────── GetClub ──────────────────────

func (s *catalogService) GetClub(ctx context.Context, clubID uint, actor *policy.Actor) (*dto.ClubDetailResponse, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Membership.CountByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("count members failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}

	detail := &dto.ClubDetailResponse{
		ClubResponse:    toClubResponse(club),
		CurrentStudents: count,
	}
	if club.Owner != nil {
		detail.OwnerName = club.Owner.FullName
	}

	if actor.IsStudent() {
		_, err := s.repo.Membership.Get(ctx, clubID, actor.UserID)
		switch {
		case err == nil:
			detail.IsMember = true
		case !errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Error("lookup membership failed",
				zap.Uint("club_id", clubID),
				zap.Uint("student_id", actor.UserID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	return detail, nil
}

// ────────────────────── CreateClub ──────────────────────

func (s *catalogService) CreateClub(ctx context.Context, actor *policy.Actor, req *dto.CreateClubRequest) (*dto.ClubResponse, error) {
	if err := policy.Check(actor, policy.Teacher, 0); err != nil {
		return nil, err
	}

	title := s.cleanText(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, ErrTitleTooLong
	}
	imageURL := trimOptional(req.ImageURL)
	if imageURL != nil && utf8.RuneCountInString(*imageURL) > maxImageURLLen {
		return nil, ErrImageURLTooLong
	}
	if !model.IsValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}
	if req.MaxStudents < 1 {
		return nil, ErrInvalidCapacity
	}

	club := &model.Club{
		Title:           title,
		Description:     s.cleanOptional(req.Description),
		Category:        req.Category,
		MaxStudents:     req.MaxStudents,
		RecruitmentOpen: true,
		ImageURL:        imageURL,
		OwnerID:         actor.UserID,
	}
	if err := s.repo.Club.Create(ctx, club); err != nil {
		s.logger.Error("create club failed", zap.Uint("owner_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("club created",
		zap.Uint("club_id", club.ID),
		zap.Uint("owner_id", club.OwnerID),
		zap.String("category", club.Category),
	)
	resp := toClubResponse(club)
	return &resp, nil
}

func (s *catalogService) ListCategories() []string {
	result := make([]string, 0, len(model.Categories)+1)
	result = append(result, model.CategoryAll)
	return append(result, model.Categories...)
}

func (s *catalogService) OwnerOf(ctx context.Context, clubID uint) (uint, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return 0, err
	}
	return club.OwnerID, nil
}

// ────────────────────── Settings ──────────────────────

func (s *catalogService) GetSettings(ctx context.Context, actor *policy.Actor, clubID uint) (*dto.ClubSettingsResponse, error) {
	club, err := s.loadOwnedClub(ctx, actor, clubID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(club), nil
}

// UpdateSettings applies the patch under the club row lock so a concurrent join cannot
// slip past a capacity reduction.
func (s *catalogService) UpdateSettings(ctx context.Context, actor *policy.Actor, clubID uint, req *dto.ClubSettingsUpdate) (*dto.ClubSettingsResponse, error) {
	if _, err := s.loadOwnedClub(ctx, actor, clubID); err != nil {
		return nil, err
	}

	var title string
	if req.Title != nil {
		title = s.cleanText(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return nil, ErrTitleTooLong
		}
	}
	if req.MaxStudents != nil && *req.MaxStudents < 1 {
		return nil, ErrInvalidCapacity
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		club, err := tx.Club.GetByIDForUpdate(ctx, clubID)
		if err != nil {
			return err
		}

		if req.MaxStudents != nil && *req.MaxStudents < club.MaxStudents {
			count, err := tx.Membership.CountByClub(ctx, clubID)
			if err != nil {
				return err
			}
			if *req.MaxStudents < count {
				return ErrCapacityBelowCount
			}
		}

		if req.Title != nil {
			club.Title = title
		}
		if req.Description != nil {
			club.Description = s.cleanOptional(req.Description)
		}
		if req.MaxStudents != nil {
			club.MaxStudents = *req.MaxStudents
		}
		if req.RecruitmentOpen != nil {
			club.RecruitmentOpen = *req.RecruitmentOpen
		}
		return tx.Club.Update(ctx, club)
	})
	if err != nil {
		if errors.Is(err, ErrCapacityBelowCount) {
			return nil, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		s.logger.Error("update club settings failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}

	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(club), nil
}

// ────────────────────── Schedule ──────────────────────

func (s *catalogService) AddScheduleItem(ctx context.Context, actor *policy.Actor, clubID uint, req *dto.ScheduleItemCreate) (*dto.ScheduleResponse, error) {
	if _, err := s.loadOwnedClub(ctx, actor, clubID); err != nil {
		return nil, err
	}

	day := strings.ToLower(strings.TrimSpace(req.DayOfWeek))
	if model.DayIndex(day) < 0 {
		return nil, ErrInvalidDayOfWeek
	}
	start, err := time.Parse("15:04", strings.TrimSpace(req.StartTime))
	if err != nil {
		return nil, ErrInvalidStartTime
	}
	location := s.cleanText(req.Location)
	if location == "" {
		return nil, ErrLocationRequired
	}
	if utf8.RuneCountInString(location) > maxLocationLen {
		return nil, ErrLocationTooLong
	}

	slot := &model.ScheduleSlot{
		ClubID:    clubID,
		DayOfWeek: day,
		StartTime: start.Format("15:04"),
		Location:  location,
	}
	if err := s.repo.Schedule.Create(ctx, slot); err != nil {
		s.logger.Error("create schedule item failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}

	resp := toScheduleResponse(slot)
	return &resp, nil
}

func (s *catalogService) DeleteScheduleItem(ctx context.Context, actor *policy.Actor, clubID, scheduleID uint) error {
	if _, err := s.loadOwnedClub(ctx, actor, clubID); err != nil {
		return err
	}

	slot, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("lookup schedule item failed", zap.Uint("schedule_id", scheduleID), zap.Error(err))
		return err
	}
	// a slot of another club is reported as missing, not forbidden
	if slot.ClubID != clubID {
		return ErrScheduleNotFound
	}

	if err := s.repo.Schedule.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("delete schedule item failed", zap.Uint("schedule_id", scheduleID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

// Calendar emits one weekly recurring event per slot, anchored on the first matching
// weekday on or after the club's creation date. Times are floating local times.
func (s *catalogService) Calendar(ctx context.Context, clubID uint) ([]byte, string, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//student-clubs//schedule//EN")
	cal.SetName(club.Title)

	anchor := club.CreatedAt
	if anchor.IsZero() {
		anchor = time.Now()
	}

	for _, slot := range club.Schedules {
		start, ok := firstOccurrence(anchor, slot.DayOfWeek, slot.StartTime)
		if !ok {
			s.logger.Warn("skip malformed schedule item", zap.Uint("schedule_id", slot.ID))
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("club-%d-slot-%d@student-clubs", club.ID, slot.ID))
		event.SetDtStampTime(time.Now().UTC())
		event.SetSummary(club.Title)
		event.SetLocation(slot.Location)
		event.SetProperty(ics.ComponentPropertyDtStart, start.Format("20060102T150405"))
		event.SetProperty(ics.ComponentPropertyDuration, classDuration)
		event.SetProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+icsWeekday(slot.DayOfWeek))
	}

	filename := fmt.Sprintf("club-%d.ics", club.ID)
	return []byte(cal.Serialize()), filename, nil
}

// ── helpers ──

func (s *catalogService) loadClub(ctx context.Context, clubID uint) (*model.Club, error) {
	club, err := s.repo.Club.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		s.logger.Error("lookup club failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, err
	}
	return club, nil
}

func (s *catalogService) loadOwnedClub(ctx context.Context, actor *policy.Actor, clubID uint) (*model.Club, error) {
	if err := policy.Check(actor, policy.Teacher, 0); err != nil {
		return nil, err
	}
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.Owner, club.OwnerID); err != nil {
		return nil, err
	}
	return club, nil
}

// cleanText strips markup and returns plain trimmed text.
func (s *catalogService) cleanText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

func (s *catalogService) cleanOptional(v *string) *string {
	if v == nil {
		return nil
	}
	cleaned := s.cleanText(*v)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func firstOccurrence(anchor time.Time, day, startTime string) (time.Time, bool) {
	idx := model.DayIndex(day)
	if idx < 0 {
		return time.Time{}, false
	}
	clock, err := time.Parse("15:04", startTime)
	if err != nil {
		return time.Time{}, false
	}

	// time.Weekday counts from Sunday, DaysOfWeek from Monday
	target := time.Weekday((idx + 1) % 7)
	offset := (int(target) - int(anchor.Weekday()) + 7) % 7
	date := anchor.AddDate(0, 0, offset)
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC), true
}

func icsWeekday(day string) string {
	return strings.ToUpper(day[:2])
}

func toClubResponse(c *model.Club) dto.ClubResponse {
	return dto.ClubResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		MaxStudents:     c.MaxStudents,
		RecruitmentOpen: c.RecruitmentOpen,
		ImageURL:        c.ImageURL,
		OwnerID:         c.OwnerID,
		Schedules:       toScheduleResponses(c.Schedules),
	}
}

func toSettingsResponse(c *model.Club) *dto.ClubSettingsResponse {
	return &dto.ClubSettingsResponse{
		Title:           c.Title,
		Description:     c.Description,
		MaxStudents:     c.MaxStudents,
		RecruitmentOpen: c.RecruitmentOpen,
		Schedules:       toScheduleResponses(c.Schedules),
	}
}

func toScheduleResponse(s *model.ScheduleSlot) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ID:        s.ID,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		Location:  s.Location,
	}
}

func toScheduleResponses(slots []model.ScheduleSlot) []dto.ScheduleResponse {
	result := make([]dto.ScheduleResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toScheduleResponse(&slots[i]))
	}
	return result
}
