package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
)

// ── export errors ──

var ErrExportGenerateFail = apperrors.New(apperrors.KindInternal, 42001, "failed to generate the spreadsheet")

const attendanceSheet = "Attendance"

// ExportService spreadsheet exports for club owners
type ExportService interface {
	// ExportAttendance returns the attendance matrix as .xlsx and a suggested file name.
	ExportAttendance(ctx context.Context, actor *policy.Actor, clubID uint) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - row 1: club title
//   - row 2: Student | one column per session date (oldest first) | Visits | Total | %
//   - one row per active member, "+" where present
//   - a member's visits include marks recorded before a leave/re-join

func (s *exportService) ExportAttendance(ctx context.Context, actor *policy.Actor, clubID uint) (*bytes.Buffer, string, error) {
	club, err := checkOwner(ctx, s.repo, s.logger, actor, clubID)
	if err != nil {
		return nil, "", err
	}
	members, err := s.repo.Membership.ListByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("list members failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, "", err
	}
	sessions, err := s.repo.Attendance.ListSessions(ctx, clubID)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, "", err
	}
	records, err := s.repo.Attendance.ListByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("list attendance failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, "", err
	}

	// sessions arrive newest first
	dates := make([]string, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		dates = append(dates, sessions[i].ClassDate.Format(dateLayout))
	}

	present := make(map[string]bool, len(records))
	visits := make(map[uint]int)
	for _, r := range records {
		present[fmt.Sprintf("%d:%s", r.StudentID, r.ClassDate.Format(dateLayout))] = true
		visits[r.StudentID]++
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(attendanceSheet)
	if err != nil {
		s.logger.Error("create sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol := colName(len(dates) + 3)
	f.SetColWidth(attendanceSheet, "A", "A", 28)
	if len(dates) > 0 {
		f.SetColWidth(attendanceSheet, colName(1), colName(len(dates)), 12)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// title
	f.SetCellValue(attendanceSheet, "A1", club.Title)
	f.MergeCell(attendanceSheet, "A1", cell(lastCol, 1))
	f.SetCellStyle(attendanceSheet, "A1", "A1", headerStyle)

	// header
	row := 2
	f.SetCellValue(attendanceSheet, cell("A", row), "Student")
	for i, d := range dates {
		f.SetCellValue(attendanceSheet, cell(colName(i+1), row), d)
	}
	f.SetCellValue(attendanceSheet, cell(colName(len(dates)+1), row), "Visits")
	f.SetCellValue(attendanceSheet, cell(colName(len(dates)+2), row), "Total")
	f.SetCellValue(attendanceSheet, cell(colName(len(dates)+3), row), "%")
	f.SetCellStyle(attendanceSheet, cell("A", row), cell(lastCol, row), headerStyle)

	// members
	row = 3
	for _, m := range members {
		name := fmt.Sprintf("#%d", m.StudentID)
		if m.Student != nil {
			name = m.Student.FullName
		}
		f.SetCellValue(attendanceSheet, cell("A", row), name)
		for i, d := range dates {
			if present[fmt.Sprintf("%d:%s", m.StudentID, d)] {
				f.SetCellValue(attendanceSheet, cell(colName(i+1), row), "+")
			}
		}
		f.SetCellValue(attendanceSheet, cell(colName(len(dates)+1), row), visits[m.StudentID])
		f.SetCellValue(attendanceSheet, cell(colName(len(dates)+2), row), len(dates))
		f.SetCellValue(attendanceSheet, cell(colName(len(dates)+3), row), percentage(visits[m.StudentID], len(dates)))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write spreadsheet failed", zap.Uint("club_id", clubID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_club_%d.xlsx", clubID)
	return buf, filename, nil
}

// ── helpers ──

// colName converts a zero-based column index to its letter name.
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
