package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult    *dto.TokenResponse
	loginErr       error
	registerResult *dto.UserResponse
	registerErr    error
	meResult       *dto.UserResponse
	meErr          error
	logoutErr      error
	loggedOut      *policy.Actor
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.UserResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) CreateTeacher(_ context.Context, _, _, _ string) (*dto.UserResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) ResolveSession(_ context.Context, _ string) (*policy.Actor, error) {
	return nil, service.ErrSessionInvalid
}
func (m *mockAuthService) Logout(_ context.Context, actor *policy.Actor) error {
	m.loggedOut = actor
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ uint) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}

// ── Mock CatalogService ──

type mockCatalogService struct {
	listResult     []dto.ClubResponse
	listCategory   string
	detailResult   *dto.ClubDetailResponse
	detailActor    *policy.Actor
	err            error
	createResult   *dto.ClubResponse
	settingsResult *dto.ClubSettingsResponse
	scheduleResult *dto.ScheduleResponse
	deletedID      uint
	calendar       []byte
}

func (m *mockCatalogService) ListClubs(_ context.Context, category string) ([]dto.ClubResponse, error) {
	m.listCategory = category
	return m.listResult, m.err
}
func (m *mockCatalogService) GetClub(_ context.Context, _ uint, actor *policy.Actor) (*dto.ClubDetailResponse, error) {
	m.detailActor = actor
	return m.detailResult, m.err
}
func (m *mockCatalogService) CreateClub(_ context.Context, _ *policy.Actor, _ *dto.CreateClubRequest) (*dto.ClubResponse, error) {
	return m.createResult, m.err
}
func (m *mockCatalogService) ListCategories() []string {
	return []string{"Все", "Спортивные"}
}
func (m *mockCatalogService) OwnerOf(_ context.Context, _ uint) (uint, error) {
	return 1, m.err
}
func (m *mockCatalogService) GetSettings(_ context.Context, _ *policy.Actor, _ uint) (*dto.ClubSettingsResponse, error) {
	return m.settingsResult, m.err
}
func (m *mockCatalogService) UpdateSettings(_ context.Context, _ *policy.Actor, _ uint, _ *dto.ClubSettingsUpdate) (*dto.ClubSettingsResponse, error) {
	return m.settingsResult, m.err
}
func (m *mockCatalogService) AddScheduleItem(_ context.Context, _ *policy.Actor, _ uint, _ *dto.ScheduleItemCreate) (*dto.ScheduleResponse, error) {
	return m.scheduleResult, m.err
}
func (m *mockCatalogService) DeleteScheduleItem(_ context.Context, _ *policy.Actor, _, scheduleID uint) error {
	m.deletedID = scheduleID
	return m.err
}
func (m *mockCatalogService) Calendar(_ context.Context, _ uint) ([]byte, string, error) {
	return m.calendar, "club-1.ics", m.err
}

// ── Mock MembershipService ──

type mockMembershipService struct {
	err   error
	stats *dto.ClubStatsResponse
}

func (m *mockMembershipService) Join(_ context.Context, _ *policy.Actor, _ uint) error { return m.err }
func (m *mockMembershipService) Leave(_ context.Context, _ *policy.Actor, _ uint) error { return m.err }
func (m *mockMembershipService) CountActive(_ context.Context, _ uint) (int, error) { return 0, m.err }
func (m *mockMembershipService) Stats(_ context.Context, _ *policy.Actor, _ uint) (*dto.ClubStatsResponse, error) {
	return m.stats, m.err
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	markResult *dto.AttendanceResponse
	students   []dto.StudentAttendanceInfo
	sessions   []dto.SessionResponse
	err        error
}

func (m *mockAttendanceService) MarkAttendance(_ context.Context, _ *policy.Actor, _ uint, _ *dto.MarkAttendanceRequest) (*dto.AttendanceResponse, error) {
	return m.markResult, m.err
}
func (m *mockAttendanceService) StudentAttendance(_ context.Context, _ *policy.Actor, _ uint) ([]dto.StudentAttendanceInfo, error) {
	return m.students, m.err
}
func (m *mockAttendanceService) ListSessions(_ context.Context, _ *policy.Actor, _ uint) ([]dto.SessionResponse, error) {
	return m.sessions, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportAttendance(_ context.Context, _ *policy.Actor, _ uint) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock ProfileService ──

type mockProfileService struct {
	student *dto.StudentProfileResponse
	teacher *dto.TeacherProfileResponse
	err     error
}

func (m *mockProfileService) StudentProfile(_ context.Context, _ *policy.Actor) (*dto.StudentProfileResponse, error) {
	return m.student, m.err
}
func (m *mockProfileService) TeacherProfile(_ context.Context, _ *policy.Actor) (*dto.TeacherProfileResponse, error) {
	return m.teacher, m.err
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

// withActor stands in for the auth middleware.
func withActor(actor *policy.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set("actor", actor)
		}
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func doRequest(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", w.Body.String())
	}
	if body.Detail == "" {
		t.Errorf("error body must carry detail: %s", w.Body.String())
	}
	return body
}

var (
	student = &policy.Actor{UserID: 10}
	teacher = &policy.Actor{UserID: 1, IsTeacher: true}
)

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginResult: &dto.TokenResponse{AccessToken: "token", TokenType: "bearer"},
	})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := doRequest(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: "ivanov", Password: "secret1"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["access_token"] != "token" || body["token_type"] != "bearer" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := doRequest(r, "POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	parseError(t, w)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := doRequest(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: "ivanov", Password: "wrong"}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if body := parseError(t, w); body.Detail != service.ErrInvalidCredentials.Message {
		t.Errorf("detail must be surfaced verbatim, got %q", body.Detail)
	}
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerResult: &dto.UserResponse{ID: 5, Username: "ivanov"}})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := doRequest(r, "POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "ivanov", FullName: "Ivan", Password: "secret1", PasswordConfirm: "secret1",
	}))
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestAuthHandler_Register_Mismatch(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrPasswordMismatch})
	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := doRequest(r, "POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "ivanov", FullName: "Ivan", Password: "secret1", PasswordConfirm: "secret2",
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Me_RequiresActor(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meResult: &dto.UserResponse{ID: 10}})
	r := gin.New()
	r.GET("/auth/me", h.Me)
	r.GET("/auth/me-authed", withActor(student), h.Me)

	if w := doRequest(r, "GET", "/auth/me", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without actor, got %d", w.Code)
	}
	if w := doRequest(r, "GET", "/auth/me-authed", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 with actor, got %d", w.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)
	r := gin.New()
	r.POST("/auth/logout", withActor(student), h.Logout)

	w := doRequest(r, "POST", "/auth/logout", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.loggedOut != student {
		t.Error("logout should receive the current actor")
	}
}

// ═══════════════════════════════════════════════════════════
// ClubHandler Tests
// ═══════════════════════════════════════════════════════════

func TestClubHandler_ListClubs_PassesCategory(t *testing.T) {
	catalog := &mockCatalogService{listResult: []dto.ClubResponse{{ID: 1, Title: "Chess"}}}
	h := NewClubHandler(catalog, &mockMembershipService{})
	r := gin.New()
	r.GET("/clubs/", h.ListClubs)

	w := doRequest(r, "GET", "/clubs/?category=%D0%A1%D0%B2%D1%8F%D0%B7%D1%8C", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if catalog.listCategory != "Связь" {
		t.Errorf("expected category Связь, got %q", catalog.listCategory)
	}

	var clubs []dto.ClubResponse
	_ = json.Unmarshal(w.Body.Bytes(), &clubs)
	if len(clubs) != 1 || clubs[0].Title != "Chess" {
		t.Errorf("expected bare array body, got %s", w.Body.String())
	}
}

func TestClubHandler_GetClub(t *testing.T) {
	catalog := &mockCatalogService{detailResult: &dto.ClubDetailResponse{IsMember: true}}
	h := NewClubHandler(catalog, &mockMembershipService{})
	r := gin.New()
	r.GET("/clubs/:id", withActor(student), h.GetClub)

	if w := doRequest(r, "GET", "/clubs/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("malformed id: expected 400, got %d", w.Code)
	}

	w := doRequest(r, "GET", "/clubs/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if catalog.detailActor != student {
		t.Error("the caller must be passed for is_member")
	}
}

func TestClubHandler_GetClub_NotFound(t *testing.T) {
	h := NewClubHandler(&mockCatalogService{err: service.ErrClubNotFound}, &mockMembershipService{})
	r := gin.New()
	r.GET("/clubs/:id", h.GetClub)

	w := doRequest(r, "GET", "/clubs/9", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestClubHandler_Join_Conflicts(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{service.ErrClubFull, http.StatusConflict},
		{service.ErrAlreadyMember, http.StatusConflict},
		{service.ErrRecruitmentClosed, http.StatusConflict},
		{policy.ErrStudentOnly, http.StatusForbidden},
		{service.ErrClubNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		h := NewClubHandler(&mockCatalogService{}, &mockMembershipService{err: tt.err})
		r := gin.New()
		r.POST("/clubs/:id/join", withActor(student), h.Join)

		w := doRequest(r, "POST", "/clubs/1/join", nil)
		if w.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, w.Code)
		}
	}
}

func TestClubHandler_Leave_NotMember(t *testing.T) {
	h := NewClubHandler(&mockCatalogService{}, &mockMembershipService{err: service.ErrNotMember})
	r := gin.New()
	r.DELETE("/clubs/:id/leave", withActor(student), h.Leave)

	w := doRequest(r, "DELETE", "/clubs/1/leave", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if body := parseError(t, w); body.Code != service.ErrNotMember.Code {
		t.Errorf("expected code %d, got %d", service.ErrNotMember.Code, body.Code)
	}
}

func TestClubHandler_CreateClub(t *testing.T) {
	h := NewClubHandler(&mockCatalogService{createResult: &dto.ClubResponse{ID: 3}}, &mockMembershipService{})
	r := gin.New()
	r.POST("/clubs/", withActor(teacher), h.CreateClub)

	w := doRequest(r, "POST", "/clubs/", jsonBody(dto.CreateClubRequest{Title: "Chess", Category: "Точные науки", MaxStudents: 10}))
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}

	w = doRequest(r, "POST", "/clubs/", jsonBody(map[string]int{"max_students": 3}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title: expected 400, got %d", w.Code)
	}
}

func TestClubHandler_Calendar(t *testing.T) {
	h := NewClubHandler(&mockCatalogService{calendar: []byte("BEGIN:VCALENDAR")}, &mockMembershipService{})
	r := gin.New()
	r.GET("/clubs/:id/schedule.ics", h.Calendar)

	w := doRequest(r, "GET", "/clubs/1/schedule.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type %s", ct)
	}
}

// ═══════════════════════════════════════════════════════════
// ManagementHandler Tests
// ═══════════════════════════════════════════════════════════

func newManagementRouter(m *ManagementHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/management/:id", withActor(teacher))
	g.GET("/students", m.Students)
	g.POST("/attendance", m.MarkAttendance)
	g.GET("/sessions", m.Sessions)
	g.GET("/attendance/export", m.ExportAttendance)
	g.GET("/settings", m.GetSettings)
	g.PUT("/settings", m.UpdateSettings)
	g.POST("/schedule", m.AddSchedule)
	g.DELETE("/schedule/:scheduleId", m.DeleteSchedule)
	g.GET("/stats", m.Stats)
	return r
}

func TestManagementHandler_MarkAttendance(t *testing.T) {
	attendance := &mockAttendanceService{markResult: &dto.AttendanceResponse{ClubID: 1, StudentID: 10, Date: "2025-01-10"}}
	r := newManagementRouter(NewManagementHandler(&mockCatalogService{}, &mockMembershipService{}, attendance, &mockExportService{}))

	w := doRequest(r, "POST", "/management/1/attendance", jsonBody(dto.MarkAttendanceRequest{StudentID: 10, Date: "2025-01-10"}))
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}

	w = doRequest(r, "POST", "/management/1/attendance", jsonBody(map[string]string{"date": "2025-01-10"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing student_id: expected 400, got %d", w.Code)
	}

	attendance.err = service.ErrDuplicateAttendance
	w = doRequest(r, "POST", "/management/1/attendance", jsonBody(dto.MarkAttendanceRequest{StudentID: 10, Date: "2025-01-10"}))
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", w.Code)
	}

	attendance.err = policy.ErrNotOwner
	w = doRequest(r, "POST", "/management/1/attendance", jsonBody(dto.MarkAttendanceRequest{StudentID: 10, Date: "2025-01-10"}))
	if w.Code != http.StatusForbidden {
		t.Errorf("not owner: expected 403, got %d", w.Code)
	}
}

func TestManagementHandler_Students(t *testing.T) {
	attendance := &mockAttendanceService{students: []dto.StudentAttendanceInfo{
		{StudentID: 10, StudentName: "Vera", Visits: 1, TotalClasses: 1, AttendancePercentage: 100},
	}}
	r := newManagementRouter(NewManagementHandler(&mockCatalogService{}, &mockMembershipService{}, attendance, &mockExportService{}))

	w := doRequest(r, "GET", "/management/1/students", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var rows []map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &rows)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %s", w.Body.String())
	}
	for _, field := range []string{"student_id", "student_name", "visits", "total_classes", "attendance_percentage"} {
		if _, ok := rows[0][field]; !ok {
			t.Errorf("missing wire field %s", field)
		}
	}
}

func TestManagementHandler_Schedule(t *testing.T) {
	catalog := &mockCatalogService{scheduleResult: &dto.ScheduleResponse{ID: 4}}
	r := newManagementRouter(NewManagementHandler(catalog, &mockMembershipService{}, &mockAttendanceService{}, &mockExportService{}))

	w := doRequest(r, "POST", "/management/1/schedule", jsonBody(dto.ScheduleItemCreate{DayOfWeek: "monday", StartTime: "10:00", Location: "A"}))
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}

	w = doRequest(r, "DELETE", "/management/1/schedule/4", nil)
	if w.Code != http.StatusOK || catalog.deletedID != 4 {
		t.Errorf("expected delete of 4, got %d / %d", w.Code, catalog.deletedID)
	}

	catalog.err = service.ErrScheduleNotFound
	w = doRequest(r, "DELETE", "/management/1/schedule/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestManagementHandler_Settings(t *testing.T) {
	catalog := &mockCatalogService{settingsResult: &dto.ClubSettingsResponse{Title: "Chess", MaxStudents: 5}}
	r := newManagementRouter(NewManagementHandler(catalog, &mockMembershipService{}, &mockAttendanceService{}, &mockExportService{}))

	if w := doRequest(r, "GET", "/management/1/settings", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := doRequest(r, "PUT", "/management/1/settings", jsonBody(map[string]int{"max_students": 5})); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	catalog.err = service.ErrCapacityBelowCount
	if w := doRequest(r, "PUT", "/management/1/settings", jsonBody(map[string]int{"max_students": 1})); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestManagementHandler_StatsAndExport(t *testing.T) {
	export := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "attendance_club_1.xlsx"}
	membership := &mockMembershipService{stats: &dto.ClubStatsResponse{TotalStudents: 3}}
	r := newManagementRouter(NewManagementHandler(&mockCatalogService{}, membership, &mockAttendanceService{}, export))

	w := doRequest(r, "GET", "/management/1/stats", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"total_students":3}` {
		t.Errorf("unexpected stats response %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, "GET", "/management/1/attendance/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %s", ct)
	}
}

// ═══════════════════════════════════════════════════════════
// ProfileHandler Tests
// ═══════════════════════════════════════════════════════════

func TestProfileHandler(t *testing.T) {
	profiles := &mockProfileService{
		student: &dto.StudentProfileResponse{UserID: 10},
		teacher: &dto.TeacherProfileResponse{UserID: 1},
	}
	h := NewProfileHandler(profiles)
	r := gin.New()
	r.GET("/profile/student", withActor(student), h.Student)
	r.GET("/profile/teacher", withActor(teacher), h.Teacher)

	if w := doRequest(r, "GET", "/profile/student", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := doRequest(r, "GET", "/profile/teacher", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	profiles.err = policy.ErrTeacherOnly
	if w := doRequest(r, "GET", "/profile/teacher", nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}
