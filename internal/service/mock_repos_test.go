package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/internal/model"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = m.nextID
	}
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, teachersOnly bool) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if teachersOnly && !u.IsTeacher {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	slots  map[uint]*model.ScheduleSlot
	nextID uint
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{slots: make(map[uint]*model.ScheduleSlot), nextID: 1}
}

func (m *mockScheduleRepo) Create(_ context.Context, slot *model.ScheduleSlot) error {
	slot.ID = m.nextID
	m.nextID++
	m.slots[slot.ID] = slot
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uint) (*model.ScheduleSlot, error) {
	if s, ok := m.slots[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// byClub mirrors the Schedules preload ordering.
func (m *mockScheduleRepo) byClub(clubID uint) []model.ScheduleSlot {
	var result []model.ScheduleSlot
	for _, s := range m.slots {
		if s.ClubID == clubID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.slots[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.slots, id)
	return nil
}

// ── Mock ClubRepository ──

type mockClubRepo struct {
	clubs     map[uint]*model.Club
	nextID    uint
	users     *mockUserRepo
	schedules *mockScheduleRepo

	getByIDCalls int
}

func newMockClubRepo(users *mockUserRepo, schedules *mockScheduleRepo) *mockClubRepo {
	return &mockClubRepo{
		clubs:     make(map[uint]*model.Club),
		nextID:    1,
		users:     users,
		schedules: schedules,
	}
}

// withAssociations returns a copy with Owner and Schedules filled like the gorm preloads.
func (m *mockClubRepo) withAssociations(c *model.Club) model.Club {
	out := *c
	if u, ok := m.users.users[c.OwnerID]; ok {
		out.Owner = u
	}
	out.Schedules = m.schedules.byClub(c.ID)
	return out
}

func (m *mockClubRepo) Create(_ context.Context, club *model.Club) error {
	if club.ID == 0 {
		club.ID = m.nextID
	}
	if club.ID >= m.nextID {
		m.nextID = club.ID + 1
	}
	if club.CreatedAt.IsZero() {
		club.CreatedAt = time.Now()
	}
	stored := *club
	m.clubs[club.ID] = &stored
	return nil
}

func (m *mockClubRepo) GetByID(_ context.Context, id uint) (*model.Club, error) {
	m.getByIDCalls++
	c, ok := m.clubs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.withAssociations(c)
	return &out, nil
}

func (m *mockClubRepo) GetByIDForUpdate(_ context.Context, id uint) (*model.Club, error) {
	c, ok := m.clubs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	return &out, nil
}

func (m *mockClubRepo) List(_ context.Context, category string) ([]model.Club, error) {
	var result []model.Club
	for _, c := range m.clubs {
		if category != "" && c.Category != category {
			continue
		}
		result = append(result, m.withAssociations(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockClubRepo) ListByOwner(_ context.Context, ownerID uint) ([]model.Club, error) {
	var result []model.Club
	for _, c := range m.clubs {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockClubRepo) ListByIDs(_ context.Context, ids []uint) ([]model.Club, error) {
	var result []model.Club
	for _, id := range ids {
		if c, ok := m.clubs[id]; ok {
			result = append(result, m.withAssociations(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockClubRepo) Update(_ context.Context, club *model.Club) error {
	c, ok := m.clubs[club.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Title = club.Title
	c.Description = club.Description
	c.MaxStudents = club.MaxStudents
	c.RecruitmentOpen = club.RecruitmentOpen
	return nil
}

// ── Mock MembershipRepository ──

type membershipKey struct {
	clubID    uint
	studentID uint
}

type mockMembershipRepo struct {
	members map[membershipKey]*model.Membership
	nextID  uint
	users   *mockUserRepo
}

func newMockMembershipRepo(users *mockUserRepo) *mockMembershipRepo {
	return &mockMembershipRepo{
		members: make(map[membershipKey]*model.Membership),
		nextID:  1,
		users:   users,
	}
}

func (m *mockMembershipRepo) Create(_ context.Context, ms *model.Membership) error {
	key := membershipKey{ms.ClubID, ms.StudentID}
	if _, ok := m.members[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	ms.ID = m.nextID
	m.nextID++
	m.members[key] = ms
	return nil
}

func (m *mockMembershipRepo) Get(_ context.Context, clubID, studentID uint) (*model.Membership, error) {
	if ms, ok := m.members[membershipKey{clubID, studentID}]; ok {
		return ms, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMembershipRepo) Delete(_ context.Context, clubID, studentID uint) error {
	key := membershipKey{clubID, studentID}
	if _, ok := m.members[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.members, key)
	return nil
}

func (m *mockMembershipRepo) CountByClub(_ context.Context, clubID uint) (int, error) {
	n := 0
	for key := range m.members {
		if key.clubID == clubID {
			n++
		}
	}
	return n, nil
}

func (m *mockMembershipRepo) CountByClubs(_ context.Context, clubIDs []uint) (map[uint]int, error) {
	wanted := make(map[uint]bool, len(clubIDs))
	for _, id := range clubIDs {
		wanted[id] = true
	}
	result := make(map[uint]int)
	for key := range m.members {
		if wanted[key.clubID] {
			result[key.clubID]++
		}
	}
	return result, nil
}

func (m *mockMembershipRepo) ListByClub(_ context.Context, clubID uint) ([]model.Membership, error) {
	var result []model.Membership
	for key, ms := range m.members {
		if key.clubID != clubID {
			continue
		}
		out := *ms
		out.Student = m.users.users[key.studentID]
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool {
		ni, nj := studentName(result[i]), studentName(result[j])
		if ni != nj {
			return ni < nj
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

func (m *mockMembershipRepo) ListByStudent(_ context.Context, studentID uint) ([]model.Membership, error) {
	var result []model.Membership
	for key, ms := range m.members {
		if key.studentID == studentID {
			result = append(result, *ms)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClubID < result[j].ClubID })
	return result, nil
}

func studentName(ms model.Membership) string {
	if ms.Student == nil {
		return ""
	}
	return ms.Student.FullName
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records  []model.AttendanceRecord
	sessions map[uint]map[string]bool
	nextID   uint
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{sessions: make(map[uint]map[string]bool), nextID: 1}
}

func (m *mockAttendanceRepo) Create(_ context.Context, rec *model.AttendanceRecord) error {
	for _, r := range m.records {
		if r.ClubID == rec.ClubID && r.StudentID == rec.StudentID && r.ClassDate.Equal(rec.ClassDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockAttendanceRepo) Exists(_ context.Context, clubID, studentID uint, date time.Time) (bool, error) {
	for _, r := range m.records {
		if r.ClubID == clubID && r.StudentID == studentID && r.ClassDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) EnsureSession(_ context.Context, clubID uint, date time.Time) error {
	if m.sessions[clubID] == nil {
		m.sessions[clubID] = make(map[string]bool)
	}
	m.sessions[clubID][date.Format("2006-01-02")] = true
	return nil
}

func (m *mockAttendanceRepo) CountSessions(_ context.Context, clubID uint) (int, error) {
	return len(m.sessions[clubID]), nil
}

func (m *mockAttendanceRepo) CountSessionsByClubs(_ context.Context, clubIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int)
	for _, id := range clubIDs {
		if n := len(m.sessions[id]); n > 0 {
			result[id] = n
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) VisitsByClub(_ context.Context, clubID uint) (map[uint]int, error) {
	result := make(map[uint]int)
	for _, r := range m.records {
		if r.ClubID == clubID {
			result[r.StudentID]++
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) VisitsByStudent(_ context.Context, studentID uint) (map[uint]int, error) {
	result := make(map[uint]int)
	for _, r := range m.records {
		if r.StudentID == studentID {
			result[r.ClubID]++
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListSessions(_ context.Context, clubID uint) ([]repository.SessionCount, error) {
	var result []repository.SessionCount
	for d := range m.sessions[clubID] {
		date, _ := time.Parse("2006-01-02", d)
		attended := 0
		for _, r := range m.records {
			if r.ClubID == clubID && r.ClassDate.Equal(date) {
				attended++
			}
		}
		result = append(result, repository.SessionCount{ClassDate: date, Attended: attended})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClassDate.After(result[j].ClassDate) })
	return result, nil
}

func (m *mockAttendanceRepo) ListByClub(_ context.Context, clubID uint) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.ClubID == clubID {
			result = append(result, r)
		}
	}
	return result, nil
}

// ── fixture ──

type mockRepos struct {
	users       *mockUserRepo
	clubs       *mockClubRepo
	schedules   *mockScheduleRepo
	memberships *mockMembershipRepo
	attendance  *mockAttendanceRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	schedules := newMockScheduleRepo()
	mocks := &mockRepos{
		users:       users,
		schedules:   schedules,
		clubs:       newMockClubRepo(users, schedules),
		memberships: newMockMembershipRepo(users),
		attendance:  newMockAttendanceRepo(),
	}
	repo := &repository.Repository{
		User:       mocks.users,
		Club:       mocks.clubs,
		Schedule:   mocks.schedules,
		Membership: mocks.memberships,
		Attendance: mocks.attendance,
	}
	return repo, mocks
}

func (m *mockRepos) addUser(id uint, username, fullName string, isTeacher bool) *model.User {
	u := &model.User{ID: id, Username: username, FullName: fullName, IsTeacher: isTeacher}
	_ = m.users.Create(context.Background(), u)
	return u
}

func (m *mockRepos) addClub(id, ownerID uint, title string, maxStudents int, open bool) *model.Club {
	c := &model.Club{
		ID:              id,
		Title:           title,
		Category:        "Спортивные",
		MaxStudents:     maxStudents,
		RecruitmentOpen: open,
		OwnerID:         ownerID,
	}
	_ = m.clubs.Create(context.Background(), c)
	return m.clubs.clubs[id]
}

func (m *mockRepos) addMember(clubID, studentID uint) {
	_ = m.memberships.Create(context.Background(), &model.Membership{ClubID: clubID, StudentID: studentID})
}

func studentActor(id uint) *policy.Actor {
	return &policy.Actor{UserID: id}
}

func teacherActor(id uint) *policy.Actor {
	return &policy.Actor{UserID: id, IsTeacher: true}
}
