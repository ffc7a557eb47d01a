package dto

// ── profiles ──

// StudentStats summary block of the student profile
type StudentStats struct {
	MyClubs              int     `json:"my_clubs"`
	TotalVisits          int     `json:"total_visits"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// StudentClubInfo one club of the student profile
type StudentClubInfo struct {
	ClubID               uint    `json:"club_id"`
	ClubTitle            string  `json:"club_title"`
	TeacherName          string  `json:"teacher_name"`
	CurrentStudents      int     `json:"current_students"`
	MaxStudents          int     `json:"max_students"`
	Visits               int     `json:"visits"`
	TotalClasses         int     `json:"total_classes"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// ScheduleItem a slot of one of the student's clubs
type ScheduleItem struct {
	ClubTitle string `json:"club_title"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	Location  string `json:"location"`
}

// StudentProfileResponse GET /profile/student
type StudentProfileResponse struct {
	UserID   uint              `json:"user_id"`
	FullName string            `json:"full_name"`
	Stats    StudentStats      `json:"stats"`
	Clubs    []StudentClubInfo `json:"clubs"`
	Schedule []ScheduleItem    `json:"schedule"`
}

// TeacherStats summary block of the teacher profile
type TeacherStats struct {
	TotalClubs  int `json:"total_clubs"`
	ActiveClubs int `json:"active_clubs"`
}

// TeacherClubInfo one owned club
type TeacherClubInfo struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	StudentCount    int    `json:"student_count"`
	RecruitmentOpen bool   `json:"recruitment_open"`
}

// TeacherProfileResponse GET /profile/teacher
type TeacherProfileResponse struct {
	UserID   uint              `json:"user_id"`
	FullName string            `json:"full_name"`
	Stats    TeacherStats      `json:"stats"`
	Clubs    []TeacherClubInfo `json:"clubs"`
}
