package dto

// ── club management ──

// StudentAttendanceInfo one row of GET /management/:id/students
type StudentAttendanceInfo struct {
	StudentID            uint    `json:"student_id"`
	StudentName          string  `json:"student_name"`
	Visits               int     `json:"visits"`
	TotalClasses         int     `json:"total_classes"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// MarkAttendanceRequest POST /management/:id/attendance
type MarkAttendanceRequest struct {
	StudentID uint   `json:"student_id" binding:"required"`
	Date      string `json:"date"       binding:"required"` // YYYY-MM-DD
}

// AttendanceResponse the stored record
type AttendanceResponse struct {
	ClubID    uint   `json:"club_id"`
	StudentID uint   `json:"student_id"`
	Date      string `json:"date"`
}

// SessionResponse one held class with its head count
type SessionResponse struct {
	Date     string `json:"date"`
	Attended int    `json:"attended"`
}

// ClubSettingsResponse GET /management/:id/settings
type ClubSettingsResponse struct {
	Title           string             `json:"title"`
	Description     *string            `json:"description"`
	MaxStudents     int                `json:"max_students"`
	RecruitmentOpen bool               `json:"recruitment_open"`
	Schedules       []ScheduleResponse `json:"schedules"`
}

// ClubSettingsUpdate PUT /management/:id/settings; nil fields are left unchanged
type ClubSettingsUpdate struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	MaxStudents     *int    `json:"max_students"`
	RecruitmentOpen *bool   `json:"recruitment_open"`
}

// ScheduleItemCreate POST /management/:id/schedule
type ScheduleItemCreate struct {
	DayOfWeek string `json:"day_of_week" binding:"required"`
	StartTime string `json:"start_time"  binding:"required"` // HH:MM
	Location  string `json:"location"    binding:"required"`
}

// ClubStatsResponse GET /management/:id/stats
type ClubStatsResponse struct {
	TotalStudents int `json:"total_students"`
}
