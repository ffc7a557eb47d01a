package model

import "time"

// AttendanceRecord table attendances, unique per (club, student, class_date).
// Rows outlive the membership they were recorded under.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey"                                                        json:"id"`
	ClubID    uint      `gorm:"not null;uniqueIndex:uk_attendance_club_student_date,priority:1"   json:"club_id"`
	StudentID uint      `gorm:"not null;index;uniqueIndex:uk_attendance_club_student_date,priority:2" json:"student_id"`
	ClassDate time.Time `gorm:"type:date;not null;uniqueIndex:uk_attendance_club_student_date,priority:3" json:"date"`
	MarkedBy  uint      `gorm:"not null"                                                          json:"marked_by"`
	BaseModel
}

// TableName table name
func (AttendanceRecord) TableName() string { return "attendances" }

// ClubSession table club_sessions, one row per date a club held a class.
// total_classes is the count of these rows.
type ClubSession struct {
	ID        uint      `gorm:"primaryKey"                                       json:"id"`
	ClubID    uint      `gorm:"not null;uniqueIndex:uk_session_club_date,priority:1" json:"club_id"`
	ClassDate time.Time `gorm:"type:date;not null;uniqueIndex:uk_session_club_date,priority:2" json:"date"`
	BaseModel
}

// TableName table name
func (ClubSession) TableName() string { return "club_sessions" }
