package model

import "time"

// Membership table club_memberships, at most one row per (club, student)
type Membership struct {
	ID        uint      `gorm:"primaryKey"                                              json:"id"`
	ClubID    uint      `gorm:"not null;uniqueIndex:uk_membership_club_student"         json:"club_id"`
	StudentID uint      `gorm:"not null;index;uniqueIndex:uk_membership_club_student"   json:"student_id"`
	JoinedAt  time.Time `gorm:"type:date;not null;default:CURRENT_DATE"                 json:"joined_at"`
	BaseModel

	Student *User `gorm:"foreignKey:StudentID" json:"-"`
	Club    *Club `gorm:"foreignKey:ClubID"    json:"-"`
}

// TableName table name
func (Membership) TableName() string { return "club_memberships" }
