package model

// DaysOfWeek lists the accepted day_of_week values in calendar order.
var DaysOfWeek = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayIndex returns the position of day in DaysOfWeek, or -1.
func DayIndex(day string) int {
	for i, d := range DaysOfWeek {
		if d == day {
			return i
		}
	}
	return -1
}

// ScheduleSlot table schedules. Slots are never edited in place.
type ScheduleSlot struct {
	ID        uint   `gorm:"primaryKey"                       json:"id"`
	ClubID    uint   `gorm:"not null;index"                   json:"club_id"`
	DayOfWeek string `gorm:"type:varchar(16);not null"        json:"day_of_week"`
	StartTime string `gorm:"type:varchar(5);not null"         json:"start_time"` // HH:MM
	Location  string `gorm:"type:varchar(200);not null"       json:"location"`
	BaseModel
}

// TableName table name
func (ScheduleSlot) TableName() string { return "schedules" }
