package model

// User table users. The teacher flag is fixed at creation.
type User struct {
	ID           uint   `gorm:"primaryKey"                                 json:"id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex:uk_users_username" json:"username"`
	FullName     string `gorm:"type:varchar(200);not null"                 json:"full_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"                 json:"-"`
	IsTeacher    bool   `gorm:"not null;default:false"                     json:"is_teacher"`
	BaseModel
}

// TableName table name
func (User) TableName() string { return "users" }
