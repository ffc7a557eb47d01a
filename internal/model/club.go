package model

// CategoryAll is the filter sentinel that disables category matching.
const CategoryAll = "Все"

// Categories is the fixed club taxonomy, in display order.
var Categories = []string{
	"Спортивные",
	"Творчество",
	"Точные науки",
	"Инжиниринг",
	"БПЛА",
	"Информационная безопасность",
	"Связь",
	"Программирование",
}

// IsValidCategory reports whether c belongs to the taxonomy. The sentinel is not a category.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Club table clubs
type Club struct {
	ID              uint    `gorm:"primaryKey"                          json:"id"`
	Title           string  `gorm:"type:varchar(200);not null"          json:"title"`
	Description     *string `gorm:"type:text"                           json:"description"`
	Category        string  `gorm:"type:varchar(100);not null;index"    json:"category"`
	MaxStudents     int     `gorm:"not null"                            json:"max_students"`
	RecruitmentOpen bool    `gorm:"not null;default:true"               json:"recruitment_open"`
	ImageURL        *string `gorm:"type:varchar(500)"                   json:"image_url"`
	OwnerID         uint    `gorm:"not null;index"                      json:"owner_id"`
	BaseModel

	Owner     *User          `gorm:"foreignKey:OwnerID" json:"-"`
	Schedules []ScheduleSlot `gorm:"foreignKey:ClubID"  json:"-"`
}

// TableName table name
func (Club) TableName() string { return "clubs" }
