package dto

// ── clubs ──

// ClubListRequest GET /clubs/?category=
type ClubListRequest struct {
	Category string `form:"category"`
}

// CreateClubRequest POST /clubs/
type CreateClubRequest struct {
	Title       string  `json:"title"        binding:"required"`
	Description *string `json:"description"`
	Category    string  `json:"category"     binding:"required"`
	MaxStudents int     `json:"max_students"`
	ImageURL    *string `json:"image_url"`
}

// ScheduleResponse one weekly slot
type ScheduleResponse struct {
	ID        uint   `json:"id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	Location  string `json:"location"`
}

// ClubResponse club record as listed
type ClubResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Description     *string            `json:"description"`
	Category        string             `json:"category"`
	MaxStudents     int                `json:"max_students"`
	RecruitmentOpen bool               `json:"recruitment_open"`
	ImageURL        *string            `json:"image_url"`
	OwnerID         uint               `json:"owner_id"`
	Schedules       []ScheduleResponse `json:"schedules"`
}

// ClubDetailResponse GET /clubs/:id
type ClubDetailResponse struct {
	ClubResponse
	CurrentStudents int    `json:"current_students"`
	OwnerName       string `json:"owner_name"`
	IsMember        bool   `json:"is_member"`
}
