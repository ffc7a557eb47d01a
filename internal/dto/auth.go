package dto

// ── auth ──

// LoginRequest POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest POST /auth/register
type RegisterRequest struct {
	Username        string `json:"username"         binding:"required"`
	FullName        string `json:"full_name"        binding:"required"`
	Password        string `json:"password"         binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// TokenResponse login result
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse public view of a user
type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	IsTeacher bool   `json:"is_teacher"`
}
