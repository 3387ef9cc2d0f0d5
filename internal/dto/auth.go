package dto

// ── auth ──

// LoginRequest login
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest student self-registration
type RegisterRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	Email     string `json:"email"      binding:"required,email"`
	Phone     string `json:"phone"      binding:"omitempty,max=30"`
	CollegeID string `json:"college_id" binding:"omitempty,max=50"`
	Password  string `json:"password"   binding:"required,min=8,max=64"`
}

// RefreshTokenRequest refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest change password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}
