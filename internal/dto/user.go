package dto

// ── account administration ──

// UserListQuery account filters
type UserListQuery struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=student staff admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// AssignRoleRequest promote / demote; staff accounts come from the staff directory
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student admin"`
}

// ResetPasswordResponse one-time temporary password
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserError a rejected spreadsheet row
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedUser a created account and its one-time password
type ImportedUser struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse bulk import result
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Created []ImportedUser    `json:"created,omitempty"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}
