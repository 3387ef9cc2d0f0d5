package model

import "gorm.io/gorm"

// User login account, table users
type User struct {
	UserID             string `gorm:"type:uuid;primaryKey"                         json:"user_id"`
	Name               string `gorm:"type:varchar(100);not null"                   json:"name"`
	Email              string `gorm:"type:varchar(255);not null;uniqueIndex"       json:"email"`
	Phone              string `gorm:"type:varchar(30)"                             json:"phone,omitempty"`
	CollegeID          string `gorm:"type:varchar(50)"                             json:"college_id,omitempty"`
	Role               Role   `gorm:"type:varchar(20);not null;default:'student'"  json:"role"`
	PasswordHash       string `gorm:"type:varchar(255);not null"                   json:"-"`
	MustChangePassword bool   `gorm:"not null;default:false"                       json:"must_change_password"`
	IsActive           bool   `gorm:"not null;default:true"                        json:"is_active"`
	VersionedModel
}

// TableName table name
func (User) TableName() string { return "users" }

// BeforeCreate assigns the uuid
func (u *User) BeforeCreate(*gorm.DB) error {
	newID(&u.UserID)
	u.initVersion()
	return nil
}
