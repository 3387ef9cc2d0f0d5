package service

import "solveit/internal/model"

// Actor authenticated caller, built from the access token
type Actor struct {
	UserID    string
	Role      model.Role
	Name      string
	Email     string
	Phone     string
	CollegeID string
	// StaffID directory entry of a staff account, empty otherwise
	StaffID string
}

func (a Actor) IsAdmin() bool   { return a.Role == model.RoleAdmin }
func (a Actor) IsStaff() bool   { return a.Role == model.RoleStaff }
func (a Actor) IsStudent() bool { return a.Role == model.RoleStudent }

// ref pointer form for nullable actor columns; the system actor has no id
func (a Actor) ref() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

// systemActor resolver and escalation engine
var systemActor = Actor{Role: model.ActorSystem}
