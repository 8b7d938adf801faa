package domain

import (
	"errors"
	"time"
)

// User is the core identity entity. Role drives every authorization decision.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleNurse     Role = "nurse"
	RoleFrontDesk Role = "front-desk"
	RolePharmacy  Role = "pharmacy"
	RolePatient   Role = "patient"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleFrontDesk, RolePharmacy, RolePatient:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RolePatient
	}
	if !ValidRole(u.Role) {
		return errors.New("unknown role")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
