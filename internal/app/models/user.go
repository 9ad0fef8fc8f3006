package models

import (
	"fmt"
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                   int64      `json:"id" db:"id" example:"1"`
	Name                 string     `json:"name" db:"name" example:"Asha Raman"`
	Email                string     `json:"email" db:"email" example:"asha@college.edu"`
	Password             string     `json:"-" db:"password"`
	Role                 RoleType   `json:"role" db:"role" example:"student"`
	StudentID            *string    `json:"studentId,omitempty" db:"student_id" example:"21CS045"`
	Department           string     `json:"department,omitempty" db:"department" example:"CSE"`
	AdviserID            *int64     `json:"adviserId,omitempty" db:"adviser_id"`
	PasswordResetToken   *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`
}

// ActorLabel is how the user is recorded in a remark's updatedBy field.
func (u *User) ActorLabel() string {
	if u.Role == RoleStudent {
		return u.Name
	}
	return fmt.Sprintf("%s (%s)", u.Name, u.Role)
}

// StudentIdentifier returns the institution student id, or "" for staff.
func (u *User) StudentIdentifier() string {
	if u.StudentID == nil {
		return ""
	}
	return *u.StudentID
}
