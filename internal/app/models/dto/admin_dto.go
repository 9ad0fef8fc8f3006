package dto

import "github.com/yigit/certtrack/internal/app/models"

// StatsResponse is the admin dashboard summary
type StatsResponse struct {
	Users        int64                          `json:"users" example:"120"`
	Requests     int64                          `json:"requests" example:"48"`
	StatusCounts map[models.RequestStatus]int64 `json:"statusCounts"`
}

// UpdateUserRequest edits a user. Empty fields keep their current value.
// StudentID only applies to student accounts.
type UpdateUserRequest struct {
	Name       string          `json:"name,omitempty" example:"Asha Rao"`
	Email      string          `json:"email,omitempty" binding:"omitempty,email" example:"asha@college.edu"`
	Role       models.RoleType `json:"role,omitempty" example:"hod"`
	Department string          `json:"department,omitempty" example:"CSE"`
	StudentID  string          `json:"studentId,omitempty" example:"CS2021-014"`
}
