package dto

import "github.com/yigit/certtrack/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a self-registration. Role defaults to student.
type RegisterRequest struct {
	Name       string          `json:"name" binding:"required" example:"Asha Rao"`
	Email      string          `json:"email" binding:"required,email" example:"asha@college.edu"`
	Password   string          `json:"password" binding:"required,min=8,max=72" example:"secret123"`
	Role       models.RoleType `json:"role,omitempty" example:"student"`
	StudentID  string          `json:"studentId,omitempty" example:"CS2021-014"`
	Department string          `json:"department,omitempty" example:"CSE"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries the new password for a reset token
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// AssignAdviserRequest links a student to a class adviser (both user ids)
type AssignAdviserRequest struct {
	StudentID int64 `json:"studentId" binding:"required,gt=0" example:"12"`
	AdviserID int64 `json:"adviserId" binding:"required,gt=0" example:"3"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn" example:"2592000"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID         int64           `json:"id" example:"1"`
	Name       string          `json:"name" example:"Asha Rao"`
	Email      string          `json:"email" example:"asha@college.edu"`
	Role       models.RoleType `json:"role" example:"student"`
	StudentID  *string         `json:"studentId,omitempty" example:"CS2021-014"`
	Department string          `json:"department,omitempty" example:"CSE"`
	AdviserID  *int64          `json:"adviserId,omitempty" example:"3"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// NewUserResponse maps a user to its public view
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		StudentID:  u.StudentID,
		Department: u.Department,
		AdviserID:  u.AdviserID,
	}
}

// NewUserResponses maps a slice of users
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
