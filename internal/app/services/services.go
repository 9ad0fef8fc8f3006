// Package services holds the business operations behind the HTTP handlers.
//
// Services defined in this package:
//   - AuthService: registration, login, password reset, adviser assignment
//   - AdminService: dashboard stats and user management
//   - CertificateService: submitting, listing and processing certificate requests
package services

import (
	"context"
	"time"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/workflow"
	"github.com/yigit/certtrack/internal/pkg/notifier"
)

// UserStore is the persistence the services need for accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	AssignAdviser(ctx context.Context, studentID, adviserID int64) error
	SetPasswordResetToken(ctx context.Context, userID int64, tokenHash string, expires time.Time) error
	ResetPasswordByToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}

// RequestStore is the persistence the services need for certificate requests
type RequestStore interface {
	Create(ctx context.Context, req *models.CertificateRequest, first models.Remark) error
	GetByID(ctx context.Context, id int64) (*models.CertificateRequest, error)
	List(ctx context.Context, scope workflow.Scope) ([]*models.CertificateRequest, error)
	ApplyTransition(ctx context.Context, id int64, from, to models.RequestStatus, remark models.Remark) (*models.CertificateRequest, error)
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error)
}

// EventQueue accepts notification events without blocking
type EventQueue interface {
	Enqueue(event notifier.Event) bool
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, int, error)
}

// ResetMailer sends the password reset link
type ResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string, ttl time.Duration) error
}
