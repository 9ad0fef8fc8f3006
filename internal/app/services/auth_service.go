package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/auth"
	"github.com/yigit/certtrack/internal/pkg/notifier"
)

// ForgotPasswordMessage is returned whether or not the address has an account
const ForgotPasswordMessage = "If an account exists for that email, a reset link has been sent."

// AuthConfig tunes registration and password reset
type AuthConfig struct {
	AllowStaffRegistration bool
	BcryptCost             int
	ResetTokenTTL          time.Duration
	FrontendURL            string
}

// AuthService handles authentication operations
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	mailer ResetMailer
	events EventQueue
	config AuthConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	tokens TokenIssuer,
	mailer ResetMailer,
	events EventQueue,
	config AuthConfig,
	logger zerolog.Logger,
) *AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = auth.DefaultBcryptCost
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = 10 * time.Minute
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		events: events,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func weakPasswordError() error {
	return apperrors.NewCustomError(apperrors.ErrInvalidPassword,
		fmt.Sprintf("Password must be %d to %d characters and contain a letter and a digit.", auth.MinPasswordLength, auth.MaxPasswordLength))
}

// Register creates an account and signs the user in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !role.IsValid() {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidRole, fmt.Sprintf("Unknown role '%s'.", role))
	}
	if role != models.RoleStudent && (!s.config.AllowStaffRegistration || role == models.RoleAdmin) {
		return nil, apperrors.NewForbiddenError("Only students can register themselves. Ask an administrator for a staff account.")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewBadRequestError("Name is required.")
	}
	if !auth.IsStrongPassword(req.Password) {
		return nil, weakPasswordError()
	}

	user := &models.User{
		Name:       name,
		Email:      normalizeEmail(req.Email),
		Role:       role,
		Department: strings.TrimSpace(req.Department),
	}
	if role == models.RoleStudent {
		studentID := strings.TrimSpace(req.StudentID)
		if studentID == "" {
			return nil, apperrors.NewBadRequestError("Student ID is required for student accounts.")
		}
		user.StudentID = &studentID
	}

	hash, err := auth.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")

	s.events.Enqueue(notifier.Event{
		Kind:       notifier.KindWelcome,
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		OccurredAt: s.now(),
	})

	return s.authResponse(user)
}

// Login verifies credentials and issues a token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	invalid := apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, invalid
	}

	return s.authResponse(user)
}

// ForgotPassword emails a one-time reset link. Unknown addresses succeed
// silently so the endpoint does not reveal which emails have accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	raw, hashed, err := auth.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.users.SetPasswordResetToken(ctx, user.ID, hashed, s.now().Add(s.config.ResetTokenTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.config.FrontendURL, "/"), raw)
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, resetURL, s.config.ResetTokenTTL); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to send password reset email")
		return apperrors.NewUpstreamError("There was an error sending the email. Try again later.", err)
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Password reset email sent")
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password string) (*dto.AuthResponse, error) {
	if !auth.IsStrongPassword(password) {
		return nil, weakPasswordError()
	}
	hash, err := auth.HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.users.ResetPasswordByToken(ctx, auth.HashResetToken(rawToken), hash, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidPasswordResetToken, "Token is invalid or has expired.")
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", userID).Msg("Password reset completed")
	return s.authResponse(user)
}

// AssignAdviser links a student to a class adviser
func (s *AuthService) AssignAdviser(ctx context.Context, studentID, adviserID int64) (*models.User, error) {
	student, err := s.users.GetUserByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "Student not found.")
		}
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "Student not found.")
	}

	adviser, err := s.users.GetUserByID(ctx, adviserID)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}
	if adviser == nil || adviser.Role != models.RoleClassAdviser {
		return nil, apperrors.NewBadRequestError("Adviser must be an existing class adviser.")
	}

	if err := s.users.AssignAdviser(ctx, studentID, adviserID); err != nil {
		return nil, err
	}
	student.AdviserID = &adviserID

	s.logger.Info().Int64("studentID", studentID).Int64("adviserID", adviserID).Msg("Adviser assigned")
	return student, nil
}

func (s *AuthService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}
