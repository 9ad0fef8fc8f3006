package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/app/workflow"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

// AdminService backs the administrator dashboard
type AdminService struct {
	users    UserStore
	requests RequestStore
	logger   zerolog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(users UserStore, requests RequestStore, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, requests: requests, logger: logger}
}

// Stats counts users, requests and requests per status
func (s *AdminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StatsResponse{Users: users, Requests: requests, StatusCounts: byStatus}, nil
}

// ListUsers returns every account
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// UpdateUser applies the non-empty fields of req to user id. A student keeps
// exactly one student ID; leaving the student role drops the student ID and
// adviser link and is refused while the student still owns requests.
func (s *AdminService) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousRole := user.Role

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := normalizeEmail(req.Email); email != "" {
		user.Email = email
	}
	if req.Role != "" {
		if !req.Role.IsValid() {
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidRole, fmt.Sprintf("Unknown role '%s'.", req.Role))
		}
		user.Role = req.Role
	}
	if dept := strings.TrimSpace(req.Department); dept != "" {
		user.Department = dept
	}

	if user.Role == models.RoleStudent {
		if sid := strings.TrimSpace(req.StudentID); sid != "" {
			user.StudentID = &sid
		}
		if user.StudentID == nil || *user.StudentID == "" {
			return nil, apperrors.NewBadRequestError("Student ID is required for student accounts.")
		}
	} else if previousRole == models.RoleStudent {
		owned, err := s.requests.List(ctx, workflow.MyRequests(id))
		if err != nil {
			return nil, err
		}
		if len(owned) > 0 {
			return nil, apperrors.NewCustomError(apperrors.ErrUserHasRequests, "A student who owns certificate requests cannot change role.")
		}
		user.StudentID = nil
		user.AdviserID = nil
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", id).Str("role", string(user.Role)).Str("previousRole", string(previousRole)).Msg("User updated by admin")
	return user, nil
}

// DeleteUser removes an account. Students who still own requests are kept.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", id).Msg("User deleted by admin")
	return nil
}
