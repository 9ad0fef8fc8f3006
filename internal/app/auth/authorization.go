// Package auth resolves the authenticated caller into a workflow actor and
// answers role questions the routes and services share.
package auth

import (
	"context"
	"errors"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/workflow"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/logger"
)

// UserLookup is the user store subset authorization needs
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService loads the acting user behind a token
type AuthorizationService struct {
	users UserLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(users UserLookup) *AuthorizationService {
	return &AuthorizationService{users: users}
}

// ResolveActor loads the user behind a token. A token whose account has been
// deleted is treated as invalid.
func (s *AuthorizationService) ResolveActor(ctx context.Context, userID int64) (*models.User, workflow.Actor, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, workflow.Actor{}, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "The user belonging to this token no longer exists.")
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error loading acting user")
		return nil, workflow.Actor{}, err
	}
	return user, ActorOf(user), nil
}

// RequireRole returns a forbidden error unless user holds one of roles
func (s *AuthorizationService) RequireRole(user *models.User, roles ...models.RoleType) error {
	if HasRole(user.Role, roles...) {
		return nil
	}
	return apperrors.NewForbiddenError("You do not have permission to perform this action.")
}

// ActorOf converts a user into the workflow's view of it
func ActorOf(user *models.User) workflow.Actor {
	return workflow.Actor{ID: user.ID, Role: user.Role, Department: user.Department}
}

// HasRole reports whether role is one of roles
func HasRole(role models.RoleType, roles ...models.RoleType) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// ProcessorRoles may act on requests
func ProcessorRoles() []models.RoleType {
	return models.StaffRoles()
}

// ListerRoles may read the staff queue
func ListerRoles() []models.RoleType {
	return append(models.StaffRoles(), models.RoleAdmin)
}
