package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/auth"
)

// UserStore is the subset of the user repository seeding needs
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*appModels.User, error)
	CreateUser(ctx context.Context, user *appModels.User) error
}

// AdminAccount describes the bootstrap administrator
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the bootstrap administrator unless an account with
// that email already exists. Without credentials it does nothing, since
// admins cannot self-register.
func EnsureAdmin(ctx context.Context, users UserStore, admin AdminAccount, bcryptCost int, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Warn().Msg("No seed admin configured; skipping default admin creation")
		return nil
	}

	existing, err := users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != appModels.RoleAdmin {
			lgr.Warn().Str("email", email).Str("role", string(existing.Role)).Msg("Seed admin email belongs to a non-admin account")
		}
		return nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return fmt.Errorf("failed to look up seed admin: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password, bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}
	user := &appModels.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     appModels.RoleAdmin,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create seed admin: %w", err)
	}

	lgr.Info().Int64("userID", user.ID).Str("email", email).Msg("Default admin account created")
	return nil
}
