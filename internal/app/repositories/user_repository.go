package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/db"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/dberrors"
	"github.com/yigit/certtrack/internal/pkg/logger"
)

const (
	constraintUserEmail          = "users_email_key"
	constraintUserStudentID      = "users_student_id_key"
	constraintRequestStudentUser = "certificate_requests_student_id_fkey"
)

var userColumns = []string{
	"id", "name", "email", "password", "role", "student_id", "department", "adviser_id",
	"password_reset_token", "password_reset_expires", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	db Querier
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.StudentID, &u.Department, &u.AdviserID,
		&u.PasswordResetToken, &u.PasswordResetExpires, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// mapUserWriteError translates constraint violations raised by INSERT/UPDATE on users
func mapUserWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, constraintUserEmail):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, constraintUserStudentID):
		return apperrors.ErrStudentIDAlreadyExists
	default:
		return err
	}
}

// CreateUser inserts user and fills in its ID and timestamps
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role", "student_id", "department", "adviser_id").
		Values(user.Name, user.Email, user.Password, user.Role, user.StudentID, user.Department, user.AdviserID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// ListUsers returns every account, oldest first
func (r *UserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// UpdateUser persists the editable fields of user. When user is not a class
// adviser, students still linked to it lose their adviser in the same transaction.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Update("users").
		SetMap(map[string]interface{}{
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"department": user.Department,
			"student_id": user.StudentID,
			"adviser_id": user.AdviserID,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}
	unlink, unlinkArgs, err := r.sb.Update("users").
		Set("adviser_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"adviser_id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build unlink advisees query: %w", err)
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, sql, args...).Scan(&user.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrUserNotFound
			}
			if mapped := mapUserWriteError(err); mapped != err {
				return mapped
			}
			return fmt.Errorf("error updating user: %w", err)
		}
		if user.Role == models.RoleClassAdviser {
			return nil
		}
		if _, err := tx.Exec(ctx, unlink, unlinkArgs...); err != nil {
			return fmt.Errorf("error unlinking advisees: %w", err)
		}
		return nil
	})
}

// DeleteUser removes an account. Students who still own requests cannot be removed.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err, constraintRequestStudentUser) {
			return apperrors.ErrUserHasRequests
		}
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// AssignAdviser links a student to a class adviser
func (r *UserRepository) AssignAdviser(ctx context.Context, studentID, adviserID int64) error {
	sql, args, err := r.sb.Update("users").
		Set("adviser_id", adviserID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": studentID, "role": models.RoleStudent}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build assign adviser query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error assigning adviser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// SetPasswordResetToken stores the digest of a reset token and its expiry
func (r *UserRepository) SetPasswordResetToken(ctx context.Context, userID int64, tokenHash string, expires time.Time) error {
	sql, args, err := r.sb.Update("users").
		Set("password_reset_token", tokenHash).
		Set("password_reset_expires", expires).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set reset token query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ResetPasswordByToken swaps in a new password hash for the holder of an unexpired
// token and clears the token in the same statement, so a token works once.
func (r *UserRepository) ResetPasswordByToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (int64, error) {
	sql, args, err := r.sb.Update("users").
		Set("password", passwordHash).
		Set("password_reset_token", nil).
		Set("password_reset_expires", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"password_reset_token": tokenHash}).
		Where(squirrel.Gt{"password_reset_expires": now}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build reset password query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrInvalidPasswordResetToken
		}
		return 0, fmt.Errorf("error resetting password: %w", err)
	}
	return id, nil
}

// CountUsers returns the number of accounts
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}
