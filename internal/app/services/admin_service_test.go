package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

func TestAdminService_Stats(t *testing.T) {
	f := newCertFixture(t)
	req := f.submit(t, f.student)
	f.submit(t, f.other)
	_, err := f.process(f.adviser, req.ID, "approve", "")
	require.NoError(t, err)

	svc := NewAdminService(f.users, f.requests, zerolog.Nop())
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.Users)
	assert.Equal(t, int64(2), stats.Requests)
	assert.Equal(t, int64(1), stats.StatusCounts[models.StatusPendingAdviserApproval])
	assert.Equal(t, int64(1), stats.StatusCounts[models.StatusPendingHODApproval])
	assert.Equal(t, int64(0), stats.StatusCounts[models.StatusCollected])
	assert.Len(t, stats.StatusCounts, len(models.AllStatuses()))
}

func TestAdminService_UpdateUser(t *testing.T) {
	users := newFakeUserStore()
	u := users.add(&models.User{Name: "Ravi", Email: "ravi@college.edu", Role: models.RoleClassAdviser, Department: "CSE"})
	users.add(&models.User{Name: "Meera", Email: "meera@college.edu", Role: models.RoleClassAdviser})
	svc := NewAdminService(users, newFakeRequestStore(), zerolog.Nop())

	updated, err := svc.UpdateUser(context.Background(), u.ID, &dto.UpdateUserRequest{Role: models.RoleHOD})
	require.NoError(t, err)
	assert.Equal(t, models.RoleHOD, updated.Role)
	assert.Equal(t, "Ravi", updated.Name)
	assert.Equal(t, "ravi@college.edu", updated.Email)
	assert.Equal(t, "CSE", updated.Department)

	_, err = svc.UpdateUser(context.Background(), u.ID, &dto.UpdateUserRequest{Role: "dean"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, err = svc.UpdateUser(context.Background(), u.ID, &dto.UpdateUserRequest{Email: "MEERA@college.edu"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = svc.UpdateUser(context.Background(), 999, &dto.UpdateUserRequest{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestAdminService_DeleteUser(t *testing.T) {
	f := newCertFixture(t)
	f.submit(t, f.student)
	f.users.requestOf = f.requests.hasRequestsFor
	svc := NewAdminService(f.users, f.requests, zerolog.Nop())

	assert.ErrorIs(t, svc.DeleteUser(context.Background(), f.student.ID), apperrors.ErrUserHasRequests)
	assert.NoError(t, svc.DeleteUser(context.Background(), f.other.ID))
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), f.other.ID), apperrors.ErrUserNotFound)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 6)
}

func TestAdminService_UpdateUser_RoleChangesKeepLinksConsistent(t *testing.T) {
	f := newCertFixture(t)
	svc := NewAdminService(f.users, f.requests, zerolog.Nop())
	ctx := context.Background()

	t.Run("demoted adviser releases students", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, f.adviser.ID, &dto.UpdateUserRequest{Role: models.RoleOfficeStaff})
		require.NoError(t, err)

		student, err := f.users.GetUserByID(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Nil(t, student.AdviserID)
	})

	t.Run("becoming a student needs a student id", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, f.office.ID, &dto.UpdateUserRequest{Role: models.RoleStudent})
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)

		unchanged, err := f.users.GetUserByID(ctx, f.office.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleOfficeStaff, unchanged.Role)

		updated, err := svc.UpdateUser(ctx, f.office.ID, &dto.UpdateUserRequest{Role: models.RoleStudent, StudentID: " ME2022-007 "})
		require.NoError(t, err)
		require.NotNil(t, updated.StudentID)
		assert.Equal(t, "ME2022-007", *updated.StudentID)
	})

	t.Run("student id must stay unique", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, f.other.ID, &dto.UpdateUserRequest{StudentID: "CS2021-014"})
		assert.ErrorIs(t, err, apperrors.ErrStudentIDAlreadyExists)
	})

	t.Run("student with requests keeps the role", func(t *testing.T) {
		f.submit(t, f.student)
		_, err := svc.UpdateUser(ctx, f.student.ID, &dto.UpdateUserRequest{Role: models.RoleHOD})
		assert.ErrorIs(t, err, apperrors.ErrUserHasRequests)
	})

	t.Run("student without requests drops student fields", func(t *testing.T) {
		updated, err := svc.UpdateUser(ctx, f.other.ID, &dto.UpdateUserRequest{Role: models.RoleClassAdviser})
		require.NoError(t, err)
		assert.Nil(t, updated.StudentID)
		assert.Nil(t, updated.AdviserID)
	})
}
