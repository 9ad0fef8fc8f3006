package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

func updatedAtRow() fakeRow {
	return fakeRow{scan: func(dest ...interface{}) error {
		*dest[0].(*time.Time) = time.Now()
		return nil
	}}
}

func TestUpdateUser_DemotedAdviserReleasesStudents(t *testing.T) {
	tx := &fakeTx{
		rows:  []fakeRow{updatedAtRow()},
		execs: []execResult{{tag: pgconn.NewCommandTag("UPDATE 3")}},
	}
	user := &models.User{ID: 5, Name: "R. Kumar", Email: "kumar@college.edu", Role: models.RoleHOD}

	require.NoError(t, NewUserRepository(&fakeQuerier{tx: tx}).UpdateUser(context.Background(), user))
	assert.True(t, tx.committed)
	require.Len(t, tx.statements, 2)
	assert.Contains(t, tx.statements[1], "SET adviser_id = $1")
	assert.Contains(t, tx.statements[1], "WHERE adviser_id = $2")
	assert.False(t, user.UpdatedAt.IsZero())
}

func TestUpdateUser_AdviserKeepsStudents(t *testing.T) {
	tx := &fakeTx{rows: []fakeRow{updatedAtRow()}}
	user := &models.User{ID: 5, Role: models.RoleClassAdviser}

	require.NoError(t, NewUserRepository(&fakeQuerier{tx: tx}).UpdateUser(context.Background(), user))
	assert.True(t, tx.committed)
	assert.Len(t, tx.statements, 1)
}

func TestUpdateUser_UnlinkFailureRollsBack(t *testing.T) {
	tx := &fakeTx{
		rows:  []fakeRow{updatedAtRow()},
		execs: []execResult{{err: errors.New("connection reset")}},
	}
	user := &models.User{ID: 5, Role: models.RoleOfficeStaff}

	err := NewUserRepository(&fakeQuerier{tx: tx}).UpdateUser(context.Background(), user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error unlinking advisees")
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestUpdateUser_MapsWriteErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing user", pgx.ErrNoRows, apperrors.ErrUserNotFound},
		{"duplicate email", &pgconn.PgError{Code: "23505", ConstraintName: constraintUserEmail}, apperrors.ErrEmailAlreadyExists},
		{"duplicate student id", &pgconn.PgError{Code: "23505", ConstraintName: constraintUserStudentID}, apperrors.ErrStudentIDAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &fakeTx{rows: []fakeRow{rowErr(tt.err)}}
			user := &models.User{ID: 5, Role: models.RoleStudent}

			err := NewUserRepository(&fakeQuerier{tx: tx}).UpdateUser(context.Background(), user)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, tx.rolledBack)
			assert.Len(t, tx.statements, 1, "no unlink after a failed update")
		})
	}
}
