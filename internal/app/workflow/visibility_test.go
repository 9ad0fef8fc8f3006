package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

func int64Ptr(v int64) *int64 { return &v }

func sampleRequests() []*models.CertificateRequest {
	return []*models.CertificateRequest{
		{ID: 1, Status: models.StatusPendingAdviserApproval, Student: models.StudentSummary{ID: 10, Department: "CSE", AdviserID: int64Ptr(100)}},
		{ID: 2, Status: models.StatusPendingHODApproval, Student: models.StudentSummary{ID: 10, Department: "CSE", AdviserID: int64Ptr(100)}},
		{ID: 3, Status: models.StatusPendingHODApproval, Student: models.StudentSummary{ID: 11, Department: "ECE", AdviserID: int64Ptr(101)}},
		{ID: 4, Status: models.StatusReadyForCollection, Student: models.StudentSummary{ID: 12, Department: "CSE"}},
	}
}

func visibleIDs(t *testing.T, actor Actor) []int64 {
	t.Helper()
	scope, err := VisibilityFor(actor)
	require.NoError(t, err)
	var ids []int64
	for _, r := range sampleRequests() {
		if scope.Allows(r) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func TestVisibilityFor(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  []int64
	}{
		{"admin sees everything", Actor{ID: 1, Role: models.RoleAdmin}, []int64{1, 2, 3, 4}},
		{"principal sees everything", Actor{ID: 2, Role: models.RolePrincipal}, []int64{1, 2, 3, 4}},
		{"office staff sees everything", Actor{ID: 3, Role: models.RoleOfficeStaff}, []int64{1, 2, 3, 4}},
		{"adviser sees own students", Actor{ID: 100, Role: models.RoleClassAdviser}, []int64{1, 2}},
		{"adviser without students", Actor{ID: 999, Role: models.RoleClassAdviser}, nil},
		{"hod sees department queue", Actor{ID: 4, Role: models.RoleHOD, Department: "CSE"}, []int64{2}},
		{"hod without department", Actor{ID: 5, Role: models.RoleHOD}, nil},
		{"student sees own", Actor{ID: 12, Role: models.RoleStudent}, []int64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, visibleIDs(t, tt.actor))
		})
	}
}

func TestVisibilityFor_UnknownRole(t *testing.T) {
	scope, err := VisibilityFor(Actor{ID: 1, Role: "janitor"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.True(t, scope.None)
}

func TestScope_ZeroValueMatchesNothing(t *testing.T) {
	for _, r := range sampleRequests() {
		assert.False(t, Scope{}.Allows(r))
	}
}
