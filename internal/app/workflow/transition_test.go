package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

func TestNext_ApprovalChain(t *testing.T) {
	steps := []struct {
		role   models.RoleType
		action Action
		want   models.RequestStatus
	}{
		{models.RoleClassAdviser, ActionApprove, models.StatusPendingHODApproval},
		{models.RoleHOD, ActionApprove, models.StatusPendingPrincipalApproval},
		{models.RolePrincipal, ActionApprove, models.StatusReadyForCollection},
		{models.RoleOfficeStaff, ActionCollect, models.StatusCollected},
	}

	status := models.InitialStatus
	for _, step := range steps {
		next, err := Next(status, step.role, step.action, "")
		require.NoError(t, err, "%s %s from %s", step.role, step.action, status)
		assert.Equal(t, step.want, next)
		status = next
	}
	assert.True(t, IsTerminal(status))
}

func TestNext_OnlyTableEdgesAreLegal(t *testing.T) {
	legal := make(map[edge]models.RequestStatus)
	for _, tr := range Transitions() {
		legal[edge{tr.Role, tr.Action, tr.From}] = tr.To
	}

	actions := []Action{ActionApprove, ActionReject, ActionCollect}
	for _, role := range models.AllRoles() {
		for _, action := range actions {
			for _, from := range models.AllStatuses() {
				to, err := Next(from, role, action, "some comment")
				want, ok := legal[edge{role, action, from}]
				if ok {
					require.NoError(t, err, "%s %s from %s", role, action, from)
					assert.Equal(t, want, to)
					continue
				}
				require.Error(t, err, "%s %s from %s", role, action, from)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
				assert.Empty(t, to)
			}
		}
	}
}

func TestNext_RejectFromEveryActiveStatusByEveryStaffRole(t *testing.T) {
	for _, role := range models.StaffRoles() {
		for _, from := range models.ActiveStatuses() {
			to, err := Next(from, role, ActionReject, "Missing documents")
			require.NoError(t, err, "%s reject from %s", role, from)
			assert.Equal(t, models.StatusRejected, to)
		}
	}
}

func TestNext_RejectRequiresComment(t *testing.T) {
	for _, comment := range []string{"", "   ", "\t\n"} {
		for _, role := range models.AllRoles() {
			for _, from := range models.AllStatuses() {
				_, err := Next(from, role, ActionReject, comment)
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
			}
		}
	}
}

func TestNext_TerminalStatesAreClosed(t *testing.T) {
	for _, from := range []models.RequestStatus{models.StatusCollected, models.StatusRejected} {
		for _, role := range models.AllRoles() {
			_, err := Next(from, role, ActionReject, "late")
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
			_, err = Next(from, role, ActionApprove, "")
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		}
	}
}

func TestNext_HODCannotCollect(t *testing.T) {
	_, err := Next(models.StatusPendingHODApproval, models.RoleHOD, ActionCollect, "")
	require.Error(t, err)
	assert.Equal(t, "Collection by a hod is not applicable at the 'Pending HOD Approval' status.", err.Error())
}

func TestNext_StudentsAndAdminsCannotAct(t *testing.T) {
	for _, role := range []models.RoleType{models.RoleStudent, models.RoleAdmin} {
		_, err := Next(models.StatusPendingAdviserApproval, role, ActionReject, "no")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	}
}

func TestParseAction(t *testing.T) {
	for _, raw := range []string{"approve", "reject", "collect"} {
		a, err := ParseAction(raw)
		require.NoError(t, err)
		assert.Equal(t, Action(raw), a)
	}

	for _, raw := range []string{"escalate", "Approve", " approve ", "COLLECT", ""} {
		_, err := ParseAction(raw)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, raw)
	}
}

func TestCommentFor(t *testing.T) {
	assert.Equal(t, DefaultComment, CommentFor("  "))
	assert.Equal(t, "Looks good", CommentFor(" Looks good "))
}

func TestTransitions_Count(t *testing.T) {
	// four forward edges plus a reject edge per staff role per active status
	want := 4 + len(models.StaffRoles())*len(models.ActiveStatuses())
	assert.Len(t, Transitions(), want)
}
