// Package workflow holds the certificate request approval chain and the
// rules deciding which requests each role may see. Everything here is pure:
// no storage, no I/O.
package workflow

import (
	"sort"
	"strings"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

// Action is a staff decision applied to a request
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCollect Action = "collect"
)

// DefaultComment is recorded when an approve or collect carries no comment.
const DefaultComment = "Request was processed."

// SubmissionComment is the comment of the first remark of every request.
const SubmissionComment = "Request submitted by student."

// ParseAction validates a raw action string. Matching is exact.
func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionApprove, ActionReject, ActionCollect:
		return a, nil
	default:
		return "", apperrors.NewInvalidTransitionError("Unknown action '%s'. Expected approve, reject or collect.", raw)
	}
}

type edge struct {
	role   models.RoleType
	action Action
	from   models.RequestStatus
}

// Transition is one legal edge of the approval chain
type Transition struct {
	Role   models.RoleType
	Action Action
	From   models.RequestStatus
	To     models.RequestStatus
}

var table = buildTable()

func buildTable() map[edge]models.RequestStatus {
	t := map[edge]models.RequestStatus{
		{models.RoleClassAdviser, ActionApprove, models.StatusPendingAdviserApproval}:  models.StatusPendingHODApproval,
		{models.RoleHOD, ActionApprove, models.StatusPendingHODApproval}:               models.StatusPendingPrincipalApproval,
		{models.RolePrincipal, ActionApprove, models.StatusPendingPrincipalApproval}:   models.StatusReadyForCollection,
		{models.RoleOfficeStaff, ActionCollect, models.StatusReadyForCollection}:       models.StatusCollected,
	}
	for _, role := range models.StaffRoles() {
		for _, from := range models.ActiveStatuses() {
			t[edge{role, ActionReject, from}] = models.StatusRejected
		}
	}
	return t
}

// Next computes the status reached when role applies action to a request in
// status from. It returns ErrInvalidTransition for any combination outside the
// table and for a reject whose comment is blank.
func Next(from models.RequestStatus, role models.RoleType, action Action, comment string) (models.RequestStatus, error) {
	if action == ActionReject && strings.TrimSpace(comment) == "" {
		return "", apperrors.NewInvalidTransitionError("A comment is required to reject a request.")
	}

	to, ok := table[edge{role, action, from}]
	if !ok {
		if from.IsTerminal() {
			return "", apperrors.NewInvalidTransitionError("Request is already '%s' and cannot be processed further.", from)
		}
		switch action {
		case ActionApprove:
			return "", apperrors.NewInvalidTransitionError("Approval from a %s is not applicable at the '%s' status.", role, from)
		case ActionCollect:
			return "", apperrors.NewInvalidTransitionError("Collection by a %s is not applicable at the '%s' status.", role, from)
		case ActionReject:
			return "", apperrors.NewInvalidTransitionError("A %s cannot reject requests.", role)
		default:
			return "", apperrors.NewInvalidTransitionError("Unknown action '%s'.", action)
		}
	}
	return to, nil
}

// CommentFor returns the remark comment to record for a successful transition.
func CommentFor(comment string) string {
	if c := strings.TrimSpace(comment); c != "" {
		return c
	}
	return DefaultComment
}

// IsTerminal reports whether status accepts no further actions.
func IsTerminal(status models.RequestStatus) bool {
	return status.IsTerminal()
}

// Transitions lists every legal edge, ordered by role, action and source status.
func Transitions() []Transition {
	out := make([]Transition, 0, len(table))
	for e, to := range table {
		out = append(out, Transition{Role: e.role, Action: e.action, From: e.from, To: to})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		return a.From < b.From
	})
	return out
}
