package workflow

import (
	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

// Actor is the authenticated user a listing is computed for
type Actor struct {
	ID         int64
	Role       models.RoleType
	Department string
}

// Scope restricts a request listing. The zero value matches nothing; All
// disables every other field.
type Scope struct {
	All        bool
	None       bool
	StudentID  *int64
	AdviserID  *int64
	Department string
	Status     models.RequestStatus
}

// VisibilityFor returns the requests an actor may list from the staff queue.
func VisibilityFor(actor Actor) (Scope, error) {
	switch actor.Role {
	case models.RoleAdmin, models.RolePrincipal, models.RoleOfficeStaff:
		return Scope{All: true}, nil
	case models.RoleClassAdviser:
		id := actor.ID
		return Scope{AdviserID: &id}, nil
	case models.RoleHOD:
		if actor.Department == "" {
			return Scope{None: true}, nil
		}
		return Scope{Department: actor.Department, Status: models.StatusPendingHODApproval}, nil
	case models.RoleStudent:
		return MyRequests(actor.ID), nil
	default:
		return Scope{None: true}, apperrors.NewForbiddenError("Your role cannot list certificate requests.")
	}
}

// MyRequests is the scope of a student's own requests.
func MyRequests(studentID int64) Scope {
	return Scope{StudentID: &studentID}
}

// Allows reports whether req falls inside the scope. Stores that cannot push
// the scope down to a query filter with it.
func (s Scope) Allows(req *models.CertificateRequest) bool {
	if s.None {
		return false
	}
	if s.All {
		return true
	}
	if s.StudentID != nil && req.Student.ID != *s.StudentID {
		return false
	}
	if s.AdviserID != nil && (req.Student.AdviserID == nil || *req.Student.AdviserID != *s.AdviserID) {
		return false
	}
	if s.Department != "" && req.Student.Department != s.Department {
		return false
	}
	if s.Status != "" && req.Status != s.Status {
		return false
	}
	return s.StudentID != nil || s.AdviserID != nil || s.Department != "" || s.Status != ""
}
