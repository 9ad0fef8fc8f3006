package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent      RoleType = "student"
	RoleClassAdviser RoleType = "classAdviser"
	RoleHOD          RoleType = "hod"
	RolePrincipal    RoleType = "principal"
	RoleOfficeStaff  RoleType = "officeStaff"
	RoleAdmin        RoleType = "admin"
)

var allRoles = []RoleType{
	RoleStudent,
	RoleClassAdviser,
	RoleHOD,
	RolePrincipal,
	RoleOfficeStaff,
	RoleAdmin,
}

// staffRoles are the roles that take part in the approval chain.
var staffRoles = []RoleType{
	RoleClassAdviser,
	RoleHOD,
	RolePrincipal,
	RoleOfficeStaff,
}

// AllRoles returns every known role.
func AllRoles() []RoleType {
	return append([]RoleType(nil), allRoles...)
}

// StaffRoles returns the approval-chain roles in chain order.
func StaffRoles() []RoleType {
	return append([]RoleType(nil), staffRoles...)
}

// IsValid reports whether r is a known role.
func (r RoleType) IsValid() bool {
	for _, role := range allRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether r takes part in the approval chain.
func (r RoleType) IsStaff() bool {
	for _, role := range staffRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RequestStatus is the workflow state of a certificate request
type RequestStatus string

const (
	StatusPendingAdviserApproval   RequestStatus = "Pending Adviser Approval"
	StatusPendingHODApproval       RequestStatus = "Pending HOD Approval"
	StatusPendingPrincipalApproval RequestStatus = "Pending Principal Approval"
	StatusReadyForCollection       RequestStatus = "Ready for Collection"
	StatusCollected                RequestStatus = "Collected"
	StatusRejected                 RequestStatus = "Rejected"
)

// InitialStatus is the status of every newly submitted request.
const InitialStatus = StatusPendingAdviserApproval

var allStatuses = []RequestStatus{
	StatusPendingAdviserApproval,
	StatusPendingHODApproval,
	StatusPendingPrincipalApproval,
	StatusReadyForCollection,
	StatusCollected,
	StatusRejected,
}

// AllStatuses returns every status in chain order, terminal states last.
func AllStatuses() []RequestStatus {
	return append([]RequestStatus(nil), allStatuses...)
}

// ActiveStatuses returns the non-terminal statuses.
func ActiveStatuses() []RequestStatus {
	active := make([]RequestStatus, 0, len(allStatuses))
	for _, s := range allStatuses {
		if !s.IsTerminal() {
			active = append(active, s)
		}
	}
	return active
}

// IsValid reports whether s is a known status.
func (s RequestStatus) IsValid() bool {
	for _, status := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCollected || s == StatusRejected
}

// CertificateType is the kind of document a student asks for
type CertificateType string

const (
	CertificateBonafide            CertificateType = "Bonafide"
	CertificateTransferCertificate CertificateType = "Transfer Certificate"
	CertificateMarksheetCopy       CertificateType = "Marksheet Copy"
)

// CertificateTypes returns the accepted certificate types.
func CertificateTypes() []CertificateType {
	return []CertificateType{CertificateBonafide, CertificateTransferCertificate, CertificateMarksheetCopy}
}

// IsValid reports whether t is one of the accepted certificate types.
func (t CertificateType) IsValid() bool {
	for _, ct := range CertificateTypes() {
		if t == ct {
			return true
		}
	}
	return false
}
