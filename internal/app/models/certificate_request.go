package models

import "time"

// Remark is one entry of a request's append-only audit trail
type Remark struct {
	ID        int64         `json:"-" db:"id"`
	Status    RequestStatus `json:"status" db:"status" example:"Pending HOD Approval"`
	UpdatedBy string        `json:"updatedBy" db:"updated_by" example:"R. Kumar (classAdviser)"`
	Date      time.Time     `json:"date" db:"created_at"`
	Comment   string        `json:"comment" db:"comment" example:"Request was processed."`
}

// StudentSummary is the owning student as embedded in a request listing
type StudentSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	StudentID  string `json:"studentId,omitempty"`
	Department string `json:"department,omitempty"`
	AdviserID  *int64 `json:"adviserId,omitempty"`
}

// CertificateRequest defines the model based on the 'certificate_requests' table
type CertificateRequest struct {
	ID               int64           `json:"id" db:"id"`
	Student          StudentSummary  `json:"student"`
	CertificateType  CertificateType `json:"certificateType" db:"certificate_type" example:"Bonafide"`
	Purpose          string          `json:"purpose" db:"purpose" example:"Scholarship"`
	Notes            string          `json:"notes,omitempty" db:"notes"`
	DocumentURL      string          `json:"documentUrl,omitempty" db:"document_url"`
	DocumentPublicID string          `json:"documentPublicId,omitempty" db:"document_public_id"`
	Status           RequestStatus   `json:"status" db:"status" example:"Pending Adviser Approval"`
	Remarks          []Remark        `json:"remarks"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// LastRemark returns the most recent remark, or nil when none is loaded.
func (r *CertificateRequest) LastRemark() *Remark {
	if len(r.Remarks) == 0 {
		return nil
	}
	return &r.Remarks[len(r.Remarks)-1]
}

// Clone returns a copy that does not share the remarks slice.
func (r *CertificateRequest) Clone() *CertificateRequest {
	c := *r
	c.Remarks = append([]Remark(nil), r.Remarks...)
	return &c
}
