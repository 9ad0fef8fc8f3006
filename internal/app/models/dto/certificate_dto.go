package dto

import (
	"mime/multipart"

	"github.com/yigit/certtrack/internal/app/models"
)

// SubmitCertificateRequest is the multipart form of a new request
type SubmitCertificateRequest struct {
	CertificateType string                `form:"certificateType" binding:"required" example:"Bonafide"`
	Purpose         string                `form:"purpose" binding:"required" example:"Bank loan"`
	Notes           string                `form:"notes" example:"Needed by Friday"`
	Document        *multipart.FileHeader `form:"document" swaggerignore:"true"`
}

// ProcessRequest is a staff decision on a request
type ProcessRequest struct {
	Action  string `json:"action" binding:"required,oneof=approve reject collect" example:"approve"`
	Comment string `json:"comment,omitempty" example:"Verified with attendance register"`
}

// CertificateListResponse wraps a listing
type CertificateListResponse struct {
	Requests []*models.CertificateRequest `json:"requests"`
	Count    int                          `json:"count"`
}

// NewCertificateListResponse builds a listing, never with a null slice
func NewCertificateListResponse(reqs []*models.CertificateRequest) CertificateListResponse {
	if reqs == nil {
		reqs = []*models.CertificateRequest{}
	}
	return CertificateListResponse{Requests: reqs, Count: len(reqs)}
}
