package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/middleware"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

// CertificateService is what the certificate endpoints need from the service layer
type CertificateService interface {
	SubmitRequest(ctx context.Context, studentID int64, in *dto.SubmitCertificateRequest) (*models.CertificateRequest, error)
	MyRequests(ctx context.Context, studentID int64) ([]*models.CertificateRequest, error)
	ListVisible(ctx context.Context, actorID int64) ([]*models.CertificateRequest, error)
	ProcessRequest(ctx context.Context, actorID, requestID int64, action, comment string) (*models.CertificateRequest, error)
}

// CertificateController handles certificate request endpoints
type CertificateController struct {
	certService CertificateService
	logger      zerolog.Logger
}

// NewCertificateController creates a new CertificateController
func NewCertificateController(certService CertificateService, logger zerolog.Logger) *CertificateController {
	return &CertificateController{certService: certService, logger: logger}
}

func currentUser(ctx *gin.Context) (int64, bool) {
	id, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenNotFound)
	}
	return id, ok
}

// SubmitRequest godoc
// @Summary Submit a certificate request
// @Description Students file a request with an optional supporting document. The document is stored before the request is saved.
// @Tags certificates
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param certificateType formData string true "Bonafide, Transfer Certificate or Marksheet Copy"
// @Param purpose formData string true "Why the certificate is needed"
// @Param notes formData string false "Extra notes"
// @Param document formData file false "Supporting document"
// @Success 201 {object} dto.APIResponse{data=models.CertificateRequest}
// @Failure 400 {object} dto.ErrorResponse "Invalid certificate type or purpose"
// @Failure 403 {object} dto.ErrorResponse "Students only"
// @Failure 502 {object} dto.ErrorResponse "Document upload failed"
// @Router /certificates/request [post]
func (c *CertificateController) SubmitRequest(ctx *gin.Context) {
	studentID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var in dto.SubmitCertificateRequest
	if !middleware.BindForm(ctx, &in) {
		return
	}

	req, err := c.certService.SubmitRequest(ctx.Request.Context(), studentID, &in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:    req,
		Message: "Certificate request submitted successfully",
	})
}

// MyRequests godoc
// @Summary List my certificate requests
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CertificateListResponse}
// @Failure 403 {object} dto.ErrorResponse "Students only"
// @Router /certificates/my-requests [get]
func (c *CertificateController) MyRequests(ctx *gin.Context) {
	studentID, ok := currentUser(ctx)
	if !ok {
		return
	}
	reqs, err := c.certService.MyRequests(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewDataResponse(dto.NewCertificateListResponse(reqs)))
}

// ListAll godoc
// @Summary List requests visible to staff
// @Description Advisers see their students' requests, HODs see their department's queue awaiting HOD approval, principal, office staff and admins see everything.
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CertificateListResponse}
// @Failure 403 {object} dto.ErrorResponse "Staff only"
// @Router /certificates/all [get]
func (c *CertificateController) ListAll(ctx *gin.Context) {
	actorID, ok := currentUser(ctx)
	if !ok {
		return
	}
	reqs, err := c.certService.ListVisible(ctx.Request.Context(), actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewDataResponse(dto.NewCertificateListResponse(reqs)))
}

// ProcessRequest godoc
// @Summary Approve, reject or collect a request
// @Description Applies the caller's decision according to the approval chain. Rejections need a comment.
// @Tags certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body dto.ProcessRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.CertificateRequest}
// @Failure 400 {object} dto.ErrorResponse "Transition not allowed"
// @Failure 403 {object} dto.ErrorResponse "Staff only"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Request changed concurrently"
// @Router /certificates/{id}/process [put]
func (c *CertificateController) ProcessRequest(ctx *gin.Context) {
	actorID, ok := currentUser(ctx)
	if !ok {
		return
	}
	requestID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var body dto.ProcessRequest
	if !middleware.BindJSON(ctx, &body) {
		return
	}

	req, err := c.certService.ProcessRequest(ctx.Request.Context(), actorID, requestID, body.Action, body.Comment)
	if err != nil {
		c.logger.Warn().Err(err).Int64("requestID", requestID).Int64("actorID", actorID).Str("action", body.Action).Msg("Process request failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:    req,
		Message: "Request updated successfully",
	})
}
