package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/certtrack/internal/app/auth"
	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/app/workflow"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/filestorage"
	"github.com/yigit/certtrack/internal/pkg/metrics"
	"github.com/yigit/certtrack/internal/pkg/notifier"
)

// CertificateService runs certificate requests through the approval chain
type CertificateService struct {
	requests RequestStore
	authz    *auth.AuthorizationService
	files    filestorage.Uploader
	events   EventQueue
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(
	requests RequestStore,
	authz *auth.AuthorizationService,
	files filestorage.Uploader,
	events EventQueue,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CertificateService {
	return &CertificateService{
		requests: requests,
		authz:    authz,
		files:    files,
		events:   events,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func certificateTypeList() string {
	names := make([]string, 0, 3)
	for _, t := range models.CertificateTypes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// SubmitRequest files a new request for studentID. The supporting document,
// if any, is uploaded before anything is written; an upload failure leaves no
// trace and a failed insert removes the uploaded file again.
func (s *CertificateService) SubmitRequest(ctx context.Context, studentID int64, in *dto.SubmitCertificateRequest) (*models.CertificateRequest, error) {
	student, _, err := s.authz.ResolveActor(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(student, models.RoleStudent); err != nil {
		return nil, err
	}

	certType := models.CertificateType(strings.TrimSpace(in.CertificateType))
	if !certType.IsValid() {
		return nil, apperrors.NewBadRequestError("certificateType must be one of: " + certificateTypeList())
	}
	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		return nil, apperrors.NewBadRequestError("Purpose is required.")
	}

	now := s.now()
	req := &models.CertificateRequest{
		Student: models.StudentSummary{
			ID:         student.ID,
			Name:       student.Name,
			Email:      student.Email,
			StudentID:  student.StudentIdentifier(),
			Department: student.Department,
			AdviserID:  student.AdviserID,
		},
		CertificateType: certType,
		Purpose:         purpose,
		Notes:           strings.TrimSpace(in.Notes),
		Status:          models.InitialStatus,
	}

	var stored *filestorage.StoredFile
	if in.Document != nil {
		publicID := filestorage.BuildPublicID(student.StudentIdentifier(), in.Document.Filename, now)
		stored, err = s.files.Upload(ctx, in.Document, publicID)
		if err != nil {
			s.logger.Error().Err(err).Int64("studentID", student.ID).Msg("Document upload failed")
			return nil, apperrors.NewUpstreamError("Document upload failed. Please try again.", err)
		}
		req.DocumentURL = stored.URL
		req.DocumentPublicID = stored.PublicID
	}

	first := models.Remark{
		Status:    models.InitialStatus,
		UpdatedBy: student.ActorLabel(),
		Date:      now,
		Comment:   workflow.SubmissionComment,
	}
	if err := s.requests.Create(ctx, req, first); err != nil {
		if stored != nil {
			if delErr := s.files.Delete(ctx, stored.PublicID); delErr != nil {
				s.logger.Warn().Err(delErr).Str("publicID", stored.PublicID).Msg("Failed to remove orphaned document")
			}
		}
		return nil, err
	}

	s.metrics.RequestSubmitted(string(certType))
	s.logger.Info().
		Int64("requestID", req.ID).
		Int64("studentID", student.ID).
		Str("certificateType", string(certType)).
		Msg("Certificate request submitted")
	return req, nil
}

// MyRequests lists the student's own requests, newest first
func (s *CertificateService) MyRequests(ctx context.Context, studentID int64) ([]*models.CertificateRequest, error) {
	return s.requests.List(ctx, workflow.MyRequests(studentID))
}

// ListVisible lists the requests the actor's role may see
func (s *CertificateService) ListVisible(ctx context.Context, actorID int64) ([]*models.CertificateRequest, error) {
	_, actor, err := s.authz.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope, err := workflow.VisibilityFor(actor)
	if err != nil {
		return nil, err
	}
	return s.requests.List(ctx, scope)
}

// ProcessRequest applies a staff decision to request id and records it as a remark
func (s *CertificateService) ProcessRequest(ctx context.Context, actorID, requestID int64, rawAction, comment string) (*models.CertificateRequest, error) {
	user, _, err := s.authz.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	action, err := workflow.ParseAction(rawAction)
	if err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	from := req.Status
	to, err := workflow.Next(from, user.Role, action, comment)
	if err != nil {
		return nil, err
	}

	remark := models.Remark{
		Status:    to,
		UpdatedBy: user.ActorLabel(),
		Date:      s.now(),
		Comment:   workflow.CommentFor(comment),
	}
	updated, err := s.requests.ApplyTransition(ctx, requestID, from, to, remark)
	if err != nil {
		return nil, err
	}

	s.metrics.TransitionApplied(string(user.Role), string(action), string(to))
	s.logger.Info().
		Int64("requestID", requestID).
		Int64("actorID", user.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Certificate request processed")

	s.events.Enqueue(notifier.Event{
		Kind:            notifier.KindStatusChanged,
		RequestID:       updated.ID,
		CertificateType: string(updated.CertificateType),
		PreviousStatus:  string(from),
		Status:          string(to),
		Comment:         remark.Comment,
		UpdatedBy:       remark.UpdatedBy,
		UserID:          updated.Student.ID,
		UserName:        updated.Student.Name,
		UserEmail:       updated.Student.Email,
		OccurredAt:      remark.Date,
	})

	return updated, nil
}
