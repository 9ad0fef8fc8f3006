package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/workflow"
	"github.com/yigit/certtrack/internal/db"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/logger"
)

var requestColumns = []string{
	"r.id", "r.certificate_type", "r.purpose", "r.notes", "r.document_url", "r.document_public_id",
	"r.status", "r.created_at", "r.updated_at",
	"u.id", "u.name", "u.email", "COALESCE(u.student_id, '')", "u.department", "u.adviser_id",
}

// CertificateRequestRepository stores requests and their append-only remarks
type CertificateRequestRepository struct {
	db Querier
	sb squirrel.StatementBuilderType
}

// NewCertificateRequestRepository creates a new CertificateRequestRepository
func NewCertificateRequestRepository(db Querier) *CertificateRequestRepository {
	return &CertificateRequestRepository{
		db: db,
		sb: statementBuilder(),
	}
}

func (r *CertificateRequestRepository) selectRequests() squirrel.SelectBuilder {
	return r.sb.Select(requestColumns...).
		From("certificate_requests r").
		Join("users u ON u.id = r.student_id")
}

// scopePredicate renders a visibility scope as a WHERE clause. ok is false when
// the scope matches nothing; a nil predicate with ok true means no filter.
func scopePredicate(scope workflow.Scope) (pred squirrel.Sqlizer, ok bool) {
	if scope.None {
		return nil, false
	}
	if scope.All {
		return nil, true
	}

	conds := squirrel.And{}
	if scope.StudentID != nil {
		conds = append(conds, squirrel.Eq{"r.student_id": *scope.StudentID})
	}
	if scope.AdviserID != nil {
		conds = append(conds, squirrel.Eq{"u.adviser_id": *scope.AdviserID})
	}
	if scope.Department != "" {
		conds = append(conds, squirrel.Eq{"u.department": scope.Department})
	}
	if scope.Status != "" {
		conds = append(conds, squirrel.Eq{"r.status": scope.Status})
	}
	if len(conds) == 0 {
		return nil, false
	}
	return conds, true
}

// buildListQuery returns the listing SQL for scope, newest first
func (r *CertificateRequestRepository) buildListQuery(scope workflow.Scope) (string, []interface{}, bool, error) {
	pred, ok := scopePredicate(scope)
	if !ok {
		return "", nil, false, nil
	}

	q := r.selectRequests()
	if pred != nil {
		q = q.Where(pred)
	}
	sql, args, err := q.OrderBy("r.created_at DESC", "r.id DESC").ToSql()
	return sql, args, true, err
}

func scanRequest(row pgx.Row) (*models.CertificateRequest, error) {
	req := &models.CertificateRequest{}
	err := row.Scan(
		&req.ID, &req.CertificateType, &req.Purpose, &req.Notes, &req.DocumentURL, &req.DocumentPublicID,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
		&req.Student.ID, &req.Student.Name, &req.Student.Email, &req.Student.StudentID,
		&req.Student.Department, &req.Student.AdviserID,
	)
	if err != nil {
		return nil, err
	}
	req.Remarks = []models.Remark{}
	return req, nil
}

// Create inserts req and its first remark in one transaction
func (r *CertificateRequestRepository) Create(ctx context.Context, req *models.CertificateRequest, first models.Remark) error {
	insertReq, reqArgs, err := r.sb.Insert("certificate_requests").
		Columns("student_id", "certificate_type", "purpose", "notes", "document_url", "document_public_id", "status").
		Values(req.Student.ID, req.CertificateType, req.Purpose, req.Notes, req.DocumentURL, req.DocumentPublicID, first.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create request query: %w", err)
	}

	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertReq, reqArgs...).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return fmt.Errorf("error creating certificate request: %w", err)
		}
		remark, err := r.insertRemark(ctx, tx, req.ID, first)
		if err != nil {
			return err
		}
		req.Status = first.Status
		req.Remarks = []models.Remark{remark}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int64("studentID", req.Student.ID).Msg("Error creating certificate request")
		return err
	}
	return nil
}

func (r *CertificateRequestRepository) insertRemark(ctx context.Context, q Querier, requestID int64, remark models.Remark) (models.Remark, error) {
	sql, args, err := r.sb.Insert("certificate_request_remarks").
		Columns("request_id", "status", "updated_by", "comment").
		Values(requestID, remark.Status, remark.UpdatedBy, remark.Comment).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return remark, fmt.Errorf("failed to build insert remark query: %w", err)
	}
	if err := q.QueryRow(ctx, sql, args...).Scan(&remark.ID, &remark.Date); err != nil {
		return remark, fmt.Errorf("error appending remark: %w", err)
	}
	return remark, nil
}

// GetByID loads one request with its remarks
func (r *CertificateRequestRepository) GetByID(ctx context.Context, id int64) (*models.CertificateRequest, error) {
	sql, args, err := r.selectRequests().Where(squirrel.Eq{"r.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get request query: %w", err)
	}

	req, err := scanRequest(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("error getting certificate request: %w", err)
	}

	if err := r.loadRemarks(ctx, []*models.CertificateRequest{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns the requests inside scope, newest first
func (r *CertificateRequestRepository) List(ctx context.Context, scope workflow.Scope) ([]*models.CertificateRequest, error) {
	sql, args, ok, err := r.buildListQuery(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to build list requests query: %w", err)
	}
	if !ok {
		return []*models.CertificateRequest{}, nil
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying certificate requests: %w", err)
	}
	defer rows.Close()

	requests := []*models.CertificateRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning certificate request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating certificate request rows: %w", err)
	}

	if err := r.loadRemarks(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// loadRemarks fills the remarks of every request with a single query
func (r *CertificateRequestRepository) loadRemarks(ctx context.Context, requests []*models.CertificateRequest) error {
	if len(requests) == 0 {
		return nil
	}
	byID := make(map[int64]*models.CertificateRequest, len(requests))
	ids := make([]int64, 0, len(requests))
	for _, req := range requests {
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	sql, args, err := r.sb.Select("id", "request_id", "status", "updated_by", "comment", "created_at").
		From("certificate_request_remarks").
		Where(squirrel.Eq{"request_id": ids}).
		OrderBy("request_id", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build remarks query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error querying remarks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			remark    models.Remark
			requestID int64
		)
		if err := rows.Scan(&remark.ID, &requestID, &remark.Status, &remark.UpdatedBy, &remark.Comment, &remark.Date); err != nil {
			return fmt.Errorf("error scanning remark row: %w", err)
		}
		if req, ok := byID[requestID]; ok {
			req.Remarks = append(req.Remarks, remark)
		}
	}
	return rows.Err()
}

// ApplyTransition moves request id from one status to another and appends
// remark, atomically. The update only matches while the stored status is
// still from; otherwise a conflict is reported and nothing changes.
func (r *CertificateRequestRepository) ApplyTransition(ctx context.Context, id int64, from, to models.RequestStatus, remark models.Remark) (*models.CertificateRequest, error) {
	update, args, err := r.sb.Update("certificate_requests").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transition query: %w", err)
	}

	remark.Status = to
	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("error updating request status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM certificate_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("error checking request existence: %w", err)
			}
			if !exists {
				return apperrors.ErrRequestNotFound
			}
			return apperrors.NewConflictError(fmt.Sprintf("Request is no longer at the '%s' status. Reload and try again.", from))
		}
		_, err = r.insertRemark(ctx, tx, id, remark)
		return err
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// CountAll returns the number of requests
func (r *CertificateRequestRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM certificate_requests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting certificate requests: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of requests per status; absent statuses count zero
func (r *CertificateRequestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	sql, args, err := r.sb.Select("status", "COUNT(*)").
		From("certificate_requests").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status count query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RequestStatus]int64, len(models.AllStatuses()))
	for _, s := range models.AllStatuses() {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status models.RequestStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
