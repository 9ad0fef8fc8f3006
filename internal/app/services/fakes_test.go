package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/workflow"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
	"github.com/yigit/certtrack/internal/pkg/filestorage"
	"github.com/yigit/certtrack/internal/pkg/notifier"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type fakeUserStore struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	nextID    int64
	resets    map[string]int64
	resetExp  map[string]time.Time
	requestOf func(id int64) bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:    make(map[int64]*models.User),
		nextID:   1,
		resets:   make(map[string]int64),
		resetExp: make(map[string]time.Time),
	}
}

func (f *fakeUserStore) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	cp := *u
	f.users[u.ID] = &cp
	return u
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if user.StudentID != nil && u.StudentID != nil && *u.StudentID == *user.StudentID {
			return apperrors.ErrStudentIDAlreadyExists
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt, user.UpdatedAt = fixedNow, fixedNow
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) ListUsers(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	for id, u := range f.users {
		if id != user.ID && u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if id != user.ID && user.StudentID != nil && u.StudentID != nil && *u.StudentID == *user.StudentID {
			return apperrors.ErrStudentIDAlreadyExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	if user.Role != models.RoleClassAdviser {
		for _, u := range f.users {
			if u.AdviserID != nil && *u.AdviserID == user.ID {
				u.AdviserID = nil
			}
		}
	}
	return nil
}

func (f *fakeUserStore) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	if f.requestOf != nil && f.requestOf(id) {
		return apperrors.ErrUserHasRequests
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) AssignAdviser(_ context.Context, studentID, adviserID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[studentID]
	if !ok || u.Role != models.RoleStudent {
		return apperrors.ErrUserNotFound
	}
	u.AdviserID = &adviserID
	return nil
}

func (f *fakeUserStore) SetPasswordResetToken(_ context.Context, userID int64, tokenHash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return apperrors.ErrUserNotFound
	}
	f.resets[tokenHash] = userID
	f.resetExp[tokenHash] = expires
	return nil
}

func (f *fakeUserStore) ResetPasswordByToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.resets[tokenHash]
	if !ok || !f.resetExp[tokenHash].After(now) {
		return 0, apperrors.ErrInvalidPasswordResetToken
	}
	delete(f.resets, tokenHash)
	delete(f.resetExp, tokenHash)
	f.users[id].Password = passwordHash
	return id, nil
}

func (f *fakeUserStore) CountUsers(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

type fakeRequestStore struct {
	mu        sync.Mutex
	requests  map[int64]*models.CertificateRequest
	nextID    int64
	createErr error
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[int64]*models.CertificateRequest), nextID: 1}
}

func (f *fakeRequestStore) Create(_ context.Context, req *models.CertificateRequest, first models.Remark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	req.ID = f.nextID
	f.nextID++
	req.Status = first.Status
	req.CreatedAt, req.UpdatedAt = fixedNow, fixedNow
	first.ID = 1
	req.Remarks = []models.Remark{first}
	f.requests[req.ID] = req.Clone()
	return nil
}

func (f *fakeRequestStore) GetByID(_ context.Context, id int64) (*models.CertificateRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (f *fakeRequestStore) List(_ context.Context, scope workflow.Scope) ([]*models.CertificateRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.CertificateRequest{}
	for _, req := range f.requests {
		if scope.Allows(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRequestStore) ApplyTransition(_ context.Context, id int64, from, to models.RequestStatus, remark models.Remark) (*models.CertificateRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrRequestNotFound
	}
	if req.Status != from {
		return nil, apperrors.NewConflictError(fmt.Sprintf("Request is no longer at the '%s' status. Reload and try again.", from))
	}
	remark.Status = to
	remark.ID = int64(len(req.Remarks) + 1)
	req.Status = to
	req.Remarks = append(req.Remarks, remark)
	return req.Clone(), nil
}

func (f *fakeRequestStore) CountAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.requests)), nil
}

func (f *fakeRequestStore) CountByStatus(_ context.Context) (map[models.RequestStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[models.RequestStatus]int64)
	for _, s := range models.AllStatuses() {
		out[s] = 0
	}
	for _, req := range f.requests {
		out[req.Status]++
	}
	return out, nil
}

func (f *fakeRequestStore) hasRequestsFor(studentID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.Student.ID == studentID {
			return true
		}
	}
	return false
}

type recordingQueue struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (q *recordingQueue) Enqueue(event notifier.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return true
}

func (q *recordingQueue) all() []notifier.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]notifier.Event(nil), q.events...)
}

type fakeUploader struct {
	uploadErr error
	uploaded  []string
	deleted   []string
}

func (u *fakeUploader) Upload(_ context.Context, fh *multipart.FileHeader, publicID string) (*filestorage.StoredFile, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	u.uploaded = append(u.uploaded, publicID)
	return &filestorage.StoredFile{
		URL:      "http://files.test/uploads/" + publicID + ".pdf",
		PublicID: publicID + ".pdf",
		FileSize: fh.Size,
		MimeType: "application/pdf",
	}, nil
}

func (u *fakeUploader) Delete(_ context.Context, publicID string) error {
	u.deleted = append(u.deleted, publicID)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(user *models.User) (string, int, error) {
	return fmt.Sprintf("token-%d", user.ID), 3600, nil
}

type fakeMailer struct {
	err  error
	sent []string
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, toEmail, resetURL string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, toEmail+" "+resetURL)
	return nil
}

var errBoom = errors.New("boom")
