package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/middleware"
	"github.com/yigit/certtrack/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.UseJSONFieldNames()
}

type stubCertService struct {
	submitted *dto.SubmitCertificateRequest
	actorID   int64
	requestID int64
	action    string
	comment   string
	err       error
	list      []*models.CertificateRequest
}

func (s *stubCertService) SubmitRequest(_ context.Context, studentID int64, in *dto.SubmitCertificateRequest) (*models.CertificateRequest, error) {
	s.actorID = studentID
	s.submitted = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.CertificateRequest{ID: 1, CertificateType: models.CertificateType(in.CertificateType), Status: models.InitialStatus}, nil
}

func (s *stubCertService) MyRequests(_ context.Context, studentID int64) ([]*models.CertificateRequest, error) {
	s.actorID = studentID
	return s.list, s.err
}

func (s *stubCertService) ListVisible(_ context.Context, actorID int64) ([]*models.CertificateRequest, error) {
	s.actorID = actorID
	return s.list, s.err
}

func (s *stubCertService) ProcessRequest(_ context.Context, actorID, requestID int64, action, comment string) (*models.CertificateRequest, error) {
	s.actorID, s.requestID, s.action, s.comment = actorID, requestID, action, comment
	if s.err != nil {
		return nil, s.err
	}
	return &models.CertificateRequest{ID: requestID, Status: models.StatusPendingHODApproval}, nil
}

// asUser stands in for JWTAuth
func asUser(id int64, role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func certRouter(svc CertificateService, userID int64) *gin.Engine {
	ctrl := NewCertificateController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/api/certificates", asUser(userID, models.RoleStudent))
	g.POST("/request", ctrl.SubmitRequest)
	g.GET("/my-requests", ctrl.MyRequests)
	g.GET("/all", ctrl.ListAll)
	g.PUT("/:id/process", ctrl.ProcessRequest)
	return r
}

func TestCertificateController_SubmitMultipart(t *testing.T) {
	svc := &stubCertService{}
	router := certRouter(svc, 12)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("certificateType", "Bonafide"))
	require.NoError(t, mw.WriteField("purpose", "Bank loan"))
	fw, err := mw.CreateFormFile("document", "proof.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/certificates/request", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(12), svc.actorID)
	require.NotNil(t, svc.submitted)
	assert.Equal(t, "Bank loan", svc.submitted.Purpose)
	require.NotNil(t, svc.submitted.Document)
	assert.Equal(t, "proof.pdf", svc.submitted.Document.Filename)
}

func TestCertificateController_SubmitMissingPurpose(t *testing.T) {
	svc := &stubCertService{}
	router := certRouter(svc, 12)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/certificates/request", strings.NewReader("certificateType=Bonafide"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.submitted)
}

func TestCertificateController_Process(t *testing.T) {
	svc := &stubCertService{}
	router := certRouter(svc, 3)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/certificates/41/process", strings.NewReader(`{"action":"approve","comment":"ok"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), svc.actorID)
	assert.Equal(t, int64(41), svc.requestID)
	assert.Equal(t, "approve", svc.action)
	assert.Equal(t, "ok", svc.comment)
}

func TestCertificateController_ProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{"non numeric id", "/api/certificates/abc/process", `{"action":"approve"}`, nil, http.StatusBadRequest},
		{"unknown action", "/api/certificates/1/process", `{"action":"escalate"}`, nil, http.StatusBadRequest},
		{"illegal transition", "/api/certificates/1/process", `{"action":"collect"}`, apperrors.NewInvalidTransitionError("Collection by a hod is not applicable at the 'Pending HOD Approval' status."), http.StatusBadRequest},
		{"missing request", "/api/certificates/1/process", `{"action":"approve"}`, apperrors.ErrRequestNotFound, http.StatusNotFound},
		{"stale status", "/api/certificates/1/process", `{"action":"approve"}`, apperrors.NewConflictError("stale"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := certRouter(&stubCertService{err: tt.err}, 3)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCertificateController_ListsNeverNull(t *testing.T) {
	router := certRouter(&stubCertService{}, 5)

	for _, path := range []string{"/api/certificates/my-requests", "/api/certificates/all"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"requests":[],"count":0}}`, w.Body.String())
	}
}

type stubAuthService struct {
	forgotErr error
	email     string
}

func (s *stubAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	return &dto.AuthResponse{User: dto.UserResponse{ID: 1, Email: req.Email, Role: models.RoleStudent}}, nil
}

func (s *stubAuthService) Login(context.Context, *dto.LoginRequest) (*dto.AuthResponse, error) {
	return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid email or password")
}

func (s *stubAuthService) ForgotPassword(_ context.Context, email string) error {
	s.email = email
	return s.forgotErr
}

func (s *stubAuthService) ResetPassword(context.Context, string, string) (*dto.AuthResponse, error) {
	return nil, apperrors.NewCustomError(apperrors.ErrInvalidPasswordResetToken, "Token is invalid or has expired.")
}

func (s *stubAuthService) AssignAdviser(context.Context, int64, int64) (*models.User, error) {
	return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "Student not found.")
}

func authRouter(svc AuthService) *gin.Engine {
	ctrl := NewAuthController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/api/auth")
	g.POST("/register", ctrl.Register)
	g.POST("/login", ctrl.Login)
	g.POST("/forgot-password", ctrl.ForgotPassword)
	g.PUT("/reset-password/:token", ctrl.ResetPassword)
	g.PUT("/assign-adviser", ctrl.AssignAdviser)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Message
}

func TestAuthController(t *testing.T) {
	svc := &stubAuthService{}
	router := authRouter(svc)

	w := doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"A","email":"a@college.edu","password":"secret123","studentId":"S1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/register", `{"name":"A","email":"not-an-email","password":"secret123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"a@college.edu","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", errorMessage(t, w))

	w = doJSON(router, http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@college.edu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ghost@college.edu", svc.email)

	svc.forgotErr = apperrors.NewUpstreamError("There was an error sending the email. Try again later.", assert.AnError)
	w = doJSON(router, http.MethodPost, "/api/auth/forgot-password", `{"email":"a@college.edu"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(router, http.MethodPut, "/api/auth/reset-password/deadbeef", `{"password":"newsecret9"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token is invalid or has expired.", errorMessage(t, w))

	w = doJSON(router, http.MethodPut, "/api/auth/assign-adviser", `{"studentId":99,"adviserId":3}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubAdminService struct {
	deleteErr error
}

func (s *stubAdminService) Stats(context.Context) (*dto.StatsResponse, error) {
	return &dto.StatsResponse{Users: 3, Requests: 1, StatusCounts: map[models.RequestStatus]int64{models.StatusCollected: 1}}, nil
}

func (s *stubAdminService) ListUsers(context.Context) ([]*models.User, error) {
	return []*models.User{{ID: 1, Name: "Admin", Email: "admin@college.edu", Role: models.RoleAdmin, Password: "hash"}}, nil
}

func (s *stubAdminService) UpdateUser(_ context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	return &models.User{ID: id, Name: req.Name, Role: models.RoleHOD}, nil
}

func (s *stubAdminService) DeleteUser(context.Context, int64) error {
	return s.deleteErr
}

func TestAdminController(t *testing.T) {
	svc := &stubAdminService{}
	ctrl := NewAdminController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/api/admin")
	g.GET("/stats", ctrl.Stats)
	g.GET("/users", ctrl.ListUsers)
	g.PUT("/users/:id", ctrl.UpdateUser)
	g.DELETE("/users/:id", ctrl.DeleteUser)

	w := doJSON(r, http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"users":3,"requests":1,"statusCounts":{"Collected":1}}}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/admin/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")

	w = doJSON(r, http.MethodPut, "/api/admin/users/4", `{"name":"Ravi"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPut, "/api/admin/users/0", `{"name":"Ravi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.deleteErr = apperrors.ErrUserHasRequests
	w = doJSON(r, http.MethodDelete, "/api/admin/users/4", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
