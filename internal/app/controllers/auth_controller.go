// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/app/models/dto"
	"github.com/yigit/certtrack/internal/app/services"
	"github.com/yigit/certtrack/internal/middleware"
)

// AuthService is what the auth endpoints need from the service layer
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, password string) (*dto.AuthResponse, error)
	AssignAdviser(ctx context.Context, studentID, adviserID int64) (*models.User, error)
}

// AuthController handles authentication related operations
type AuthController struct {
	authService AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates an account and signs it in. Students must supply a student ID; staff roles are accepted only when staff self-registration is enabled.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "User registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format, role or password"
// @Failure 403 {object} dto.ErrorResponse "Staff self-registration disabled"
// @Failure 409 {object} dto.ErrorResponse "Email or student ID already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		c.logger.Warn().Msg("Invalid registration request payload")
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewDataResponse(resp))
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid email or password"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", resp.User.ID).Msg("User logged in successfully")
	ctx.JSON(http.StatusOK, dto.NewDataResponse(resp))
}

// ForgotPassword starts a password reset
// @Summary Request a password reset link
// @Description Emails a one-time reset link valid for a short time. The response is identical whether or not the address has an account.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.APIResponse "Reset link sent if the account exists"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 502 {object} dto.ErrorResponse "Email could not be sent"
// @Router /auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.authService.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse(services.ForgotPasswordMessage))
}

// ResetPassword completes a password reset
// @Summary Reset password
// @Description Sets a new password using the token from the reset email and signs the user in
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param request body dto.ResetPasswordRequest true "New password"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Password changed"
// @Failure 400 {object} dto.ErrorResponse "Token is invalid or has expired"
// @Router /auth/reset-password/{token} [put]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.ResetPassword(ctx.Request.Context(), ctx.Param("token"), req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewDataResponse(resp))
}

// AssignAdviser links a student to a class adviser
// @Summary Assign a class adviser to a student
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssignAdviserRequest true "Student and adviser user ids"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Adviser assigned"
// @Failure 400 {object} dto.ErrorResponse "Adviser is not a class adviser"
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /auth/assign-adviser [put]
func (c *AuthController) AssignAdviser(ctx *gin.Context) {
	var req dto.AssignAdviserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.authService.AssignAdviser(ctx.Request.Context(), req.StudentID, req.AdviserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:    dto.NewUserResponse(student),
		Message: "Adviser assigned successfully",
	})
}
