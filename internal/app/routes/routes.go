package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/certtrack/internal/app/auth"
	"github.com/yigit/certtrack/internal/app/controllers"
	"github.com/yigit/certtrack/internal/app/models"
	"github.com/yigit/certtrack/internal/middleware"
	"github.com/yigit/certtrack/internal/pkg/websocket"
)

// Handlers groups everything the API routes dispatch to
type Handlers struct {
	Auth         *controllers.AuthController
	Admin        *controllers.AdminController
	Certificates *controllers.CertificateController
	LiveFeed     *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")

	// --- Public Auth routes ---
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
		authGroup.PUT("/reset-password/:token", h.Auth.ResetPassword)

		authGroup.PUT("/assign-adviser",
			authMiddleware.JWTAuth(),
			authMiddleware.RoleRequired(models.RoleAdmin),
			h.Auth.AssignAdviser,
		)
	}

	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// Admin dashboard
	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/users", h.Admin.ListUsers)
		admin.PUT("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
	}

	certificates := authenticated.Group("/certificates")
	{
		certificates.POST("/request", authMiddleware.RoleRequired(models.RoleStudent), h.Certificates.SubmitRequest)
		certificates.GET("/my-requests", authMiddleware.RoleRequired(models.RoleStudent), h.Certificates.MyRequests)
		certificates.GET("/all", authMiddleware.RoleRequired(auth.ListerRoles()...), h.Certificates.ListAll)
		certificates.PUT("/:id/process", authMiddleware.RoleRequired(auth.ProcessorRoles()...), h.Certificates.ProcessRequest)
	}

	if h.LiveFeed != nil {
		authenticated.GET("/notifications/ws", h.LiveFeed.HandleConnection)
	}
}
