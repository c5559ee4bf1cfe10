package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/svsf-edu/enrollment-service/internal/config"
	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
	"github.com/svsf-edu/enrollment-service/internal/services"
	"github.com/svsf-edu/enrollment-service/internal/utils"
	"github.com/svsf-edu/enrollment-service/internal/validator"
)

type HandlerManager struct {
	applicationHandler  *ApplicationHandler
	slipHandler         *SlipHandler
	verificationHandler *VerificationHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		applicationHandler:  NewApplicationHandler(serviceManager.Application(), validator, logger),
		slipHandler:         NewSlipHandler(serviceManager.Slip(), logger),
		verificationHandler: NewVerificationHandler(serviceManager.Verification(), logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public verification endpoint, no authentication
	v1.POST("/verification/verify", hm.verificationHandler.VerifySlip)

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		applications := authed.Group("/applications")
		{
			// Applicant routes
			applications.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent, models.RoleParent), hm.applicationHandler.SubmitApplication)
			applications.GET("/mine", hm.applicationHandler.ListOwnApplications)
			applications.GET("/mine/count", hm.applicationHandler.CountOwnApplications)

			// Slip download, owner or staff (service enforces ownership)
			applications.GET("/:id/slip", hm.slipHandler.GenerateSlip)

			// Staff routes
			applications.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.applicationHandler.ListApplications)
			applications.GET("/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.applicationHandler.GetApplicationStats)
			applications.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.applicationHandler.ExportApplications)
			applications.GET("/:id/verification", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.applicationHandler.GetVerificationMetadata)
			applications.PUT("/:id/status", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.applicationHandler.UpdateApplicationStatus)

			// Escape hatch outside the lifecycle rules
			applications.PUT("/:id/status/override", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.applicationHandler.OverrideApplicationStatus)
		}

		reports := authed.Group("/reports")
		reports.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			reports.GET("/applications", hm.slipHandler.AdminReport)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "enrollment-service",
		})
	})
}
