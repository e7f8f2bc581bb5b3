package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"citasalud-server/internal/catalog"
	"citasalud-server/internal/config"
	"citasalud-server/internal/handlers"
	"citasalud-server/internal/middleware"
	"citasalud-server/internal/models"
	"citasalud-server/internal/notifications"
	"citasalud-server/internal/reminders"
	"citasalud-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config,
	svc *scheduling.Service, cat *catalog.Catalog,
	prefs notifications.PreferenceStore, reminderStore reminders.Store) {

	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(svc)
	catalogHandler := handlers.NewCatalogHandler(cat)
	notificationHandler := handlers.NewNotificationHandler(prefs, reminderStore)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Reference catalog
		catalogRoutes := private.Group("/catalog")
		{
			catalogRoutes.GET("/locations", catalogHandler.GetLocations)
			catalogRoutes.GET("/specialties", catalogHandler.GetSpecialties)
			catalogRoutes.GET("/professionals", catalogHandler.GetProfessionals)
		}

		// Appointment booking
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.GET("/availability", appointmentHandler.GetAvailability)
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.ListAppointments)
			appointmentRoutes.GET("/summary", appointmentHandler.GetSummary)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
		}

		// User administration (coordinators only)
		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleCoordinator))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		// Notification preferences and reminder log
		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("/preferences", notificationHandler.GetPreferences)
			notificationRoutes.PUT("/preferences", notificationHandler.UpdatePreferences)
			notificationRoutes.GET("/reminders", notificationHandler.GetReminders)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
