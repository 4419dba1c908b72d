package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"project/backend/config"
	"project/backend/controllers"
	"project/backend/middleware"
	"project/backend/risk"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, engine *risk.Engine) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, progressController.GetProgress)
	app.Get("/api/progress/overview", authMiddleware, progressController.GetProgressOverview)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetUserCourses)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Post("/:id/enroll", coursesController.Enroll)
	courses.Post("/:id/progress", coursesController.CompleteLesson)
	courses.Post("/deadlines/:deadlineId/complete", coursesController.CompleteDeadline)

	// Notifications routes
	notificationsController := controllers.NewNotificationsController(db, cfg)
	app.Get("/api/notifications", authMiddleware, notificationsController.ListNotifications)
	app.Put("/api/notifications/:id/read", authMiddleware, notificationsController.MarkRead)

	// Risk routes
	riskController := controllers.NewRiskController(db, cfg, engine)
	app.Get("/api/courses/:id/risk", authMiddleware, riskController.CourseRiskOverview)

	// Admin routes
	adminCourses := app.Group("/api/admin/courses", authMiddleware, adminMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Post("/:id/lessons", coursesController.AddLesson)
	adminCourses.Post("/:id/deadlines", coursesController.CreateDeadline)
	adminCourses.Post("/:id/risk-scan", riskController.ScanCourse)
}
