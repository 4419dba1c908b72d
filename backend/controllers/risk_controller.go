package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"project/backend/config"
	"project/backend/models"
	"project/backend/risk"
	"project/backend/utils"
)

type RiskController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Engine *risk.Engine
}

func NewRiskController(db *gorm.DB, cfg *config.Config, engine *risk.Engine) *RiskController {
	return &RiskController{DB: db, Cfg: cfg, Engine: engine}
}

// ScanCourse runs the at-risk notification batch for one course on demand
// and returns the operational summary.
func (rc *RiskController) ScanCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	summary, err := rc.Engine.ProcessRiskNotifications(c.Context(), uint(courseID))
	if err != nil {
		return utils.InternalServerError(c, err.Error())
	}

	return utils.Success(c, fiber.StatusOK, summary)
}

// CourseRiskOverview is the read-only instructor view. It reuses the exact
// signal computation the notification engine runs on, so the dashboard and
// the alerts can never disagree.
func (rc *RiskController) CourseRiskOverview(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := rc.DB.First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var user models.User
	if err := rc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}
	if course.AuthorID != userID && user.Role != "admin" {
		return utils.Forbidden(c, "You don't have permission to view this overview")
	}

	var enrollments []models.Enrollment
	if err := rc.DB.Where("course_id = ?", courseID).Find(&enrollments).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch enrollments")
	}

	collector := rc.Engine.Collector()
	var students []fiber.Map
	for _, enrollment := range enrollments {
		signals, err := collector.Collect(c.Context(), enrollment.UserID, uint(courseID))
		if err != nil {
			continue
		}
		assessment := risk.Classify(enrollment.UserID, uint(courseID), signals)

		var student models.User
		rc.DB.First(&student, enrollment.UserID)

		students = append(students, fiber.Map{
			"student_id":       enrollment.UserID,
			"username":         student.Username,
			"risk_tier":        assessment.Tier,
			"score":            assessment.Score,
			"factors":          assessment.Factors,
			"inactivity_days":  signals.InactivityDays,
			"completion_ratio": signals.CompletionRatio,
			"missed_deadlines": signals.MissedDeadlines,
			"engagement_score": signals.EngagementScore,
			"last_notified":    signals.LastNotified,
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id":    courseID,
		"course_title": course.Title,
		"students":     students,
	})
}
