package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetProgress returns the caller's progress data for the last 4 months.
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	now := time.Now()
	months := make([]models.MonthlyProgress, 4)

	for i := 0; i < 4; i++ {
		month := now.AddDate(0, -i, 0)
		startOfMonth := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
		endOfMonth := startOfMonth.AddDate(0, 1, -1)

		var streakDays int
		var coursesCompleted int64
		loginFrequency := make(map[string]int)

		pc.DB.Model(&models.UserProgress{}).
			Where("user_id = ? AND last_active BETWEEN ? AND ?", userID, startOfMonth, endOfMonth).
			Select("MAX(streak_days)").
			Scan(&streakDays)

		pc.DB.Model(&models.UserCourseProgress{}).
			Where("user_id = ? AND updated_at BETWEEN ? AND ? AND completion_rate = 100", userID, startOfMonth, endOfMonth).
			Count(&coursesCompleted)

		var logins []models.LoginHistory
		pc.DB.Where("user_id = ? AND login_time BETWEEN ? AND ?", userID, startOfMonth, endOfMonth).
			Find(&logins)

		for _, login := range logins {
			day := login.LoginTime.Format("2006-01-02")
			loginFrequency[day]++
		}

		months[i] = models.MonthlyProgress{
			Month:            month.Month(),
			Year:             month.Year(),
			StreakDays:       streakDays,
			CoursesCompleted: coursesCompleted,
			LoginFrequency:   loginFrequency,
		}
	}

	return c.JSON(fiber.Map{
		"progress": months,
	})
}

// GetProgressOverview returns a summary of the caller's progress.
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var userProgress models.UserProgress
	pc.DB.Where("user_id = ?", userID).First(&userProgress)

	var totalCoursesCompleted int64
	pc.DB.Model(&models.UserCourseProgress{}).
		Where("user_id = ? AND completion_rate = 100", userID).
		Count(&totalCoursesCompleted)

	return c.JSON(models.ProgressOverview{
		TotalStreakDays:       userProgress.StreakDays,
		TotalCoursesCompleted: int(totalCoursesCompleted),
	})
}
