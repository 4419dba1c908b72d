package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

func (cc *CoursesController) GetUserCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var enrollments []models.Enrollment
	cc.DB.Where("user_id = ?", userID).Find(&enrollments)

	var result []fiber.Map
	for _, enrollment := range enrollments {
		var course models.Course
		if err := cc.DB.Preload("Lessons").First(&course, enrollment.CourseID).Error; err != nil {
			continue
		}

		var progress models.UserCourseProgress
		cc.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).First(&progress)

		result = append(result, fiber.Map{
			"id":            course.ID,
			"title":         course.Title,
			"progress":      progress.CompletionRate,
			"group":         course.RecommendedFor,
			"lessons":       len(course.Lessons),
			"completed":     progress.LessonsCompleted,
			"hours_spent":   progress.HoursSpent,
			"last_accessed": progress.LastAccessed,
			"enrolled_at":   enrollment.EnrolledAt,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Preload("Lessons").First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var progress models.UserCourseProgress
	cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress)

	var deadlines []models.Deadline
	cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("due_at ASC").
		Find(&deadlines)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course":    course,
		"progress":  progress,
		"deadlines": deadlines,
	})
}

// Enroll creates the enrollment and its progress record for the caller.
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var existing models.Enrollment
	if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&existing).Error; err == nil {
		return utils.BadRequest(c, "Already enrolled")
	}

	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   uint(courseID),
		EnrolledAt: time.Now(),
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserCourseProgress{
			UserID:   userID,
			CourseID: uint(courseID),
		}).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not enroll")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":    "Enrolled",
		"enrollment": enrollment,
	})
}

// CompleteLesson marks a lesson done, refreshes the progress record and
// appends an activity event.
func (cc *CoursesController) CompleteLesson(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input struct {
		LessonID   uint    `json:"lesson_id"`
		HoursSpent float64 `json:"hours_spent"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var lesson models.Lesson
	if err := cc.DB.Where("id = ? AND course_id = ?", input.LessonID, courseID).
		First(&lesson).Error; err != nil {
		return utils.NotFound(c, "Lesson not found")
	}

	var enrollment models.Enrollment
	if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error; err != nil {
		return utils.Forbidden(c, "Not enrolled in this course")
	}

	now := time.Now()

	var lessonProgress models.LessonProgress
	err = cc.DB.Where("user_id = ? AND lesson_id = ?", userID, input.LessonID).
		First(&lessonProgress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lessonProgress = models.LessonProgress{
			UserID:    userID,
			LessonID:  input.LessonID,
			CourseID:  uint(courseID),
			Completed: true,
		}
		cc.DB.Create(&lessonProgress)
	} else {
		lessonProgress.Completed = true
		cc.DB.Save(&lessonProgress)
	}

	cc.DB.Create(&models.ActivityEvent{
		UserID:     userID,
		CourseID:   uint(courseID),
		Action:     "lesson_completed",
		OccurredAt: now,
	})

	// Refresh the aggregate progress record
	var totalLessons, completedLessons int64
	cc.DB.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&totalLessons)
	cc.DB.Model(&models.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&completedLessons)

	completionRate := 100.0
	if totalLessons > 0 {
		completionRate = float64(completedLessons) / float64(totalLessons) * 100
	}

	var progress models.UserCourseProgress
	err = cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.UserCourseProgress{UserID: userID, CourseID: uint(courseID)}
	}
	progress.LessonsCompleted = int(completedLessons)
	progress.HoursSpent += input.HoursSpent
	progress.LastAccessed = now.Format(time.RFC3339)
	progress.CompletionRate = completionRate
	cc.DB.Save(&progress)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "Progress updated",
		"progress": progress,
	})
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	course.AuthorID = userID

	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Course created",
		"course":  course,
	})
}

func (cc *CoursesController) AddLesson(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var lesson models.Lesson
	if err := c.BodyParser(&lesson); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	lesson.CourseID = uint(courseID)

	if lesson.SequenceOrder == 0 {
		var count int64
		cc.DB.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&count)
		lesson.SequenceOrder = int(count) + 1
	}

	if err := cc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Lesson added",
		"lesson":  lesson,
	})
}

// CreateDeadline assigns a deadline to a student on a course. Instructor only.
func (cc *CoursesController) CreateDeadline(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input struct {
		UserID uint      `json:"user_id"`
		Title  string    `json:"title"`
		DueAt  time.Time `json:"due_at"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var enrollment models.Enrollment
	if err := cc.DB.Where("user_id = ? AND course_id = ?", input.UserID, courseID).
		First(&enrollment).Error; err != nil {
		return utils.NotFound(c, "Student is not enrolled in this course")
	}

	deadline := models.Deadline{
		UserID:   input.UserID,
		CourseID: uint(courseID),
		Title:    input.Title,
		DueAt:    input.DueAt,
	}
	if err := cc.DB.Create(&deadline).Error; err != nil {
		return utils.InternalServerError(c, "Could not create deadline")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "Deadline created",
		"deadline": deadline,
	})
}

// CompleteDeadline marks the caller's deadline as done. Completed deadlines
// no longer count against the missed-deadline signal.
func (cc *CoursesController) CompleteDeadline(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	deadlineID, err := strconv.Atoi(c.Params("deadlineId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid deadline ID")
	}

	var deadline models.Deadline
	if err := cc.DB.Where("id = ? AND user_id = ?", deadlineID, userID).
		First(&deadline).Error; err != nil {
		return utils.NotFound(c, "Deadline not found")
	}

	now := time.Now()
	deadline.CompletedAt = &now
	if err := cc.DB.Save(&deadline).Error; err != nil {
		return utils.InternalServerError(c, "Could not update deadline")
	}

	cc.DB.Create(&models.ActivityEvent{
		UserID:     userID,
		CourseID:   deadline.CourseID,
		Action:     "deadline_completed",
		OccurredAt: now,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "Deadline completed",
		"deadline": deadline,
	})
}
