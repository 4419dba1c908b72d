package models

import (
	"time"

	"gorm.io/gorm"
)

type UserCourseProgress struct {
	gorm.Model
	UserID           uint `gorm:"uniqueIndex:idx_user_course_progress"`
	CourseID         uint `gorm:"uniqueIndex:idx_user_course_progress"`
	Course           Course
	LessonsCompleted int
	HoursSpent       float64
	LastAccessed     string
	CompletionRate   float64
	EngagementScore  float64 // 0-100
	// Advanced only inside the risk dispatcher transaction.
	LastRiskNotification *time.Time
}

type MonthlyProgress struct {
	Month            time.Month
	Year             int
	StreakDays       int
	CoursesCompleted int64
	LoginFrequency   map[string]int // day -> count
}

type ProgressOverview struct {
	TotalStreakDays       int
	TotalCoursesCompleted int
	MonthlyProgress       []MonthlyProgress
}
