package models

import (
	"time"

	"gorm.io/gorm"
)

type ActivityEvent struct {
	gorm.Model
	UserID     uint `gorm:"index:idx_activity_user_course"`
	CourseID   uint `gorm:"index:idx_activity_user_course"`
	Action     string // "lesson_opened", "lesson_completed", "deadline_completed"
	OccurredAt time.Time
}

type Deadline struct {
	gorm.Model
	UserID      uint `gorm:"index:idx_deadline_user_course"`
	CourseID    uint `gorm:"index:idx_deadline_user_course"`
	Title       string
	DueAt       time.Time
	CompletedAt *time.Time
}
