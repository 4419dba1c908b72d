package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	gorm.Model
	Title          string
	ShortDesc      string
	Description    string
	Difficulty     string // beginner, intermediate, advanced
	RecommendedFor string // group
	University     string
	Topic          string
	AuthorID       uint // instructor
	LogoURL        string
	Lessons        []Lesson
}

type Lesson struct {
	gorm.Model
	CourseID      uint
	Title         string
	Description   string
	Content       string
	SequenceOrder int
}

type Enrollment struct {
	gorm.Model
	UserID     uint `gorm:"uniqueIndex:idx_user_course_enrollment"`
	CourseID   uint `gorm:"uniqueIndex:idx_user_course_enrollment"`
	EnrolledAt time.Time
}

type LessonProgress struct {
	gorm.Model
	UserID    uint `gorm:"uniqueIndex:idx_user_lesson"`
	LessonID  uint `gorm:"uniqueIndex:idx_user_lesson"`
	CourseID  uint `gorm:"index"`
	Completed bool `gorm:"default:false"`
}
