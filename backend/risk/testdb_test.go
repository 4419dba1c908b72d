package risk

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"project/backend/models"
	"project/backend/utils"
)

var testDBCounter int64

// newTestDB opens a fresh in-memory database. The shared cache keeps every
// pooled connection on the same database, which the concurrent collector
// queries rely on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:risk_test_%d?mode=memory&cache=shared",
		atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, utils.AutoMigrate(db))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, instructorID uint, lessons int) models.Course {
	t.Helper()
	course := models.Course{Title: "Intro to Philosophy", AuthorID: instructorID}
	require.NoError(t, db.Create(&course).Error)
	for i := 0; i < lessons; i++ {
		require.NoError(t, db.Create(&models.Lesson{
			CourseID:      course.ID,
			Title:         fmt.Sprintf("Lesson %d", i+1),
			SequenceOrder: i + 1,
		}).Error)
	}
	return course
}

func enrollStudent(t *testing.T, db *gorm.DB, studentID, courseID uint, enrolledAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Enrollment{
		UserID:     studentID,
		CourseID:   courseID,
		EnrolledAt: enrolledAt,
	}).Error)
}

func seedProgress(t *testing.T, db *gorm.DB, studentID, courseID uint, engagement float64, lastNotified *time.Time) models.UserCourseProgress {
	t.Helper()
	progress := models.UserCourseProgress{
		UserID:               studentID,
		CourseID:             courseID,
		EngagementScore:      engagement,
		LastRiskNotification: lastNotified,
	}
	require.NoError(t, db.Create(&progress).Error)
	return progress
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}
