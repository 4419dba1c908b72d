package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"project/backend/models"
	"project/backend/push"
	"project/backend/utils"
)

func newTestEngine(db *gorm.DB, mem *push.MemoryChannel) *Engine {
	return NewEngine(db, mem, utils.NopLogger(), 4, time.Minute)
}

func TestProcessRiskNotificationsUnknownCourse(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(db, push.NewMemoryChannel())

	_, err := engine.ProcessRiskNotifications(context.Background(), 999)
	assert.Error(t, err)
}

func TestProcessRiskNotificationsNotifiesHighRiskStudent(t *testing.T) {
	db := newTestDB(t)
	instructor := seedUser(t, db, "prof", "admin")
	student := seedUser(t, db, "alice", "user")
	course := seedCourse(t, db, instructor.ID, 10)
	enrollStudent(t, db, student.ID, course.ID, daysAgo(20))
	seedProgress(t, db, student.ID, course.ID, 10, nil)

	mem := push.NewMemoryChannel()
	engine := newTestEngine(db, mem)

	summary, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Notified)
	assert.Zero(t, summary.Failed)

	var notifications []models.Notification
	require.NoError(t, db.Order("id").Find(&notifications).Error)
	require.Len(t, notifications, 2)
	assert.Equal(t, student.ID, notifications[0].RecipientID)
	assert.Equal(t, instructor.ID, notifications[1].RecipientID)

	assert.Len(t, mem.Events(), 2)
}

func TestProcessRiskNotificationsSkipsLowRisk(t *testing.T) {
	db := newTestDB(t)
	instructor := seedUser(t, db, "prof", "admin")
	student := seedUser(t, db, "bob", "user")
	course := seedCourse(t, db, instructor.ID, 10)
	enrollStudent(t, db, student.ID, course.ID, daysAgo(2))
	seedProgress(t, db, student.ID, course.ID, 90, nil)

	// healthy student: recent activity, most lessons done
	var lessons []models.Lesson
	require.NoError(t, db.Where("course_id = ?", course.ID).Find(&lessons).Error)
	for _, lesson := range lessons[:8] {
		require.NoError(t, db.Create(&models.LessonProgress{
			UserID:    student.ID,
			LessonID:  lesson.ID,
			CourseID:  course.ID,
			Completed: true,
		}).Error)
	}

	engine := newTestEngine(db, push.NewMemoryChannel())
	summary, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.LowRisk)
	assert.Zero(t, summary.Notified)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessRiskNotificationsIsIdempotentWithinWindow(t *testing.T) {
	db := newTestDB(t)
	instructor := seedUser(t, db, "prof", "admin")
	student := seedUser(t, db, "alice", "user")
	course := seedCourse(t, db, instructor.ID, 10)
	enrollStudent(t, db, student.ID, course.ID, daysAgo(20))
	seedProgress(t, db, student.ID, course.ID, 10, nil)

	engine := newTestEngine(db, push.NewMemoryChannel())

	first, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Notified)

	// same day, same student: nothing new goes out
	second, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Zero(t, second.Notified)
	assert.Equal(t, 1, second.Throttled)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestProcessRiskNotificationsThrottleBoundary(t *testing.T) {
	run := func(t *testing.T, markerAge int) Summary {
		db := newTestDB(t)
		instructor := seedUser(t, db, "prof", "admin")
		student := seedUser(t, db, "alice", "user")
		course := seedCourse(t, db, instructor.ID, 10)
		enrollStudent(t, db, student.ID, course.ID, daysAgo(20))
		marker := daysAgo(markerAge)
		seedProgress(t, db, student.ID, course.ID, 10, &marker)

		engine := newTestEngine(db, push.NewMemoryChannel())
		summary, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
		require.NoError(t, err)
		return summary
	}

	t.Run("seven days ago notifies", func(t *testing.T) {
		summary := run(t, 7)
		assert.Equal(t, 1, summary.Notified)
	})

	t.Run("six days ago is throttled", func(t *testing.T) {
		summary := run(t, 6)
		assert.Zero(t, summary.Notified)
		assert.Equal(t, 1, summary.Throttled)
	})
}

func TestProcessRiskNotificationsIsolatesFailures(t *testing.T) {
	db := newTestDB(t)
	instructor := seedUser(t, db, "prof", "admin")
	healthy := seedUser(t, db, "alice", "user")
	broken := seedUser(t, db, "bob", "user")
	course := seedCourse(t, db, instructor.ID, 10)

	enrollStudent(t, db, healthy.ID, course.ID, daysAgo(20))
	seedProgress(t, db, healthy.ID, course.ID, 10, nil)

	// bob has an enrollment but no progress record: his pipeline fails
	enrollStudent(t, db, broken.ID, course.ID, daysAgo(20))

	engine := newTestEngine(db, push.NewMemoryChannel())
	summary, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Failed)
	// alice is still notified despite bob's failure
	assert.Equal(t, 1, summary.Notified)

	var notifications []models.Notification
	require.NoError(t, db.Where("recipient_id = ?", healthy.ID).Find(&notifications).Error)
	assert.Len(t, notifications, 1)
}

func TestProcessRiskNotificationsMixedCohort(t *testing.T) {
	db := newTestDB(t)
	instructor := seedUser(t, db, "prof", "admin")
	course := seedCourse(t, db, instructor.ID, 10)

	atRisk := seedUser(t, db, "alice", "user")
	enrollStudent(t, db, atRisk.ID, course.ID, daysAgo(20))
	seedProgress(t, db, atRisk.ID, course.ID, 10, nil)

	recentlyNotified := seedUser(t, db, "bob", "user")
	enrollStudent(t, db, recentlyNotified.ID, course.ID, daysAgo(20))
	marker := daysAgo(2)
	seedProgress(t, db, recentlyNotified.ID, course.ID, 10, &marker)

	engine := newTestEngine(db, push.NewMemoryChannel())
	summary, err := engine.ProcessRiskNotifications(context.Background(), course.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Notified)
	assert.Equal(t, 1, summary.Throttled)
	assert.Zero(t, summary.Failed)
}
