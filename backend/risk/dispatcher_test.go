package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"project/backend/models"
	"project/backend/push"
	"project/backend/utils"
)

func dispatcherFixture(t *testing.T) (*gorm.DB, *push.MemoryChannel, *Dispatcher, Assessment, Messages) {
	t.Helper()

	db := newTestDB(t)
	instructor := seedUser(t, db, "prof", "admin")
	student := seedUser(t, db, "alice", "user")
	course := seedCourse(t, db, instructor.ID, 5)
	enrollStudent(t, db, student.ID, course.ID, daysAgo(20))
	seedProgress(t, db, student.ID, course.ID, 10, nil)

	mem := push.NewMemoryChannel()
	dispatcher := NewDispatcher(db, mem, utils.NopLogger())

	assessment := Assessment{
		StudentID: student.ID,
		CourseID:  course.ID,
		Tier:      TierHigh,
		Score:     7,
		Factors:   []Factor{FactorInactivity, FactorCompletion, FactorEngagement},
	}
	msgs := Compose(student.Username, course.Title, assessment)

	return db, mem, dispatcher, assessment, msgs
}

func instructorIDFor(t *testing.T, db *gorm.DB, courseID uint) uint {
	t.Helper()
	var course models.Course
	require.NoError(t, db.First(&course, courseID).Error)
	return course.AuthorID
}

func TestDispatchPersistsBothRowsAndMarker(t *testing.T) {
	db, mem, dispatcher, a, msgs := dispatcherFixture(t)
	instructorID := instructorIDFor(t, db, a.CourseID)

	require.NoError(t, dispatcher.Dispatch(context.Background(), a, msgs, instructorID))

	var notifications []models.Notification
	require.NoError(t, db.Order("id").Find(&notifications).Error)
	require.Len(t, notifications, 2)

	assert.Equal(t, a.StudentID, notifications[0].RecipientID)
	assert.Equal(t, models.NotificationTypeAtRiskReminder, notifications[0].Type)
	assert.Equal(t, instructorID, notifications[1].RecipientID)
	assert.Equal(t, models.NotificationTypeAtRiskAlert, notifications[1].Type)
	assert.Equal(t, "HIGH", notifications[0].RiskTier)
	assert.Equal(t, "inactivity,completion,engagement", notifications[0].Factors)

	var progress models.UserCourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", a.StudentID, a.CourseID).
		First(&progress).Error)
	require.NotNil(t, progress.LastRiskNotification)
	assert.WithinDuration(t, time.Now(), *progress.LastRiskNotification, 5*time.Second)

	events := mem.Events()
	require.Len(t, events, 2)
	assert.Equal(t, a.StudentID, events[0].RecipientID)
	assert.Equal(t, instructorID, events[1].RecipientID)
}

func TestDispatchRollsBackWhenInsertFails(t *testing.T) {
	db, mem, dispatcher, a, msgs := dispatcherFixture(t)

	// recipient 0 makes the instructor insert fail inside the transaction
	err := dispatcher.Dispatch(context.Background(), a, msgs, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrThrottled)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)

	var progress models.UserCourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", a.StudentID, a.CourseID).
		First(&progress).Error)
	assert.Nil(t, progress.LastRiskNotification)

	assert.Empty(t, mem.Events())
}

func TestDispatchSecondClaimIsThrottled(t *testing.T) {
	db, _, dispatcher, a, msgs := dispatcherFixture(t)
	instructorID := instructorIDFor(t, db, a.CourseID)

	require.NoError(t, dispatcher.Dispatch(context.Background(), a, msgs, instructorID))

	err := dispatcher.Dispatch(context.Background(), a, msgs, instructorID)
	assert.ErrorIs(t, err, ErrThrottled)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestDispatchClaimRespectsWindowBoundary(t *testing.T) {
	t.Run("marker seven days old is reclaimed", func(t *testing.T) {
		db := newTestDB(t)
		instructor := seedUser(t, db, "prof", "admin")
		student := seedUser(t, db, "alice", "user")
		course := seedCourse(t, db, instructor.ID, 5)
		enrollStudent(t, db, student.ID, course.ID, daysAgo(20))
		seven := daysAgo(7)
		seedProgress(t, db, student.ID, course.ID, 10, &seven)

		dispatcher := NewDispatcher(db, push.NewMemoryChannel(), utils.NopLogger())
		a := Assessment{StudentID: student.ID, CourseID: course.ID, Tier: TierHigh,
			Factors: []Factor{FactorInactivity}}

		assert.NoError(t, dispatcher.Dispatch(context.Background(), a,
			Compose("alice", course.Title, a), instructor.ID))
	})

	t.Run("marker six days old is rejected", func(t *testing.T) {
		db := newTestDB(t)
		instructor := seedUser(t, db, "prof", "admin")
		student := seedUser(t, db, "alice", "user")
		course := seedCourse(t, db, instructor.ID, 5)
		enrollStudent(t, db, student.ID, course.ID, daysAgo(20))
		six := daysAgo(6)
		seedProgress(t, db, student.ID, course.ID, 10, &six)

		dispatcher := NewDispatcher(db, push.NewMemoryChannel(), utils.NopLogger())
		a := Assessment{StudentID: student.ID, CourseID: course.ID, Tier: TierHigh,
			Factors: []Factor{FactorInactivity}}

		err := dispatcher.Dispatch(context.Background(), a,
			Compose("alice", course.Title, a), instructor.ID)
		assert.ErrorIs(t, err, ErrThrottled)
	})
}

func TestDispatchPushFailureDoesNotAffectPersistence(t *testing.T) {
	db, mem, dispatcher, a, msgs := dispatcherFixture(t)
	instructorID := instructorIDFor(t, db, a.CourseID)
	mem.FailWith = errors.New("push channel down")

	// push is best-effort: the dispatch still succeeds
	require.NoError(t, dispatcher.Dispatch(context.Background(), a, msgs, instructorID))

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var progress models.UserCourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", a.StudentID, a.CourseID).
		First(&progress).Error)
	assert.NotNil(t, progress.LastRiskNotification)
}
