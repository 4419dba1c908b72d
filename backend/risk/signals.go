package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"project/backend/models"
)

// ErrEnrollmentNotFound means the (student, course) pair has no enrollment.
// It aborts only that student's assessment, never the batch.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// Signals are the four raw inputs the classifier scores, plus the throttle
// marker read alongside them.
type Signals struct {
	InactivityDays  int
	CompletionRatio float64
	MissedDeadlines int
	EngagementScore float64
	LastNotified    *time.Time
}

// Collector derives the risk signals for one (student, course) pair.
// It is the single computation shared by the notification engine and the
// instructor-facing risk overview, so the two can never drift apart.
type Collector struct {
	DB *gorm.DB
}

func NewCollector(db *gorm.DB) *Collector {
	return &Collector{DB: db}
}

func (cl *Collector) Collect(ctx context.Context, studentID, courseID uint) (Signals, error) {
	now := time.Now()

	var (
		enrollment       models.Enrollment
		totalLessons     int64
		completedLessons int64
		lastActivity     models.ActivityEvent
		hasActivity      bool
		missedDeadlines  int64
		progress         models.UserCourseProgress
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := cl.DB.WithContext(gctx).
			Where("user_id = ? AND course_id = ?", studentID, courseID).
			First(&enrollment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	})

	g.Go(func() error {
		if err := cl.DB.WithContext(gctx).Model(&models.Lesson{}).
			Where("course_id = ?", courseID).
			Count(&totalLessons).Error; err != nil {
			return fmt.Errorf("count lessons: %w", err)
		}
		return cl.DB.WithContext(gctx).Model(&models.LessonProgress{}).
			Where("user_id = ? AND course_id = ? AND completed = ?", studentID, courseID, true).
			Count(&completedLessons).Error
	})

	g.Go(func() error {
		err := cl.DB.WithContext(gctx).
			Where("user_id = ? AND course_id = ?", studentID, courseID).
			Order("occurred_at DESC").
			First(&lastActivity).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // fall back to enrollment date
		}
		if err == nil {
			hasActivity = true
		}
		return err
	})

	g.Go(func() error {
		return cl.DB.WithContext(gctx).Model(&models.Deadline{}).
			Where("user_id = ? AND course_id = ? AND due_at < ? AND completed_at IS NULL",
				studentID, courseID, now).
			Count(&missedDeadlines).Error
	})

	g.Go(func() error {
		err := cl.DB.WithContext(gctx).
			Where("user_id = ? AND course_id = ?", studentID, courseID).
			First(&progress).Error
		if err != nil {
			return fmt.Errorf("progress record: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Signals{}, err
	}

	lastSeen := enrollment.EnrolledAt
	if hasActivity {
		lastSeen = lastActivity.OccurredAt
	}

	// A course without lessons can never look "unfinished".
	ratio := 1.0
	if totalLessons > 0 {
		ratio = float64(completedLessons) / float64(totalLessons)
	}

	return Signals{
		InactivityDays:  int(now.Sub(lastSeen).Hours() / 24),
		CompletionRatio: ratio,
		MissedDeadlines: int(missedDeadlines),
		EngagementScore: progress.EngagementScore,
		LastNotified:    progress.LastRiskNotification,
	}, nil
}
