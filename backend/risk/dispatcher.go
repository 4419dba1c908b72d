package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"project/backend/models"
	"project/backend/push"
	"project/backend/utils"
)

// ErrThrottled means another run already claimed the throttle window for
// this pair; nothing was persisted.
var ErrThrottled = errors.New("risk notification throttled")

// Dispatcher persists both notifications and the throttle marker in one
// transaction, then pushes real-time events best-effort.
type Dispatcher struct {
	DB   *gorm.DB
	Push push.Channel
	Log  *utils.Logger
}

func NewDispatcher(db *gorm.DB, ch push.Channel, log *utils.Logger) *Dispatcher {
	return &Dispatcher{DB: db, Push: ch, Log: log}
}

// Dispatch runs the atomic unit: claim the throttle marker, insert the
// student and instructor notification rows. All three persist or none do.
// The marker claim is conditional on the window still being open, which
// makes this transaction the single source of truth for "already
// notified" even when batch runs overlap.
func (d *Dispatcher) Dispatch(ctx context.Context, a Assessment, msgs Messages, instructorID uint) error {
	now := time.Now()
	cutoff := now.Add(-ThrottleWindow)

	studentNote := models.Notification{
		RecipientID: a.StudentID,
		Type:        models.NotificationTypeAtRiskReminder,
		Title:       msgs.StudentTitle,
		Message:     msgs.StudentBody,
		CourseID:    a.CourseID,
		RiskTier:    string(a.Tier),
		Factors:     FactorNames(a.Factors),
	}
	instructorNote := models.Notification{
		RecipientID: instructorID,
		Type:        models.NotificationTypeAtRiskAlert,
		Title:       msgs.InstructorTitle,
		Message:     msgs.InstructorBody,
		CourseID:    a.CourseID,
		RiskTier:    string(a.Tier),
		Factors:     FactorNames(a.Factors),
	}

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.UserCourseProgress{}).
			Where("user_id = ? AND course_id = ?", a.StudentID, a.CourseID).
			Where("last_risk_notification IS NULL OR last_risk_notification <= ?", cutoff).
			Update("last_risk_notification", now)
		if claim.Error != nil {
			return fmt.Errorf("claim throttle marker: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return ErrThrottled
		}

		if err := tx.Create(&studentNote).Error; err != nil {
			return fmt.Errorf("create student notification: %w", err)
		}
		if err := tx.Create(&instructorNote).Error; err != nil {
			return fmt.Errorf("create instructor notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Committed. Push is best-effort from here on: failures are logged,
	// never retried, and never touch the persisted rows.
	d.pushEvent(ctx, a.StudentID, studentNote)
	d.pushEvent(ctx, instructorID, instructorNote)

	return nil
}

func (d *Dispatcher) pushEvent(ctx context.Context, recipientID uint, n models.Notification) {
	if d.Push == nil {
		return
	}
	event := push.Event{
		Type:     n.Type,
		CourseID: n.CourseID,
		RiskTier: n.RiskTier,
		Title:    n.Title,
		Message:  n.Message,
		SentAt:   time.Now(),
	}
	if err := d.Push.Send(ctx, recipientID, event); err != nil {
		d.Log.Warn("push delivery failed",
			"recipient_id", recipientID,
			"course_id", n.CourseID,
			"error", err)
	}
}
