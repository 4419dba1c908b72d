package risk

import (
	"context"
	"time"

	"gorm.io/gorm"

	"project/backend/models"
	"project/backend/utils"
)

// Scheduler runs the risk scan for every course once a day.
type Scheduler struct {
	DB     *gorm.DB
	Engine *Engine
	Log    *utils.Logger
	Hour   int // UTC hour of the daily run
}

func NewScheduler(db *gorm.DB, engine *Engine, log *utils.Logger, hour int) *Scheduler {
	return &Scheduler{DB: db, Engine: engine, Log: log.With("component", "risk_scheduler"), Hour: hour}
}

// Run blocks until ctx is cancelled. Call it in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := nextRunAt(time.Now().UTC(), s.Hour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		s.scanAll(ctx)
	}
}

func (s *Scheduler) scanAll(ctx context.Context) {
	var courseIDs []uint
	if err := s.DB.WithContext(ctx).Model(&models.Course{}).
		Pluck("id", &courseIDs).Error; err != nil {
		s.Log.Error("listing courses failed", "error", err)
		return
	}

	s.Log.Info("daily risk scan starting", "courses", len(courseIDs))
	for _, id := range courseIDs {
		if ctx.Err() != nil {
			return
		}
		// Each course scan is isolated; a failing course never stops the rest.
		if _, err := s.Engine.ProcessRiskNotifications(ctx, id); err != nil {
			s.Log.Error("course scan failed", "course_id", id, "error", err)
		}
	}
}

func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
