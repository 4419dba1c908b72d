package risk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"project/backend/models"
	"project/backend/push"
	"project/backend/utils"
)

const (
	defaultWorkers     = 8
	defaultScanTimeout = 10 * time.Minute
)

// Summary is the operational result of one course scan.
type Summary struct {
	CourseID  uint          `json:"course_id"`
	Scanned   int           `json:"scanned"`
	Notified  int           `json:"notified"`
	LowRisk   int           `json:"low_risk"`
	Throttled int           `json:"throttled"`
	Failed    int           `json:"failed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Engine runs the at-risk detection pipeline for a course: collect signals,
// classify, throttle-check, compose and dispatch, per student, with bounded
// concurrency and per-student failure isolation.
type Engine struct {
	db         *gorm.DB
	collector  *Collector
	dispatcher *Dispatcher
	log        *utils.Logger

	workers     int
	scanTimeout time.Duration
}

func NewEngine(db *gorm.DB, ch push.Channel, log *utils.Logger, workers int, scanTimeout time.Duration) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if scanTimeout <= 0 {
		scanTimeout = defaultScanTimeout
	}
	return &Engine{
		db:          db,
		collector:   NewCollector(db),
		dispatcher:  NewDispatcher(db, ch, log),
		log:         log.With("component", "risk_engine"),
		workers:     workers,
		scanTimeout: scanTimeout,
	}
}

// Collector exposes the shared signal computation for read-only consumers.
func (e *Engine) Collector() *Collector {
	return e.collector
}

// ProcessRiskNotifications evaluates every enrollment in the course. One
// student failing never stops the rest; the batch always returns a summary.
func (e *Engine) ProcessRiskNotifications(ctx context.Context, courseID uint) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, e.scanTimeout)
	defer cancel()

	started := time.Now()
	summary := Summary{CourseID: courseID, StartedAt: started}

	var course models.Course
	if err := e.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return summary, fmt.Errorf("course %d not found", courseID)
		}
		return summary, fmt.Errorf("load course: %w", err)
	}

	var enrollments []models.Enrollment
	if err := e.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Find(&enrollments).Error; err != nil {
		return summary, fmt.Errorf("list enrollments: %w", err)
	}
	summary.Scanned = len(enrollments)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.workers)

	for _, enr := range enrollments {
		studentID := enr.UserID
		g.Go(func() error {
			outcome := e.processStudent(ctx, studentID, course)
			mu.Lock()
			switch outcome {
			case outcomeNotified:
				summary.Notified++
			case outcomeLowRisk:
				summary.LowRisk++
			case outcomeThrottled:
				summary.Throttled++
			case outcomeFailed:
				summary.Failed++
			}
			mu.Unlock()
			// Failures are captured per student; never abort the batch.
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(started)
	e.log.Info("risk scan finished",
		"course_id", courseID,
		"scanned", summary.Scanned,
		"notified", summary.Notified,
		"low_risk", summary.LowRisk,
		"throttled", summary.Throttled,
		"failed", summary.Failed,
		"duration", summary.Duration)

	return summary, nil
}

type outcome int

const (
	outcomeNotified outcome = iota
	outcomeLowRisk
	outcomeThrottled
	outcomeFailed
)

func (e *Engine) processStudent(ctx context.Context, studentID uint, course models.Course) outcome {
	signals, err := e.collector.Collect(ctx, studentID, course.ID)
	if err != nil {
		e.log.Warn("signal collection failed",
			"student_id", studentID, "course_id", course.ID, "error", err)
		return outcomeFailed
	}

	assessment := Classify(studentID, course.ID, signals)
	if assessment.Tier == TierLow {
		return outcomeLowRisk
	}

	if !NotificationDue(assessment.Tier, assessment.LastNotified, time.Now()) {
		return outcomeThrottled
	}

	var student models.User
	if err := e.db.WithContext(ctx).First(&student, studentID).Error; err != nil {
		e.log.Warn("student lookup failed",
			"student_id", studentID, "course_id", course.ID, "error", err)
		return outcomeFailed
	}

	msgs := Compose(student.Username, course.Title, assessment)

	if err := e.dispatcher.Dispatch(ctx, assessment, msgs, course.AuthorID); err != nil {
		if errors.Is(err, ErrThrottled) {
			// Another run claimed the window between our read and the commit.
			return outcomeThrottled
		}
		e.log.Warn("notification dispatch failed",
			"student_id", studentID, "course_id", course.ID, "error", err)
		return outcomeFailed
	}

	e.log.Info("student notified",
		"student_id", studentID,
		"course_id", course.ID,
		"tier", assessment.Tier,
		"score", assessment.Score)
	return outcomeNotified
}
