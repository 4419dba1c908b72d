package risk

import "time"

type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// Factor names a signal that contributed to the score. Factors always
// appear in the order below.
type Factor string

const (
	FactorInactivity Factor = "inactivity"
	FactorCompletion Factor = "completion"
	FactorDeadlines  Factor = "deadlines"
	FactorEngagement Factor = "engagement"
)

// Assessment is the transient per-run result; it is never persisted.
type Assessment struct {
	StudentID    uint
	CourseID     uint
	Tier         Tier
	Score        int
	Factors      []Factor
	LastNotified *time.Time
}

const (
	scoreHighCutoff   = 6
	scoreMediumCutoff = 3
)

// Classify applies the fixed weighted-score table. No I/O, deterministic.
func Classify(studentID, courseID uint, s Signals) Assessment {
	score := 0
	var factors []Factor

	switch {
	case s.InactivityDays > 14:
		score += 3
		factors = append(factors, FactorInactivity)
	case s.InactivityDays > 7:
		score += 2
		factors = append(factors, FactorInactivity)
	}

	if s.CompletionRatio < 0.3 {
		score += 2
		factors = append(factors, FactorCompletion)
	}

	switch {
	case s.MissedDeadlines > 2:
		score += 3
		factors = append(factors, FactorDeadlines)
	case s.MissedDeadlines > 0:
		score += 1
		factors = append(factors, FactorDeadlines)
	}

	if s.EngagementScore < 30 {
		score += 2
		factors = append(factors, FactorEngagement)
	}

	tier := TierLow
	switch {
	case score >= scoreHighCutoff:
		tier = TierHigh
	case score >= scoreMediumCutoff:
		tier = TierMedium
	}

	return Assessment{
		StudentID:    studentID,
		CourseID:     courseID,
		Tier:         tier,
		Score:        score,
		Factors:      factors,
		LastNotified: s.LastNotified,
	}
}
