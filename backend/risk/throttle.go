package risk

import "time"

// ThrottleWindow is the minimum interval between two risk notifications
// for the same (student, course) pair.
const ThrottleWindow = 7 * 24 * time.Hour

// NotificationDue reports whether a notification should be attempted.
// This is an advisory read: the dispatcher's guarded marker update inside
// the transaction is the actual commit point for de-duplication, so
// overlapping batch runs cannot double-notify even when both pass here.
func NotificationDue(tier Tier, lastNotified *time.Time, now time.Time) bool {
	if tier == TierLow {
		return false
	}
	if lastNotified == nil {
		return true
	}
	return now.Sub(*lastNotified) >= ThrottleWindow
}
