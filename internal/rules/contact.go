package rules

import (
	"time"

	"gigbook/internal/calendar"
	"gigbook/shared/go/config"
	"gigbook/shared/go/models"
)

// IsSuppressed reports whether contact reminders for a venue are on hold:
// any recent awaiting-response contact or any follow-up still in the future.
// logs are all of the venue's contact logs.
func IsSuppressed(logs []models.ContactLog, today time.Time, th config.Thresholds) bool {
	today = calendar.DateOf(today)
	for i := range logs {
		log := &logs[i]
		if log.Outcome == models.OutcomeAwaitingResponse &&
			calendar.DaysBetween(calendar.DateOf(log.ContactedAt), today) < th.AwaitingResponseDays {
			return true
		}
		if log.FollowUpDate != nil && calendar.DateOf(*log.FollowUpDate).After(today) {
			return true
		}
	}
	return false
}

// LastContact returns the most recent contact date.
func LastContact(logs []models.ContactLog) (time.Time, bool) {
	var latest time.Time
	for i := range logs {
		d := calendar.DateOf(logs[i].ContactedAt)
		if i == 0 || d.After(latest) {
			latest = d
		}
	}
	return latest, len(logs) > 0
}

// DaysSinceContact returns the days since the most recent contact. ok is
// false when the venue was never contacted.
func DaysSinceContact(logs []models.ContactLog, today time.Time) (days int, ok bool) {
	latest, ok := LastContact(logs)
	if !ok {
		return 0, false
	}
	return calendar.DaysBetween(latest, calendar.DateOf(today)), true
}

// ContactDue reports whether a venue should be contacted: not suppressed and
// never contacted or not contacted for the reminder period.
func ContactDue(logs []models.ContactLog, today time.Time, th config.Thresholds) bool {
	if IsSuppressed(logs, today, th) {
		return false
	}
	days, ok := DaysSinceContact(logs, today)
	return !ok || days >= th.ContactReminderDays
}
