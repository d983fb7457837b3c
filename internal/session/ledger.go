package session

import (
	"fmt"
	"strings"
	"time"
)

// StreakRule decides whether a save continues the streak.
type StreakRule string

const (
	// StreakRuleCalendar continues the streak when the previous saved day is yesterday.
	StreakRuleCalendar StreakRule = "calendar"
	// StreakRule24h continues the streak when the previous scoring event is at most 24 hours old.
	StreakRule24h StreakRule = "24h"
)

func ParseStreakRule(s string) (StreakRule, error) {
	switch StreakRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", StreakRuleCalendar:
		return StreakRuleCalendar, nil
	case StreakRule24h:
		return StreakRule24h, nil
	default:
		return "", fmt.Errorf("unknown streak rule [%s]", s)
	}
}

// SameDayPolicy decides what happens to a second submission on an already saved day.
type SameDayPolicy string

const (
	SameDayRestart SameDayPolicy = "restart"
	SameDayReject  SameDayPolicy = "reject"
)

func ParseSameDayPolicy(s string) (SameDayPolicy, error) {
	switch SameDayPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SameDayRestart:
		return SameDayRestart, nil
	case SameDayReject:
		return SameDayReject, nil
	default:
		return "", fmt.Errorf("unknown same day policy [%s]", s)
	}
}

type Profile struct {
	UserID          int64      `json:"userId"`
	Points          int        `json:"points"`
	Streak          int        `json:"streak"`
	LastActivity    *time.Time `json:"lastActivity,omitempty"`
	LastSessionDate *time.Time `json:"lastSessionDate,omitempty"`
}

// SavedOn reports whether the last saved session is on day.
func (p *Profile) SavedOn(day time.Time) bool {
	return p.LastSessionDate != nil && p.LastSessionDate.Equal(day)
}

type SaveOutcome struct {
	Restart     bool
	PointsDelta int
}

// ApplySave moves the profile to the state after a successful save on today.
// previous is the record already stored for today, nil if there is none.
func ApplySave(p *Profile, previous *Record, points int, now, today time.Time, rule StreakRule) SaveOutcome {
	outcome := SaveOutcome{
		Restart: previous != nil || p.SavedOn(today),
	}

	switch {
	case outcome.Restart:
		// restart keeps the streak and replaces the day's points
		if previous != nil {
			outcome.PointsDelta -= previous.Points
		}
	case continuesStreak(p, now, today, rule):
		p.Streak++
	default:
		p.Streak = 1
	}

	outcome.PointsDelta += points
	p.Points += outcome.PointsDelta
	p.LastActivity = &now
	p.LastSessionDate = &today

	return outcome
}

func continuesStreak(p *Profile, now, today time.Time, rule StreakRule) bool {
	switch rule {
	case StreakRule24h:
		if p.LastActivity == nil || p.LastSessionDate == nil || !p.LastSessionDate.Before(today) {
			return false
		}
		gap := now.Sub(*p.LastActivity)
		return gap > 0 && gap <= 24*time.Hour
	default:
		return p.LastSessionDate != nil && DaysBetween(*p.LastSessionDate, today) == 1
	}
}

// ApplyDelete reverses the contribution of a deleted record. latest is the
// most recent remaining record, nil if none is left; it becomes the last
// saved session so the profile keeps pointing at an existing record.
// This deliberately differs from clearing the last session date, so a save
// followed by its delete restores the profile it started from.
func ApplyDelete(p *Profile, deleted *Record, latest *Record) {
	p.Points -= deleted.Points
	p.Streak = max(p.Streak-1, 0)

	if latest == nil {
		p.LastSessionDate = nil
		p.LastActivity = nil
		return
	}

	day := latest.Day
	activity := latest.UpdatedAt
	p.LastSessionDate = &day
	p.LastActivity = &activity
}
