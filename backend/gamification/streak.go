package gamification

import (
	"math"
	"time"
)

type Streak struct {
	Current      int       `json:"current_streak"`
	Longest      int       `json:"longest_streak"`
	LastActivity time.Time `json:"last_activity_date"`
	Multiplier   float64   `json:"multiplier"`
}

func NewStreak() Streak {
	return Streak{Multiplier: 1.0}
}

func StreakMultiplier(days int) float64 {
	switch {
	case days >= 365:
		return 3.0
	case days >= 90:
		return 2.0
	case days >= 30:
		return 1.5
	case days >= 7:
		return 1.25
	}
	return 1.0
}

func ApplyStreakMultiplier(baseXP, days int) int {
	return int(math.Floor(float64(baseXP) * StreakMultiplier(days)))
}

var streakMilestones = map[int]int{
	7:   100,
	30:  300,
	90:  900,
	180: 1800,
	365: 3600,
}

// MilestoneReward is the one-off bonus for landing exactly on a milestone day.
func MilestoneReward(days int) int {
	return streakMilestones[days]
}

// calendarDays counts midnights between from and to, both read in to's
// location. A from in the future counts as the same day.
func calendarDays(from, to time.Time) int {
	from = from.In(to.Location())
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// ContinuesStreak reports whether activity at now keeps a streak whose
// last activity was at last: same day or the next calendar day.
func ContinuesStreak(last, now time.Time) bool {
	if last.IsZero() {
		return false
	}
	return calendarDays(last, now) <= 1
}

// AdvanceStreak records activity at now. The bool reports whether the
// day count changed, which is false for repeat activity on the same day.
func AdvanceStreak(s Streak, now time.Time) (Streak, bool) {
	next := s.Current
	switch {
	case s.LastActivity.IsZero():
		next = 1
	case !ContinuesStreak(s.LastActivity, now):
		next = 1
	case calendarDays(s.LastActivity, now) == 1:
		next = s.Current + 1
	case s.Current == 0:
		next = 1
	}

	out := Streak{
		Current:      next,
		Longest:      s.Longest,
		LastActivity: now,
		Multiplier:   StreakMultiplier(next),
	}
	if next > out.Longest {
		out.Longest = next
	}
	return out, next != s.Current
}

// ExpireStreak zeroes a streak that can no longer continue at now.
func ExpireStreak(s Streak, now time.Time) (Streak, bool) {
	if s.Current == 0 || ContinuesStreak(s.LastActivity, now) {
		return s, false
	}
	s.Current = 0
	s.Multiplier = StreakMultiplier(0)
	return s, true
}
