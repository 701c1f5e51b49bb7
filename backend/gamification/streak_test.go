package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var wednesdayNoon = time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

func TestStreakMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, StreakMultiplier(0))
	assert.Equal(t, 1.0, StreakMultiplier(6))
	assert.Equal(t, 1.25, StreakMultiplier(7))
	assert.Equal(t, 1.5, StreakMultiplier(30))
	assert.Equal(t, 2.0, StreakMultiplier(90))
	assert.Equal(t, 3.0, StreakMultiplier(365))
	assert.Equal(t, 125, ApplyStreakMultiplier(100, 10))
	assert.Equal(t, 93, ApplyStreakMultiplier(75, 7))
}

func TestMilestoneReward(t *testing.T) {
	assert.Equal(t, 100, MilestoneReward(7))
	assert.Equal(t, 3600, MilestoneReward(365))
	assert.Equal(t, 0, MilestoneReward(8))
}

func TestContinuesStreak(t *testing.T) {
	lateYesterday := time.Date(2024, time.March, 12, 23, 59, 0, 0, time.UTC)
	earlyToday := time.Date(2024, time.March, 13, 0, 1, 0, 0, time.UTC)

	assert.True(t, ContinuesStreak(lateYesterday, earlyToday))
	assert.True(t, ContinuesStreak(wednesdayNoon, wednesdayNoon.Add(time.Hour)))
	assert.False(t, ContinuesStreak(wednesdayNoon.AddDate(0, 0, -2), wednesdayNoon))
	assert.False(t, ContinuesStreak(time.Time{}, wednesdayNoon))
}

func TestContinuesStreakUsesCallerLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 12th is 05:00 on the 13th in Tokyo.
	last := time.Date(2024, time.March, 12, 20, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.March, 14, 8, 0, 0, 0, tokyo)

	assert.True(t, ContinuesStreak(last, now))
	assert.False(t, ContinuesStreak(last, now.In(time.UTC).AddDate(0, 0, 1)))
}

func TestAdvanceStreak(t *testing.T) {
	t.Run("first activity starts at one", func(t *testing.T) {
		s, changed := AdvanceStreak(NewStreak(), wednesdayNoon)
		assert.True(t, changed)
		assert.Equal(t, 1, s.Current)
		assert.Equal(t, 1, s.Longest)
		assert.Equal(t, wednesdayNoon, s.LastActivity)
	})

	t.Run("same day is idempotent", func(t *testing.T) {
		start := Streak{Current: 4, Longest: 9, LastActivity: wednesdayNoon.Add(-time.Hour), Multiplier: 1}
		s, changed := AdvanceStreak(start, wednesdayNoon)
		assert.False(t, changed)
		assert.Equal(t, 4, s.Current)
		assert.Equal(t, 9, s.Longest)
	})

	t.Run("next day increments", func(t *testing.T) {
		start := Streak{Current: 6, Longest: 6, LastActivity: wednesdayNoon.AddDate(0, 0, -1), Multiplier: 1}
		s, changed := AdvanceStreak(start, wednesdayNoon)
		assert.True(t, changed)
		assert.Equal(t, 7, s.Current)
		assert.Equal(t, 7, s.Longest)
		assert.Equal(t, 1.25, s.Multiplier)
	})

	t.Run("gap resets to one", func(t *testing.T) {
		start := Streak{Current: 40, Longest: 40, LastActivity: wednesdayNoon.AddDate(0, 0, -3), Multiplier: 1.5}
		s, changed := AdvanceStreak(start, wednesdayNoon)
		assert.True(t, changed)
		assert.Equal(t, 1, s.Current)
		assert.Equal(t, 40, s.Longest)
		assert.Equal(t, 1.0, s.Multiplier)
	})
}

func TestExpireStreak(t *testing.T) {
	alive := Streak{Current: 3, Longest: 3, LastActivity: wednesdayNoon.AddDate(0, 0, -1), Multiplier: 1}
	s, expired := ExpireStreak(alive, wednesdayNoon)
	assert.False(t, expired)
	assert.Equal(t, 3, s.Current)

	lapsed := Streak{Current: 12, Longest: 20, LastActivity: wednesdayNoon.AddDate(0, 0, -2), Multiplier: 1.25}
	s, expired = ExpireStreak(lapsed, wednesdayNoon)
	assert.True(t, expired)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 20, s.Longest)
	assert.Equal(t, 1.0, s.Multiplier)

	next, changed := AdvanceStreak(s, wednesdayNoon)
	assert.True(t, changed)
	assert.Equal(t, 1, next.Current)
}
