package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"learnpath/backend/gamification"
)

// Progress holds one user's progression document. XP, Level and
// StreakDays mirror the document so the leaderboard can sort in SQL.
// Version guards concurrent writers.
type Progress struct {
	gorm.Model
	UserID     uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	Version    int                `gorm:"not null;default:0" json:"-"`
	XP         int                `gorm:"index;default:0" json:"xp"`
	Level      int                `gorm:"default:1" json:"level"`
	StreakDays int                `gorm:"default:0" json:"streak_days"`
	State      gamification.State `gorm:"serializer:json;type:text" json:"state"`
	LastSynced time.Time          `json:"last_synced_at"`
}

// Sync copies the denormalized columns out of State.
func (p *Progress) Sync(now time.Time) {
	p.XP = p.State.XP
	p.Level = p.State.Level
	p.StreakDays = p.State.Streak.Current
	p.LastSynced = now
}

func lower(s string) string { return strings.ToLower(s) }
