package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityLog records every event fed to the progression engine and what
// it paid out.
type ActivityLog struct {
	gorm.Model
	UserID     uint      `gorm:"index" json:"user_id"`
	Kind       string    `gorm:"index" json:"kind"`
	XPAwarded  int       `json:"xp_awarded"`
	Unlocks    int       `json:"unlocks"`
	LevelAfter int       `json:"level_after"`
	OccurredAt time.Time `gorm:"index" json:"occurred_at"`
}

// ActivitySummary is one row of the per-kind activity breakdown.
type ActivitySummary struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
	XP    int64  `json:"xp"`
}
