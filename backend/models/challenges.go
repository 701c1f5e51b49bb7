package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChallengeUpcoming  = "upcoming"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
)

type Challenge struct {
	gorm.Model
	Title        string    `gorm:"uniqueIndex;not null" json:"title"`
	Description  string    `json:"description"`
	Type         string    `gorm:"not null" json:"type"` // coding, design, learning
	XPReward     int       `gorm:"not null" json:"xp_reward"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `gorm:"index" json:"status"`
	Participants int       `gorm:"default:0" json:"participants"`
}

// StatusAt derives the challenge status from its dates.
func (c *Challenge) StatusAt(now time.Time) string {
	switch {
	case now.Before(c.StartDate):
		return ChallengeUpcoming
	case now.After(c.EndDate):
		return ChallengeCompleted
	default:
		return ChallengeActive
	}
}

type ChallengeParticipant struct {
	gorm.Model
	ChallengeID uint       `gorm:"uniqueIndex:idx_challenge_user;not null" json:"challenge_id"`
	UserID      uint       `gorm:"uniqueIndex:idx_challenge_user;not null" json:"user_id"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
