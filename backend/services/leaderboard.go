package services

import (
	"context"

	"github.com/pkg/errors"

	"learnpath/backend/models"
)

type Leaderboard struct {
	env *Env
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	StreakDays  int    `json:"streak_days"`
}

// Top returns the n users with the most XP. Ties go to the older account.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 || n > 100 {
		n = 10
	}
	var out []LeaderboardEntry
	err := l.env.DB.WithContext(ctx).
		Table("progresses").
		Select("progresses.user_id, users.username, users.display_name, users.photo_url, progresses.xp, progresses.level, progresses.streak_days").
		Joins("JOIN users ON users.id = progresses.user_id AND users.deleted_at IS NULL").
		Where("progresses.deleted_at IS NULL").
		Order("progresses.xp desc, progresses.user_id").
		Limit(n).
		Scan(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "load leaderboard")
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Rank places one user on the board.
func (l *Leaderboard) Rank(ctx context.Context, userID uint) (*LeaderboardEntry, error) {
	db := l.env.DB.WithContext(ctx)
	var p models.Progress
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, "progress")
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	var ahead int64
	err := db.Model(&models.Progress{}).
		Where("xp > ? OR (xp = ? AND user_id < ?)", p.XP, p.XP, userID).
		Count(&ahead).Error
	if err != nil {
		return nil, errors.Wrap(err, "rank user")
	}
	return &LeaderboardEntry{
		Rank:        int(ahead) + 1,
		UserID:      userID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		XP:          p.XP,
		Level:       p.Level,
		StreakDays:  p.StreakDays,
	}, nil
}
