package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

type Challenges struct {
	env      *Env
	progress *Progress
}

// ChallengeView is a challenge with the caller's participation.
type ChallengeView struct {
	models.Challenge
	Joined    bool `json:"joined"`
	Completed bool `json:"completed"`
}

func (c *Challenges) List(ctx context.Context, userID uint, status string) ([]ChallengeView, error) {
	q := c.env.DB.WithContext(ctx).Order("start_date, id")
	if status != "" {
		switch status {
		case models.ChallengeUpcoming, models.ChallengeActive, models.ChallengeCompleted:
		default:
			return nil, errors.Wrapf(ErrInvalid, "unknown challenge status %q", status)
		}
		q = q.Where("status = ?", status)
	}
	var list []models.Challenge
	if err := q.Find(&list).Error; err != nil {
		return nil, errors.Wrap(err, "list challenges")
	}

	var joined []models.ChallengeParticipant
	if err := c.env.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&joined).Error; err != nil {
		return nil, errors.Wrap(err, "list participation")
	}
	mine := make(map[uint]models.ChallengeParticipant, len(joined))
	for _, p := range joined {
		mine[p.ChallengeID] = p
	}

	out := make([]ChallengeView, len(list))
	for i, ch := range list {
		p, ok := mine[ch.ID]
		out[i] = ChallengeView{Challenge: ch, Joined: ok, Completed: ok && p.CompletedAt != nil}
	}
	return out, nil
}

type ChallengeResult struct {
	Challenge *models.Challenge    `json:"challenge"`
	Outcome   gamification.Outcome `json:"outcome"`
}

// Join enrolls the user. Joining twice is a no-op; finished challenges
// cannot be joined.
func (c *Challenges) Join(ctx context.Context, userID, challengeID uint) (*ChallengeResult, error) {
	res := &ChallengeResult{}
	err := c.env.transact(ctx, func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := tx.First(&ch, challengeID).Error; err != nil {
			return notFound(err, "challenge")
		}
		res.Challenge = &ch
		if ch.StatusAt(c.env.now()) == models.ChallengeCompleted {
			return errors.Wrap(ErrConflict, "challenge has ended")
		}
		var n int64
		if err := tx.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			Count(&n).Error; err != nil {
			return errors.Wrap(err, "check participation")
		}
		if n > 0 {
			return nil
		}
		if err := tx.Create(&models.ChallengeParticipant{ChallengeID: challengeID, UserID: userID}).Error; err != nil {
			return errors.Wrap(err, "join challenge")
		}
		if err := tx.Model(&ch).UpdateColumn("participants", gorm.Expr("participants + 1")).Error; err != nil {
			return errors.Wrap(err, "count participant")
		}
		ch.Participants++
		var err error
		res.Outcome, err = c.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindChallengeJoined})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Complete pays the challenge reward. Each participant is paid once.
func (c *Challenges) Complete(ctx context.Context, userID, challengeID uint) (*ChallengeResult, error) {
	res := &ChallengeResult{}
	err := c.env.transact(ctx, func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := tx.First(&ch, challengeID).Error; err != nil {
			return notFound(err, "challenge")
		}
		res.Challenge = &ch
		now := c.env.now()
		if ch.StatusAt(now) == models.ChallengeUpcoming {
			return errors.Wrap(ErrConflict, "challenge has not started")
		}
		var p models.ChallengeParticipant
		err := tx.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(ErrForbidden, "join the challenge first")
		}
		if err != nil {
			return errors.Wrap(err, "load participation")
		}
		if p.CompletedAt != nil {
			return errors.Wrap(ErrConflict, "challenge already completed")
		}
		if err := tx.Model(&p).Update("completed_at", now).Error; err != nil {
			return errors.Wrap(err, "complete challenge")
		}
		res.Outcome, err = c.progress.apply(tx, userID, gamification.Event{
			Kind:     gamification.KindChallengeCompleted,
			XPReward: ch.XPReward,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RefreshStatuses rewrites each challenge's status from its dates and
// returns how many changed.
func (c *Challenges) RefreshStatuses(ctx context.Context) (int, error) {
	now := c.env.now()
	var list []models.Challenge
	if err := c.env.DB.WithContext(ctx).Find(&list).Error; err != nil {
		return 0, errors.Wrap(err, "list challenges")
	}
	changed := 0
	for i := range list {
		ch := &list[i]
		status := ch.StatusAt(now)
		if status == ch.Status {
			continue
		}
		if err := c.env.DB.WithContext(ctx).Model(ch).Update("status", status).Error; err != nil {
			return changed, errors.Wrapf(err, "update challenge %d", ch.ID)
		}
		changed++
	}
	return changed, nil
}

// Seed inserts the starter challenges when the table is empty.
func (c *Challenges) Seed(ctx context.Context) (int, error) {
	var n int64
	if err := c.env.DB.WithContext(ctx).Model(&models.Challenge{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count challenges")
	}
	if n > 0 {
		return 0, nil
	}
	now := c.env.now()
	day := 24 * time.Hour
	starters := []models.Challenge{
		{
			Title:       "30 Days of Code",
			Description: "Code every day for 30 days straight.",
			Type:        "coding",
			XPReward:    500,
			StartDate:   now,
			EndDate:     now.Add(30 * day),
		},
		{
			Title:       "UI Design Sprint",
			Description: "Ship one interface design a day for a week.",
			Type:        "design",
			XPReward:    300,
			StartDate:   now,
			EndDate:     now.Add(7 * day),
		},
		{
			Title:       "React Mastery",
			Description: "Finish a complete React roadmap.",
			Type:        "learning",
			XPReward:    1000,
			StartDate:   now.Add(2 * day),
			EndDate:     now.Add(14 * day),
		},
	}
	for i := range starters {
		starters[i].Status = starters[i].StatusAt(now)
	}
	if err := c.env.DB.WithContext(ctx).Create(&starters).Error; err != nil {
		return 0, errors.Wrap(err, "seed challenges")
	}
	return len(starters), nil
}
