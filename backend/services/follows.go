package services

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

const FollowNone = "none"

type FollowResult struct {
	Status  string               `json:"status"`
	Outcome gamification.Outcome `json:"outcome"`
}

// Follow asks to follow target. Private accounts get a pending request,
// public ones are followed at once.
func (s *Social) Follow(ctx context.Context, followerID, targetID uint) (*FollowResult, error) {
	if followerID == targetID {
		return nil, errors.Wrap(ErrInvalid, "cannot follow yourself")
	}
	res := &FollowResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		var target models.User
		if err := tx.First(&target, targetID).Error; err != nil {
			return notFound(err, "user")
		}
		var existing models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).First(&existing).Error
		if err == nil {
			res.Status = existing.Status
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "load follow")
		}
		// A previously removed follow is reused so the pair stays unique.
		if err := tx.Unscoped().
			Where("follower_id = ? AND following_id = ?", followerID, targetID).
			Delete(&models.Follow{}).Error; err != nil {
			return errors.Wrap(err, "clear old follow")
		}

		status := models.FollowAccepted
		if target.IsPrivate {
			status = models.FollowPending
		}
		follow := models.Follow{FollowerID: followerID, FollowingID: targetID, Status: status}
		if err := tx.Create(&follow).Error; err != nil {
			return errors.Wrap(err, "create follow")
		}
		res.Status = status
		if status == models.FollowPending {
			return s.notify.create(tx, models.Notification{
				UserID: targetID, ActorID: followerID, Type: models.NotificationFollow, Text: "requested to follow you",
			})
		}
		res.Outcome, err = s.accepted(tx, followerID, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Accept approves a pending request from followerID to targetID.
func (s *Social) Accept(ctx context.Context, targetID, followerID uint) (*FollowResult, error) {
	res := &FollowResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		var follow models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).First(&follow).Error
		if err != nil {
			return notFound(err, "follow request")
		}
		if follow.Status != models.FollowPending {
			return errors.Wrap(ErrConflict, "follow request already accepted")
		}
		if err := tx.Model(&follow).Update("status", models.FollowAccepted).Error; err != nil {
			return errors.Wrap(err, "accept follow")
		}
		res.Status = models.FollowAccepted
		res.Outcome, err = s.accepted(tx, followerID, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Decline drops a pending request.
func (s *Social) Decline(ctx context.Context, targetID, followerID uint) error {
	res := s.env.DB.WithContext(ctx).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, targetID, models.FollowPending).
		Delete(&models.Follow{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "decline follow")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "follow request")
	}
	return nil
}

// Unfollow removes a follow or withdraws a request. Counts only move if it
// had been accepted.
func (s *Social) Unfollow(ctx context.Context, followerID, targetID uint) error {
	return s.env.transact(ctx, func(tx *gorm.DB) error {
		var follow models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).First(&follow).Error
		if err != nil {
			return notFound(err, "follow")
		}
		if err := tx.Delete(&follow).Error; err != nil {
			return errors.Wrap(err, "delete follow")
		}
		if follow.Status != models.FollowAccepted {
			return nil
		}
		if err := bumpUser(tx, followerID, "following_count", -1); err != nil {
			return err
		}
		return bumpUser(tx, targetID, "followers_count", -1)
	})
}

func (s *Social) FollowStatus(ctx context.Context, followerID, targetID uint) (string, error) {
	var follow models.Follow
	err := s.env.DB.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FollowNone, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "load follow")
	}
	if follow.Status == models.FollowAccepted {
		return "following", nil
	}
	return follow.Status, nil
}

func (s *Social) Followers(ctx context.Context, userID uint, page Page) ([]models.User, error) {
	return s.followList(ctx, "follower_id", "following_id", userID, models.FollowAccepted, page)
}

func (s *Social) Following(ctx context.Context, userID uint, page Page) ([]models.User, error) {
	return s.followList(ctx, "following_id", "follower_id", userID, models.FollowAccepted, page)
}

func (s *Social) PendingRequests(ctx context.Context, userID uint, page Page) ([]models.User, error) {
	return s.followList(ctx, "follower_id", "following_id", userID, models.FollowPending, page)
}

func (s *Social) followList(ctx context.Context, pick, match string, userID uint, status string, page Page) ([]models.User, error) {
	page = page.normalize()
	ids := s.env.DB.Model(&models.Follow{}).Select(pick).Where(match+" = ? AND status = ?", userID, status)
	var users []models.User
	err := s.env.DB.WithContext(ctx).
		Where("id IN (?)", ids).
		Order("username_lower").
		Limit(page.Limit).Offset(page.Offset).
		Find(&users).Error
	return users, errors.Wrap(err, "list follows")
}

// accepted moves the counters and credits both sides of a new follow.
func (s *Social) accepted(tx *gorm.DB, followerID, targetID uint) (gamification.Outcome, error) {
	if err := bumpUser(tx, followerID, "following_count", 1); err != nil {
		return gamification.Outcome{}, err
	}
	if err := bumpUser(tx, targetID, "followers_count", 1); err != nil {
		return gamification.Outcome{}, err
	}
	if err := s.notify.create(tx, models.Notification{
		UserID: targetID, ActorID: followerID, Type: models.NotificationFollow, Text: "started following you",
	}); err != nil {
		return gamification.Outcome{}, err
	}
	if _, err := s.progress.apply(tx, targetID, gamification.Event{Kind: gamification.KindGainedFollower}); err != nil {
		return gamification.Outcome{}, err
	}
	return s.progress.apply(tx, followerID, gamification.Event{Kind: gamification.KindFollowedUser})
}
