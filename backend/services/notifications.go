package services

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/models"
)

type Notifications struct {
	env *Env
}

// create stores a notification inside tx. Users are never notified of
// their own actions.
func (n *Notifications) create(tx *gorm.DB, note models.Notification) error {
	if note.UserID == note.ActorID {
		return nil
	}
	return errors.Wrap(tx.Create(&note).Error, "create notification")
}

func (n *Notifications) List(ctx context.Context, userID uint, unreadOnly bool, page Page) ([]models.Notification, int64, error) {
	page = page.normalize()
	q := n.env.DB.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count notifications")
	}
	var out []models.Notification
	err := q.Order("created_at desc, id desc").Limit(page.Limit).Offset(page.Offset).Find(&out).Error
	return out, total, errors.Wrap(err, "list notifications")
}

func (n *Notifications) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := n.env.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&c).Error
	return c, errors.Wrap(err, "count unread")
}

func (n *Notifications) MarkRead(ctx context.Context, userID, id uint) error {
	res := n.env.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "notification")
	}
	return nil
}

func (n *Notifications) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := n.env.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, errors.Wrap(res.Error, "mark all read")
}
