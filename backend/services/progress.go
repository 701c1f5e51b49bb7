package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

type Progress struct {
	env *Env
}

// Get returns the user's progress, creating it on first use.
func (p *Progress) Get(ctx context.Context, userID uint) (*models.Progress, error) {
	var row *models.Progress
	err := p.env.transact(ctx, func(tx *gorm.DB) error {
		var (
			reconciled bool
			err        error
		)
		row, reconciled, err = p.load(tx, userID)
		if err != nil {
			return err
		}
		if reconciled {
			return p.save(tx, row)
		}
		return nil
	})
	return row, err
}

// Record applies one activity event for userID.
func (p *Progress) Record(ctx context.Context, userID uint, ev gamification.Event) (gamification.Outcome, error) {
	var out gamification.Outcome
	err := p.env.transact(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = p.apply(tx, userID, ev)
		return err
	})
	return out, err
}

func (p *Progress) CheckIn(ctx context.Context, userID uint) (gamification.Outcome, error) {
	return p.Record(ctx, userID, gamification.Event{Kind: gamification.KindDailyCheckIn})
}

// apply runs inside a caller's transaction.
func (p *Progress) apply(tx *gorm.DB, userID uint, ev gamification.Event) (gamification.Outcome, error) {
	row, _, err := p.load(tx, userID)
	if err != nil {
		return gamification.Outcome{}, err
	}
	now := p.env.now()
	out, err := p.env.Engine.Apply(&row.State, ev, now)
	if err != nil {
		return out, errors.Wrap(ErrInvalid, err.Error())
	}
	if err := p.save(tx, row); err != nil {
		return out, err
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Kind:       string(ev.Kind),
		XPAwarded:  out.TotalXP(),
		Unlocks:    len(out.Unlocks),
		LevelAfter: row.State.Level,
		OccurredAt: now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return out, errors.Wrap(err, "log activity")
	}

	if len(out.Unlocks) > 0 || out.LevelUp != nil {
		fields := []zap.Field{
			zap.Uint("user_id", userID),
			zap.String("event", string(ev.Kind)),
			zap.Int("xp", row.State.XP),
			zap.Int("unlocks", len(out.Unlocks)),
		}
		if out.LevelUp != nil {
			fields = append(fields, zap.Int("level", out.LevelUp.To))
		}
		p.env.Log.Info("progression", fields...)
	}
	return out, nil
}

// load returns the user's row, creating it on first use. reconciled
// reports that a stored state was brought up to date with the catalog and
// has not been written back yet.
func (p *Progress) load(tx *gorm.DB, userID uint) (row *models.Progress, reconciled bool, err error) {
	row = &models.Progress{}
	err = tx.Where("user_id = ?", userID).First(row).Error
	if err == nil {
		return row, row.State.Reconcile(p.env.Engine.Catalog()), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.Wrap(err, "load progress")
	}

	row = &models.Progress{UserID: userID, State: gamification.NewState(p.env.Engine.Catalog())}
	row.Sync(p.env.now())
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return nil, false, errors.Wrap(res.Error, "create progress")
	}
	if res.RowsAffected == 0 {
		// Another writer created it first.
		return nil, false, errStale
	}
	return row, false, nil
}

// save writes row if nobody else has since it was loaded.
func (p *Progress) save(tx *gorm.DB, row *models.Progress) error {
	prev := row.Version
	row.Version++
	row.Sync(p.env.now())
	res := tx.Model(row).
		Where("version = ?", prev).
		Select("version", "xp", "level", "streak_days", "state", "last_synced").
		Updates(row)
	if res.Error != nil {
		return errors.Wrap(res.Error, "save progress")
	}
	if res.RowsAffected == 0 {
		return errStale
	}
	return nil
}

// Achievements lists the catalog merged with the user's progress, filtered
// to one category when only is non-empty.
func (p *Progress) Achievements(ctx context.Context, userID uint, only gamification.Category) ([]gamification.AchievementView, error) {
	row, err := p.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if only != "" && !only.Valid() {
		return nil, errors.Wrapf(ErrInvalid, "unknown category %q", only)
	}
	return row.State.Views(p.env.Engine.Catalog(), only), nil
}

// ActivitySummary breaks down the user's recorded events by kind since
// the given time.
func (p *Progress) ActivitySummary(ctx context.Context, userID uint, since time.Time) ([]models.ActivitySummary, error) {
	var rows []models.ActivitySummary
	err := p.env.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Select("kind, count(*) as count, coalesce(sum(xp_awarded), 0) as xp").
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Group("kind").
		Order("count desc, kind").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "summarize activity")
}

// ExpireStreaks zeroes every streak whose last activity is older than
// yesterday in the configured zone. It returns how many were reset.
func (p *Progress) ExpireStreaks(ctx context.Context) (int, error) {
	now := p.env.now()
	var ids []uint
	if err := p.env.DB.WithContext(ctx).Model(&models.Progress{}).
		Where("streak_days > 0").Pluck("user_id", &ids).Error; err != nil {
		return 0, errors.Wrap(err, "list active streaks")
	}

	expired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		var reset bool
		err := p.env.transact(ctx, func(tx *gorm.DB) error {
			row, _, err := p.load(tx, id)
			if err != nil {
				return err
			}
			row.State.Streak, reset = gamification.ExpireStreak(row.State.Streak, now)
			if !reset {
				return nil
			}
			return p.save(tx, row)
		})
		if err != nil {
			p.env.Log.Warn("streak expiry failed", zap.Uint("user_id", id), zap.Error(err))
			continue
		}
		if reset {
			expired++
		}
	}
	return expired, nil
}
