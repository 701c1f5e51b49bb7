// Package services owns persistence and the rules around it. Every write
// that counts as user activity is folded into the progression engine in
// the same transaction.
package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrAuth      = errors.New("unauthenticated")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid request")

	// errStale is returned from inside a transaction when an optimistic
	// version check lost a race. transact retries it.
	errStale = errors.New("stale progress version")
)

const maxAttempts = 3

type Env struct {
	DB     *gorm.DB
	Log    *zap.Logger
	Engine *gamification.Engine
	Clock  func() time.Time
	Loc    *time.Location
}

func (e *Env) now() time.Time {
	t := time.Now()
	if e.Clock != nil {
		t = e.Clock()
	}
	if e.Loc != nil {
		t = t.In(e.Loc)
	}
	return t
}

// transact runs fn in a transaction, retrying when a progress row changed
// underneath it.
func (e *Env) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = e.DB.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, errStale) {
			return err
		}
		e.Log.Debug("retrying after stale progress", zap.Int("attempt", attempt))
	}
	return errors.Wrap(ErrConflict, "progress changed concurrently")
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrapf(err, "load %s", what)
}

// Services groups every service over one Env.
type Services struct {
	Env           *Env
	Users         *Users
	Progress      *Progress
	Roadmaps      *Roadmaps
	Projects      *Projects
	Social        *Social
	Messaging     *Messaging
	Notifications *Notifications
	Challenges    *Challenges
	Leaderboard   *Leaderboard
}

func New(env *Env) *Services {
	if env.Engine == nil {
		env.Engine = gamification.NewEngine(nil)
	}
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	progress := &Progress{env: env}
	notifications := &Notifications{env: env}
	return &Services{
		Env:           env,
		Users:         &Users{env: env, progress: progress},
		Progress:      progress,
		Roadmaps:      &Roadmaps{env: env, progress: progress},
		Projects:      &Projects{env: env, progress: progress},
		Social:        &Social{env: env, progress: progress, notify: notifications},
		Messaging:     &Messaging{env: env, progress: progress},
		Notifications: notifications,
		Challenges:    &Challenges{env: env, progress: progress},
		Leaderboard:   &Leaderboard{env: env},
	}
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
