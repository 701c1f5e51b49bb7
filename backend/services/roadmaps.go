package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
	"learnpath/backend/roadmap"
)

type Roadmaps struct {
	env      *Env
	progress *Progress
}

type GenerateInput struct {
	Topic    string          `json:"topic" validate:"required,max=200"`
	Category string          `json:"category" validate:"required,max=50"`
	Goal     string          `json:"goal" validate:"max=500"`
	Outline  roadmap.Outline `json:"outline" validate:"required"`
}

// RoadmapResult pairs the changed roadmap with what the activity earned.
type RoadmapResult struct {
	Roadmap *models.Roadmap       `json:"roadmap"`
	Outcome gamification.Outcome  `json:"outcome"`
	Lesson  *roadmap.LessonResult `json:"lesson,omitempty"`
	Checked *bool                 `json:"checked,omitempty"`
}

func (r *Roadmaps) Generate(ctx context.Context, userID uint, in GenerateInput) (*RoadmapResult, error) {
	nodes, err := roadmap.Build(in.Outline)
	if err != nil {
		return nil, errors.Wrap(ErrInvalid, err.Error())
	}
	rm := models.Roadmap{
		PublicID:           uuid.NewString(),
		UserID:             userID,
		Topic:              in.Topic,
		Category:           in.Category,
		Goal:               in.Goal,
		GeneratedAt:        r.env.now(),
		Outline:            in.Outline,
		CompletedSubtopics: map[string]bool{},
		CompletedKeyPoints: map[string]bool{},
	}
	for _, n := range nodes {
		rm.Nodes = append(rm.Nodes, models.RoadmapNode{
			Key:         n.Key,
			Title:       n.Title,
			Description: n.Description,
			Position:    n.Position,
			Lessons:     n.Lessons,
			Status:      n.Status,
		})
	}

	res := &RoadmapResult{Roadmap: &rm}
	err = r.env.transact(ctx, func(tx *gorm.DB) error {
		rm.ID = 0
		for i := range rm.Nodes {
			rm.Nodes[i].ID, rm.Nodes[i].RoadmapID = 0, 0
		}
		if err := tx.Create(&rm).Error; err != nil {
			return errors.Wrap(err, "create roadmap")
		}
		var err error
		res.Outcome, err = r.progress.apply(tx, userID, gamification.Event{
			Kind:     gamification.KindRoadmapGenerated,
			Category: in.Category,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Roadmaps) List(ctx context.Context, userID uint) ([]models.Roadmap, error) {
	var out []models.Roadmap
	err := r.env.DB.WithContext(ctx).
		Preload("Nodes", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("user_id = ?", userID).
		Order("generated_at desc").
		Find(&out).Error
	return out, errors.Wrap(err, "list roadmaps")
}

// View loads a roadmap the user owns and counts the visit.
func (r *Roadmaps) View(ctx context.Context, userID uint, publicID string) (*RoadmapResult, error) {
	res := &RoadmapResult{}
	err := r.env.transact(ctx, func(tx *gorm.DB) error {
		rm, err := r.owned(tx, userID, publicID)
		if err != nil {
			return err
		}
		res.Roadmap = rm
		res.Outcome, err = r.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindRoadmapViewed})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CompleteLesson advances the node with nodeKey by one lesson.
func (r *Roadmaps) CompleteLesson(ctx context.Context, userID uint, publicID, nodeKey string) (*RoadmapResult, error) {
	res := &RoadmapResult{}
	err := r.env.transact(ctx, func(tx *gorm.DB) error {
		rm, err := r.owned(tx, userID, publicID)
		if err != nil {
			return err
		}
		res.Roadmap = rm
		if rm.CompletedAt != nil {
			return errors.Wrap(ErrConflict, "roadmap already completed")
		}

		nodes := rm.StateNodes()
		lesson, err := roadmap.CompleteLesson(nodes, nodeKey)
		switch {
		case errors.Is(err, roadmap.ErrUnknownNode):
			return errors.Wrap(ErrNotFound, err.Error())
		case errors.Is(err, roadmap.ErrNodeLocked):
			return errors.Wrap(ErrConflict, err.Error())
		case err != nil:
			return err
		}
		res.Lesson = &lesson
		if !lesson.Counted {
			return nil
		}

		for i := range nodes {
			n := &rm.Nodes[i]
			if n.CompletedLessons == nodes[i].CompletedLessons && n.Status == nodes[i].Status {
				continue
			}
			n.CompletedLessons, n.Status = nodes[i].CompletedLessons, nodes[i].Status
			if err := tx.Model(n).Select("completed_lessons", "status").Updates(n).Error; err != nil {
				return errors.Wrap(err, "save node")
			}
		}
		res.Outcome, err = r.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindLessonCompleted})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ToggleSubtopic flips a subtopic checkbox. Only checking it earns XP.
func (r *Roadmaps) ToggleSubtopic(ctx context.Context, userID uint, publicID, key string) (*RoadmapResult, error) {
	return r.toggle(ctx, userID, publicID, key, false)
}

func (r *Roadmaps) ToggleKeyPoint(ctx context.Context, userID uint, publicID, key string) (*RoadmapResult, error) {
	return r.toggle(ctx, userID, publicID, key, true)
}

func (r *Roadmaps) toggle(ctx context.Context, userID uint, publicID, key string, keyPoint bool) (*RoadmapResult, error) {
	res := &RoadmapResult{}
	err := r.env.transact(ctx, func(tx *gorm.DB) error {
		rm, err := r.owned(tx, userID, publicID)
		if err != nil {
			return err
		}
		res.Roadmap = rm
		if !roadmap.ValidItemKey(rm.Outline, key, keyPoint) {
			return errors.Wrapf(ErrNotFound, "roadmap item %q", key)
		}

		var checked bool
		column, kind := "completed_subtopics", gamification.KindSubtopicCompleted
		if keyPoint {
			column, kind = "completed_key_points", gamification.KindKeyPointCompleted
			rm.CompletedKeyPoints, checked = roadmap.Toggle(rm.CompletedKeyPoints, key)
		} else {
			rm.CompletedSubtopics, checked = roadmap.Toggle(rm.CompletedSubtopics, key)
		}
		res.Checked = &checked
		if err := tx.Model(rm).Select(column).Updates(rm).Error; err != nil {
			return errors.Wrap(err, "save roadmap items")
		}
		if !checked {
			return nil
		}
		res.Outcome, err = r.progress.apply(tx, userID, gamification.Event{Kind: kind})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Complete finishes a roadmap. A roadmap completes once.
func (r *Roadmaps) Complete(ctx context.Context, userID uint, publicID string) (*RoadmapResult, error) {
	res := &RoadmapResult{}
	err := r.env.transact(ctx, func(tx *gorm.DB) error {
		rm, err := r.owned(tx, userID, publicID)
		if err != nil {
			return err
		}
		res.Roadmap = rm
		if rm.CompletedAt != nil {
			return errors.Wrap(ErrConflict, "roadmap already completed")
		}
		if !roadmap.AllCompleted(rm.StateNodes()) {
			return errors.Wrap(ErrConflict, "roadmap has unfinished nodes")
		}
		now := r.env.now()
		rm.CompletedAt = &now
		rm.CompletionDays = int(now.Sub(rm.GeneratedAt) / (24 * time.Hour))
		if err := tx.Model(rm).Select("completed_at", "completion_days").Updates(rm).Error; err != nil {
			return errors.Wrap(err, "complete roadmap")
		}
		res.Outcome, err = r.progress.apply(tx, userID, gamification.Event{
			Kind:              gamification.KindRoadmapCompleted,
			Category:          rm.Category,
			GeneratedAt:       rm.GeneratedAt,
			AllNodesCompleted: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Roadmaps) Delete(ctx context.Context, userID uint, publicID string) error {
	return r.env.transact(ctx, func(tx *gorm.DB) error {
		rm, err := r.owned(tx, userID, publicID)
		if err != nil {
			return err
		}
		if err := tx.Where("roadmap_id = ?", rm.ID).Delete(&models.RoadmapNode{}).Error; err != nil {
			return errors.Wrap(err, "delete nodes")
		}
		return errors.Wrap(tx.Delete(rm).Error, "delete roadmap")
	})
}

func (r *Roadmaps) owned(tx *gorm.DB, userID uint, publicID string) (*models.Roadmap, error) {
	var rm models.Roadmap
	err := tx.Preload("Nodes", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("public_id = ?", publicID).
		First(&rm).Error
	if err != nil {
		return nil, notFound(err, "roadmap")
	}
	if rm.UserID != userID {
		return nil, errors.Wrap(ErrForbidden, "roadmap belongs to another user")
	}
	return &rm, nil
}
