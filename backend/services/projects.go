package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

type Projects struct {
	env      *Env
	progress *Progress
}

type ProjectInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	RepoURL     string `json:"repo_url" validate:"omitempty,url"`
	RoadmapID   string `json:"roadmap_id" validate:"omitempty,uuid"`
}

type ProjectResult struct {
	Project *models.Project      `json:"project"`
	Outcome gamification.Outcome `json:"outcome"`
}

func (p *Projects) Create(ctx context.Context, userID uint, in ProjectInput) (*ProjectResult, error) {
	res := &ProjectResult{}
	err := p.env.transact(ctx, func(tx *gorm.DB) error {
		project := models.Project{
			PublicID:    uuid.NewString(),
			UserID:      userID,
			Title:       in.Title,
			Description: in.Description,
			RepoURL:     in.RepoURL,
		}
		if in.RoadmapID != "" {
			var rm models.Roadmap
			if err := tx.Where("public_id = ? AND user_id = ?", in.RoadmapID, userID).First(&rm).Error; err != nil {
				return notFound(err, "roadmap")
			}
			project.RoadmapID = &rm.ID
		}
		if err := tx.Create(&project).Error; err != nil {
			return errors.Wrap(err, "create project")
		}
		res.Project = &project
		var err error
		res.Outcome, err = p.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindProjectCreated})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Complete marks a project done. It pays out once.
func (p *Projects) Complete(ctx context.Context, userID uint, publicID string) (*ProjectResult, error) {
	res := &ProjectResult{}
	err := p.env.transact(ctx, func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("public_id = ?", publicID).First(&project).Error; err != nil {
			return notFound(err, "project")
		}
		if project.UserID != userID {
			return errors.Wrap(ErrForbidden, "project belongs to another user")
		}
		if project.CompletedAt != nil {
			return errors.Wrap(ErrConflict, "project already completed")
		}
		now := p.env.now()
		project.CompletedAt = &now
		if err := tx.Model(&project).Select("completed_at").Updates(&project).Error; err != nil {
			return errors.Wrap(err, "complete project")
		}
		res.Project = &project
		var err error
		res.Outcome, err = p.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindProjectCompleted})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Projects) List(ctx context.Context, userID uint) ([]models.Project, error) {
	var out []models.Project
	err := p.env.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").Find(&out).Error
	return out, errors.Wrap(err, "list projects")
}
