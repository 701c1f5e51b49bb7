package models

import (
	"time"

	"gorm.io/gorm"

	"learnpath/backend/roadmap"
)

type Roadmap struct {
	gorm.Model
	PublicID           string          `gorm:"uniqueIndex;size:36" json:"id"`
	UserID             uint            `gorm:"index;not null" json:"user_id"`
	Topic              string          `gorm:"not null" json:"topic"`
	Category           string          `gorm:"not null" json:"category"`
	Goal               string          `json:"goal"`
	GeneratedAt        time.Time       `json:"generated_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CompletionDays     int             `json:"completion_days,omitempty"`
	Outline            roadmap.Outline `gorm:"serializer:json;type:text" json:"outline"`
	Nodes              []RoadmapNode   `gorm:"constraint:OnDelete:CASCADE" json:"nodes"`
	CompletedSubtopics map[string]bool `gorm:"serializer:json;type:text" json:"completed_subtopics"`
	CompletedKeyPoints map[string]bool `gorm:"serializer:json;type:text" json:"completed_key_points"`
}

type RoadmapNode struct {
	gorm.Model
	RoadmapID        uint           `gorm:"index;not null" json:"-"`
	Key              string         `gorm:"not null" json:"key"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Position         int            `json:"position"`
	Lessons          int            `json:"lessons"`
	CompletedLessons int            `json:"completed_lessons"`
	Status           roadmap.Status `json:"status"`
}

type Project struct {
	gorm.Model
	PublicID    string     `gorm:"uniqueIndex;size:36" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	RoadmapID   *uint      `json:"roadmap_id,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	RepoURL     string     `json:"repo_url"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r *Roadmap) StateNodes() []roadmap.Node {
	out := make([]roadmap.Node, len(r.Nodes))
	for i, n := range r.Nodes {
		out[i] = roadmap.Node{
			Key:              n.Key,
			Title:            n.Title,
			Description:      n.Description,
			Position:         n.Position,
			Lessons:          n.Lessons,
			CompletedLessons: n.CompletedLessons,
			Status:           n.Status,
		}
	}
	return out
}
