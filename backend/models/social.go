package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PostTypeRoadmap     = "roadmap"
	PostTypeAchievement = "achievement"
	PostTypeProject     = "project"
	PostTypeText        = "text"
)

type Post struct {
	gorm.Model
	UserID        uint   `gorm:"index;not null" json:"user_id"`
	Type          string `gorm:"not null;default:text" json:"type"`
	Content       string `gorm:"type:text;not null" json:"content"`
	ReferenceID   string `json:"reference_id,omitempty"`
	LikesCount    int    `gorm:"default:0" json:"likes_count"`
	CommentsCount int    `gorm:"default:0" json:"comments_count"`
	SavesCount    int    `gorm:"default:0" json:"saves_count"`
	SharesCount   int    `gorm:"default:0" json:"shares_count"`
	Author        User   `gorm:"foreignKey:UserID" json:"author"`
}

// PostLike and PostSave are soft deleted on toggle off so that a second
// toggle restores the row instead of inserting a duplicate.
type PostLike struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex:idx_like_user_post;not null"`
	PostID uint `gorm:"uniqueIndex:idx_like_user_post;not null"`
}

type PostSave struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex:idx_save_user_post;not null"`
	PostID uint `gorm:"uniqueIndex:idx_save_user_post;not null"`
}

type Comment struct {
	gorm.Model
	PostID  uint   `gorm:"index;not null" json:"post_id"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	Content string `gorm:"type:text;not null" json:"content"`
	Author  User   `gorm:"foreignKey:UserID" json:"author"`
}

const (
	FollowPending  = "pending"
	FollowAccepted = "accepted"
)

type Follow struct {
	gorm.Model
	FollowerID  uint   `gorm:"uniqueIndex:idx_follow_pair;not null" json:"follower_id"`
	FollowingID uint   `gorm:"uniqueIndex:idx_follow_pair;not null" json:"following_id"`
	Status      string `gorm:"not null" json:"status"`
}

// Conversation is a one-on-one thread. Key is the two participant ids in
// ascending order joined with "_"; ParticipantA is always the lower id.
type Conversation struct {
	gorm.Model
	Key           string    `gorm:"column:conv_key;uniqueIndex;not null" json:"id"`
	ParticipantA  uint      `gorm:"index;not null" json:"participant_a"`
	ParticipantB  uint      `gorm:"index;not null" json:"participant_b"`
	UnreadA       int       `gorm:"default:0" json:"unread_a"`
	UnreadB       int       `gorm:"default:0" json:"unread_b"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
}

func (c *Conversation) UnreadFor(userID uint) int {
	if userID == c.ParticipantA {
		return c.UnreadA
	}
	return c.UnreadB
}

func (c *Conversation) Other(userID uint) uint {
	if userID == c.ParticipantA {
		return c.ParticipantB
	}
	return c.ParticipantA
}

type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint   `gorm:"not null" json:"sender_id"`
	Content        string `gorm:"type:text;not null" json:"content"`
}

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationMention = "mention"
)

type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	ActorID uint   `gorm:"not null" json:"actor_id"`
	Type    string `gorm:"not null" json:"type"`
	PostID  *uint  `json:"post_id,omitempty"`
	Text    string `json:"text"`
	Read    bool   `gorm:"default:false" json:"read"`
}
