package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

type Messaging struct {
	env      *Env
	progress *Progress
}

// ConversationKey is the two ids in ascending order joined with "_".
func ConversationKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

type ConversationResult struct {
	Conversation *models.Conversation `json:"conversation"`
	Created      bool                 `json:"created"`
	Outcome      gamification.Outcome `json:"outcome"`
}

// Start opens the conversation between userID and otherID, creating it the
// first time. Only the creator is credited.
func (m *Messaging) Start(ctx context.Context, userID, otherID uint) (*ConversationResult, error) {
	if userID == otherID {
		return nil, errors.Wrap(ErrInvalid, "cannot message yourself")
	}
	res := &ConversationResult{}
	err := m.env.transact(ctx, func(tx *gorm.DB) error {
		var other models.User
		if err := tx.First(&other, otherID).Error; err != nil {
			return notFound(err, "user")
		}
		key := ConversationKey(userID, otherID)
		var conv models.Conversation
		err := tx.Where("conv_key = ?", key).First(&conv).Error
		if err == nil {
			res.Conversation = &conv
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "load conversation")
		}
		a, b := userID, otherID
		if a > b {
			a, b = b, a
		}
		conv = models.Conversation{Key: key, ParticipantA: a, ParticipantB: b, LastMessageAt: m.env.now()}
		if err := tx.Create(&conv).Error; err != nil {
			return errors.Wrap(err, "create conversation")
		}
		res.Conversation, res.Created = &conv, true
		res.Outcome, err = m.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindConversationStarted})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type MessageInput struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Send appends a message and bumps the other participant's unread count.
func (m *Messaging) Send(ctx context.Context, userID uint, key string, in MessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, errors.Wrap(ErrInvalid, "message is empty")
	}
	var msg models.Message
	err := m.env.transact(ctx, func(tx *gorm.DB) error {
		conv, err := m.participant(tx, userID, key)
		if err != nil {
			return err
		}
		msg = models.Message{ConversationID: conv.ID, SenderID: userID, Content: content}
		if err := tx.Create(&msg).Error; err != nil {
			return errors.Wrap(err, "create message")
		}
		unread := "unread_b"
		if conv.Other(userID) == conv.ParticipantA {
			unread = "unread_a"
		}
		return errors.Wrap(tx.Model(conv).Updates(map[string]interface{}{
			"last_message":    truncate(content, 140),
			"last_message_at": m.env.now(),
			unread:            gorm.Expr(unread + " + 1"),
		}).Error, "update conversation")
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *Messaging) Conversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	err := m.env.DB.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at desc").
		Find(&out).Error
	return out, errors.Wrap(err, "list conversations")
}

func (m *Messaging) Messages(ctx context.Context, userID uint, key string, page Page) ([]models.Message, error) {
	page = page.normalize()
	conv, err := m.participant(m.env.DB.WithContext(ctx), userID, key)
	if err != nil {
		return nil, err
	}
	var out []models.Message
	err = m.env.DB.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("created_at desc, id desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	return out, errors.Wrap(err, "list messages")
}

// MarkRead zeroes the caller's unread count.
func (m *Messaging) MarkRead(ctx context.Context, userID uint, key string) error {
	db := m.env.DB.WithContext(ctx)
	conv, err := m.participant(db, userID, key)
	if err != nil {
		return err
	}
	column := "unread_b"
	if userID == conv.ParticipantA {
		column = "unread_a"
	}
	return errors.Wrap(db.Model(conv).UpdateColumn(column, 0).Error, "mark conversation read")
}

func (m *Messaging) UnreadTotal(ctx context.Context, userID uint) (int, error) {
	convs, err := m.Conversations(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range convs {
		n += convs[i].UnreadFor(userID)
	}
	return n, nil
}

func (m *Messaging) participant(db *gorm.DB, userID uint, key string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := db.Where("conv_key = ?", key).First(&conv).Error; err != nil {
		return nil, notFound(err, "conversation")
	}
	if conv.ParticipantA != userID && conv.ParticipantB != userID {
		return nil, errors.Wrap(ErrForbidden, "not a participant")
	}
	return &conv, nil
}
