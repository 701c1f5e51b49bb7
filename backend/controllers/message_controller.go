package controllers

import (
	"learnpath/backend/middleware"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type MessageController struct {
	Deps
}

func NewMessageController(d Deps) *MessageController {
	return &MessageController{Deps: d}
}

// StartConversation godoc
// @Summary Open a one-on-one conversation
// @Tags messages
// @Produce json
// @Param id path int true "Other user ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /conversations/with/{id} [post]
func (mc *MessageController) StartConversation(c *fiber.Ctx) error {
	other, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := mc.Svc.Messaging.Start(c.UserContext(), middleware.UserID(c), other)
	if err != nil {
		return mc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (mc *MessageController) ListConversations(c *fiber.Ctx) error {
	me := middleware.UserID(c)
	convs, err := mc.Svc.Messaging.Conversations(c.UserContext(), me)
	if err != nil {
		return mc.fail(c, err)
	}
	type item struct {
		Key           string      `json:"id"`
		With          uint        `json:"with"`
		Unread        int         `json:"unread"`
		LastMessage   string      `json:"last_message"`
		LastMessageAt interface{} `json:"last_message_at"`
	}
	out := make([]item, len(convs))
	for i, cv := range convs {
		out[i] = item{
			Key:           cv.Key,
			With:          cv.Other(me),
			Unread:        cv.UnreadFor(me),
			LastMessage:   cv.LastMessage,
			LastMessageAt: cv.LastMessageAt,
		}
	}
	return utils.Success(c, fiber.StatusOK, out)
}

func (mc *MessageController) Messages(c *fiber.Ctx) error {
	msgs, err := mc.Svc.Messaging.Messages(c.UserContext(), middleware.UserID(c), c.Params("key"), page(c))
	if err != nil {
		return mc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, msgs)
}

func (mc *MessageController) Send(c *fiber.Ctx) error {
	var input services.MessageInput
	if ok, err := mc.bind(c, &input); !ok {
		return err
	}
	msg, err := mc.Svc.Messaging.Send(c.UserContext(), middleware.UserID(c), c.Params("key"), input)
	if err != nil {
		return mc.fail(c, err)
	}
	return utils.Created(c, msg)
}

func (mc *MessageController) MarkRead(c *fiber.Ctx) error {
	if err := mc.Svc.Messaging.MarkRead(c.UserContext(), middleware.UserID(c), c.Params("key")); err != nil {
		return mc.fail(c, err)
	}
	return utils.NoContent(c)
}
