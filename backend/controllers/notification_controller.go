package controllers

import (
	"learnpath/backend/middleware"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	Deps
}

func NewNotificationController(d Deps) *NotificationController {
	return &NotificationController{Deps: d}
}

// List godoc
// @Summary List notifications, newest first
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /notifications [get]
func (nc *NotificationController) List(c *fiber.Ctx) error {
	p := page(c)
	notes, total, err := nc.Svc.Notifications.List(c.UserContext(), middleware.UserID(c), c.QueryBool("unread"), p)
	if err != nil {
		return nc.fail(c, err)
	}
	return utils.Paginate(c, notes, total, p.Limit, p.Offset)
}

func (nc *NotificationController) UnreadCount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	me := middleware.UserID(c)
	n, err := nc.Svc.Notifications.UnreadCount(ctx, me)
	if err != nil {
		return nc.fail(c, err)
	}
	msgs, err := nc.Svc.Messaging.UnreadTotal(ctx, me)
	if err != nil {
		return nc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"notifications": n, "messages": msgs})
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	if err := nc.Svc.Notifications.MarkRead(c.UserContext(), middleware.UserID(c), id); err != nil {
		return nc.fail(c, err)
	}
	return utils.NoContent(c)
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	n, err := nc.Svc.Notifications.MarkAllRead(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return nc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"marked": n})
}
