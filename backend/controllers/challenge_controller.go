package controllers

import (
	"learnpath/backend/middleware"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ChallengeController struct {
	Deps
}

func NewChallengeController(d Deps) *ChallengeController {
	return &ChallengeController{Deps: d}
}

// List godoc
// @Summary List challenges
// @Tags challenges
// @Produce json
// @Param status query string false "upcoming, active or completed"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /challenges [get]
func (cc *ChallengeController) List(c *fiber.Ctx) error {
	list, err := cc.Svc.Challenges.List(c.UserContext(), middleware.UserID(c), c.Query("status"))
	if err != nil {
		return cc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (cc *ChallengeController) Join(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := cc.Svc.Challenges.Join(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return cc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (cc *ChallengeController) Complete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := cc.Svc.Challenges.Complete(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return cc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

// Seed is admin only.
func (cc *ChallengeController) Seed(c *fiber.Ctx) error {
	n, err := cc.Svc.Challenges.Seed(c.UserContext())
	if err != nil {
		return cc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"created": n})
}

func (cc *ChallengeController) Refresh(c *fiber.Ctx) error {
	n, err := cc.Svc.Challenges.RefreshStatuses(c.UserContext())
	if err != nil {
		return cc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"updated": n})
}
