package controllers

import (
	"learnpath/backend/middleware"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type LeaderboardController struct {
	Deps
}

func NewLeaderboardController(d Deps) *LeaderboardController {
	return &LeaderboardController{Deps: d}
}

// Top godoc
// @Summary Users ranked by XP
// @Tags leaderboard
// @Produce json
// @Param limit query int false "How many (max 100)"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /leaderboard [get]
func (lc *LeaderboardController) Top(c *fiber.Ctx) error {
	entries, err := lc.Svc.Leaderboard.Top(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return lc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, entries)
}

func (lc *LeaderboardController) MyRank(c *fiber.Ctx) error {
	entry, err := lc.Svc.Leaderboard.Rank(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return lc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, entry)
}

// ExpireStreaks runs the nightly sweep on demand. Admin only.
func (lc *LeaderboardController) ExpireStreaks(c *fiber.Ctx) error {
	n, err := lc.Svc.Progress.ExpireStreaks(c.UserContext())
	if err != nil {
		return lc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"expired": n})
}
