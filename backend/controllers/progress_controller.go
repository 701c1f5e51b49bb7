package controllers

import (
	"time"

	"learnpath/backend/gamification"
	"learnpath/backend/middleware"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Deps
}

func NewProgressController(d Deps) *ProgressController {
	return &ProgressController{Deps: d}
}

// GetProgress godoc
// @Summary Get user progress
// @Description Returns XP, level, streak and recent XP history
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	row, err := pc.Svc.Progress.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return pc.fail(c, err)
	}
	st := row.State
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"level":       st.UserLevel(),
		"streak":      st.Streak,
		"xp_history":  st.History,
		"active_days": st.ActiveDays,
		"counters":    st.Counters,
	})
}

// GetAchievements godoc
// @Summary List achievements with the caller's progress
// @Tags progress
// @Produce json
// @Param category query string false "generation, completion, engagement, social or special"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress/achievements [get]
func (pc *ProgressController) GetAchievements(c *fiber.Ctx) error {
	views, err := pc.Svc.Progress.Achievements(c.UserContext(), middleware.UserID(c), gamification.Category(c.Query("category")))
	if err != nil {
		return pc.fail(c, err)
	}
	earned := 0
	for _, v := range views {
		earned += v.StarsEarned
	}
	return utils.Success(c, fiber.StatusOK, views, fiber.Map{"stars_earned": earned, "total": len(views)})
}

// CheckIn godoc
// @Summary Daily check-in
// @Description Advances the streak once per calendar day
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress/check-in [post]
func (pc *ProgressController) CheckIn(c *fiber.Ctx) error {
	out, err := pc.Svc.Progress.CheckIn(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// GetActivity breaks down the last `days` days (default 30) of activity.
func (pc *ProgressController) GetActivity(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days <= 0 || days > 365 {
		return utils.BadRequest(c, "days must be between 1 and 365")
	}
	since := time.Now().AddDate(0, 0, -days)
	rows, err := pc.Svc.Progress.ActivitySummary(c.UserContext(), middleware.UserID(c), since)
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, rows)
}

func (pc *ProgressController) GetCatalog(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, pc.Svc.Env.Engine.Catalog().Definitions())
}

func (pc *ProgressController) GetLevels(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"max_level": gamification.MaxLevel,
		"tiers":     gamification.LevelTiers,
	})
}
