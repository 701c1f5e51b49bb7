package controllers

import (
	"learnpath/backend/middleware"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type RoadmapController struct {
	Deps
}

func NewRoadmapController(d Deps) *RoadmapController {
	return &RoadmapController{Deps: d}
}

// Generate godoc
// @Summary Create a roadmap from an outline
// @Tags roadmaps
// @Accept json
// @Produce json
// @Param input body services.GenerateInput true "Roadmap outline"
// @Success 201 {object} utils.SuccessResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /roadmaps [post]
func (rc *RoadmapController) Generate(c *fiber.Ctx) error {
	var input services.GenerateInput
	if ok, err := rc.bind(c, &input); !ok {
		return err
	}
	res, err := rc.Svc.Roadmaps.Generate(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Created(c, res)
}

func (rc *RoadmapController) List(c *fiber.Ctx) error {
	list, err := rc.Svc.Roadmaps.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (rc *RoadmapController) Get(c *fiber.Ctx) error {
	res, err := rc.Svc.Roadmaps.View(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

// CompleteLesson godoc
// @Summary Complete one lesson of a node
// @Description Finishing the last lesson completes the node and unlocks the next
// @Tags roadmaps
// @Produce json
// @Param id path string true "Roadmap ID"
// @Param node path string true "Node key"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /roadmaps/{id}/nodes/{node}/lessons [post]
func (rc *RoadmapController) CompleteLesson(c *fiber.Ctx) error {
	res, err := rc.Svc.Roadmaps.CompleteLesson(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("node"))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (rc *RoadmapController) ToggleSubtopic(c *fiber.Ctx) error {
	res, err := rc.Svc.Roadmaps.ToggleSubtopic(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("key"))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (rc *RoadmapController) ToggleKeyPoint(c *fiber.Ctx) error {
	res, err := rc.Svc.Roadmaps.ToggleKeyPoint(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("key"))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

// Complete godoc
// @Summary Complete a roadmap
// @Tags roadmaps
// @Produce json
// @Param id path string true "Roadmap ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /roadmaps/{id}/complete [post]
func (rc *RoadmapController) Complete(c *fiber.Ctx) error {
	res, err := rc.Svc.Roadmaps.Complete(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (rc *RoadmapController) Delete(c *fiber.Ctx) error {
	if err := rc.Svc.Roadmaps.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return rc.fail(c, err)
	}
	return utils.NoContent(c)
}

func (rc *RoadmapController) CreateProject(c *fiber.Ctx) error {
	var input services.ProjectInput
	if ok, err := rc.bind(c, &input); !ok {
		return err
	}
	res, err := rc.Svc.Projects.Create(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Created(c, res)
}

func (rc *RoadmapController) ListProjects(c *fiber.Ctx) error {
	list, err := rc.Svc.Projects.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (rc *RoadmapController) CompleteProject(c *fiber.Ctx) error {
	res, err := rc.Svc.Projects.Complete(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return rc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}
