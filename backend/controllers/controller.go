package controllers

import (
	"learnpath/backend/config"
	"learnpath/backend/models"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Deps is what every controller is built from.
type Deps struct {
	Svc      *services.Services
	Cfg      *config.Config
	Validate *utils.Validator
	Log      *zap.Logger
}

// bind parses the JSON body into dst and validates it. It returns false
// after writing the error response.
func (d Deps) bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := d.Validate.Struct(dst); errs != nil {
		return false, utils.ValidationError(c, errs)
	}
	return true, nil
}

// fail maps service errors onto HTTP statuses.
func (d Deps) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAuth):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalid):
		return utils.BadRequest(c, err.Error())
	}
	d.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return utils.InternalServerError(c, "Internal server error")
}

// paramID reads a positive integer path parameter. On false the 400 has
// already been written.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		_ = utils.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func page(c *fiber.Ctx) services.Page {
	return services.Page{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
}

func hideEmails(users []models.User) []models.User {
	for i := range users {
		users[i].Email = ""
	}
	return users
}
