package controllers

import (
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Deps
}

func NewAuthController(d Deps) *AuthController {
	return &AuthController{Deps: d}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a new user account and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "User registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if ok, err := ac.bind(c, &input); !ok {
		return err
	}

	user, err := ac.Svc.Users.Register(c.UserContext(), input)
	if err != nil {
		return ac.fail(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Created(c, fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate by username or email. Counts as the daily check-in.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var input LoginInput
	if ok, err := ac.bind(c, &input); !ok {
		return err
	}

	user, outcome, err := ac.Svc.Users.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return ac.fail(c, err)
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token":   token,
		"user":    user,
		"outcome": outcome,
	})
}

// CheckUsername reports whether a username is well formed and free.
func (ac *AuthController) CheckUsername(c *fiber.Ctx) error {
	name := c.Params("username")
	if !utils.ValidUsername(name) {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"username": name, "available": false, "valid": false})
	}
	ok, err := ac.Svc.Users.UsernameAvailable(c.UserContext(), name)
	if err != nil {
		return ac.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"username": name, "available": ok, "valid": true})
}
