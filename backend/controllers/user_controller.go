package controllers

import (
	"learnpath/backend/middleware"
	"learnpath/backend/models"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Deps
}

func NewUserController(d Deps) *UserController {
	return &UserController{Deps: d}
}

// GetProfile godoc
// @Summary Get own profile
// @Tags user
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.Svc.Users.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Partial update; omitted fields are kept
// @Tags user
// @Accept json
// @Produce json
// @Param input body services.ProfileInput true "Profile fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var input services.ProfileInput
	if ok, err := uc.bind(c, &input); !ok {
		return err
	}
	user, err := uc.Svc.Users.UpdateProfile(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// GetUser returns a public profile with the caller's follow status.
// Private profiles hide their email either way.
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := uc.Svc.Users.ByUsername(ctx, c.Params("username"))
	if err != nil {
		return uc.fail(c, err)
	}
	me := middleware.UserID(c)
	status := "self"
	if user.ID != me {
		if status, err = uc.Svc.Social.FollowStatus(ctx, me, user.ID); err != nil {
			return uc.fail(c, err)
		}
		user.Email = ""
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user":          user,
		"follow_status": status,
	})
}

func (uc *UserController) SearchUsers(c *fiber.Ctx) error {
	users, err := uc.Svc.Users.Search(c.UserContext(), c.Query("q"), page(c))
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, hideEmails(users))
}

func (uc *UserController) Skins(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"skins":   models.Skins,
		"default": models.DefaultSkin,
	})
}

// Follow godoc
// @Summary Follow a user
// @Description Private accounts receive a pending request
// @Tags social
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /users/{id}/follow [post]
func (uc *UserController) Follow(c *fiber.Ctx) error {
	target, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := uc.Svc.Social.Follow(c.UserContext(), middleware.UserID(c), target)
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (uc *UserController) Unfollow(c *fiber.Ctx) error {
	target, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	if err := uc.Svc.Social.Unfollow(c.UserContext(), middleware.UserID(c), target); err != nil {
		return uc.fail(c, err)
	}
	return utils.NoContent(c)
}

func (uc *UserController) AcceptFollow(c *fiber.Ctx) error {
	follower, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := uc.Svc.Social.Accept(c.UserContext(), middleware.UserID(c), follower)
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (uc *UserController) DeclineFollow(c *fiber.Ctx) error {
	follower, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	if err := uc.Svc.Social.Decline(c.UserContext(), middleware.UserID(c), follower); err != nil {
		return uc.fail(c, err)
	}
	return utils.NoContent(c)
}

func (uc *UserController) FollowRequests(c *fiber.Ctx) error {
	users, err := uc.Svc.Social.PendingRequests(c.UserContext(), middleware.UserID(c), page(c))
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, hideEmails(users))
}

func (uc *UserController) Followers(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	users, err := uc.Svc.Social.Followers(c.UserContext(), id, page(c))
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, hideEmails(users))
}

func (uc *UserController) Following(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	users, err := uc.Svc.Social.Following(c.UserContext(), id, page(c))
	if err != nil {
		return uc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, hideEmails(users))
}
