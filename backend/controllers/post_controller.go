package controllers

import (
	"time"

	"learnpath/backend/middleware"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const trendingWindow = 7 * 24 * time.Hour

type PostController struct {
	Deps
}

func NewPostController(d Deps) *PostController {
	return &PostController{Deps: d}
}

// CreatePost godoc
// @Summary Publish a post
// @Tags posts
// @Accept json
// @Produce json
// @Param input body services.PostInput true "Post"
// @Success 201 {object} utils.SuccessResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /posts [post]
func (pc *PostController) CreatePost(c *fiber.Ctx) error {
	var input services.PostInput
	if ok, err := pc.bind(c, &input); !ok {
		return err
	}
	res, err := pc.Svc.Social.CreatePost(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Created(c, res)
}

func (pc *PostController) GetPost(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	post, err := pc.Svc.Social.GetPost(c.UserContext(), id)
	if err != nil {
		return pc.fail(c, err)
	}
	post.Author.Email = ""
	return utils.Success(c, fiber.StatusOK, post)
}

func (pc *PostController) DeletePost(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	if err := pc.Svc.Social.DeletePost(c.UserContext(), middleware.UserID(c), id); err != nil {
		return pc.fail(c, err)
	}
	return utils.NoContent(c)
}

// Feed godoc
// @Summary Posts from followed users, newest first
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /posts/feed [get]
func (pc *PostController) Feed(c *fiber.Ctx) error {
	posts, err := pc.Svc.Social.Feed(c.UserContext(), middleware.UserID(c), page(c))
	if err != nil {
		return pc.fail(c, err)
	}
	for i := range posts {
		posts[i].Author.Email = ""
	}
	return utils.Success(c, fiber.StatusOK, posts)
}

func (pc *PostController) Trending(c *fiber.Ctx) error {
	posts, err := pc.Svc.Social.Trending(c.UserContext(), trendingWindow, c.QueryInt("limit", 10))
	if err != nil {
		return pc.fail(c, err)
	}
	for i := range posts {
		posts[i].Author.Email = ""
	}
	return utils.Success(c, fiber.StatusOK, posts)
}

func (pc *PostController) UserPosts(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	posts, err := pc.Svc.Social.UserPosts(c.UserContext(), id, page(c))
	if err != nil {
		return pc.fail(c, err)
	}
	for i := range posts {
		posts[i].Author.Email = ""
	}
	return utils.Success(c, fiber.StatusOK, posts)
}

func (pc *PostController) SavedPosts(c *fiber.Ctx) error {
	posts, err := pc.Svc.Social.SavedPosts(c.UserContext(), middleware.UserID(c), page(c))
	if err != nil {
		return pc.fail(c, err)
	}
	for i := range posts {
		posts[i].Author.Email = ""
	}
	return utils.Success(c, fiber.StatusOK, posts)
}

// ToggleLike godoc
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /posts/{id}/like [post]
func (pc *PostController) ToggleLike(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := pc.Svc.Social.ToggleLike(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (pc *PostController) ToggleSave(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := pc.Svc.Social.ToggleSave(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

func (pc *PostController) Share(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	res, err := pc.Svc.Social.Share(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, res)
}

// AddComment godoc
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param input body services.CommentInput true "Comment"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /posts/{id}/comments [post]
func (pc *PostController) AddComment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	var input services.CommentInput
	if ok, err := pc.bind(c, &input); !ok {
		return err
	}
	res, err := pc.Svc.Social.AddComment(c.UserContext(), middleware.UserID(c), id, input)
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Created(c, res)
}

func (pc *PostController) ListComments(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	comments, err := pc.Svc.Social.Comments(c.UserContext(), id, page(c))
	if err != nil {
		return pc.fail(c, err)
	}
	for i := range comments {
		comments[i].Author.Email = ""
	}
	return utils.Success(c, fiber.StatusOK, comments)
}

func (pc *PostController) DeleteComment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	if err := pc.Svc.Social.DeleteComment(c.UserContext(), middleware.UserID(c), id); err != nil {
		return pc.fail(c, err)
	}
	return utils.NoContent(c)
}
