package routes

import (
	"learnpath/backend/controllers"
	"learnpath/backend/middleware"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, d controllers.Deps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	authController := controllers.NewAuthController(d)
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)
	api.Get("/auth/username/:username", authController.CheckUsername)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(d.Cfg)
	adminMiddleware := middleware.AdminMiddleware(d.Svc.Env.DB)

	// Catalog routes
	progressController := controllers.NewProgressController(d)
	api.Get("/catalog/achievements", progressController.GetCatalog)
	api.Get("/catalog/levels", progressController.GetLevels)

	// User routes
	userController := controllers.NewUserController(d)
	api.Get("/user/profile", authMiddleware, userController.GetProfile)
	api.Put("/user/profile", authMiddleware, userController.UpdateProfile)
	api.Get("/user/follow-requests", authMiddleware, userController.FollowRequests)
	api.Post("/user/follow-requests/:id/accept", authMiddleware, userController.AcceptFollow)
	api.Delete("/user/follow-requests/:id", authMiddleware, userController.DeclineFollow)
	api.Get("/skins", userController.Skins)

	users := api.Group("/users", authMiddleware)
	users.Get("/search", userController.SearchUsers)
	users.Get("/by-name/:username", userController.GetUser)
	users.Post("/:id/follow", userController.Follow)
	users.Delete("/:id/follow", userController.Unfollow)
	users.Get("/:id/followers", userController.Followers)
	users.Get("/:id/following", userController.Following)

	// Progress routes
	progress := api.Group("/progress", authMiddleware)
	progress.Get("/", progressController.GetProgress)
	progress.Get("/achievements", progressController.GetAchievements)
	progress.Get("/activity", progressController.GetActivity)
	progress.Post("/check-in", progressController.CheckIn)

	// Roadmap routes
	roadmapController := controllers.NewRoadmapController(d)
	roadmaps := api.Group("/roadmaps", authMiddleware)
	roadmaps.Post("/", roadmapController.Generate)
	roadmaps.Get("/", roadmapController.List)
	roadmaps.Get("/:id", roadmapController.Get)
	roadmaps.Delete("/:id", roadmapController.Delete)
	roadmaps.Post("/:id/nodes/:node/lessons", roadmapController.CompleteLesson)
	roadmaps.Post("/:id/subtopics/:key/toggle", roadmapController.ToggleSubtopic)
	roadmaps.Post("/:id/key-points/:key/toggle", roadmapController.ToggleKeyPoint)
	roadmaps.Post("/:id/complete", roadmapController.Complete)

	projects := api.Group("/projects", authMiddleware)
	projects.Post("/", roadmapController.CreateProject)
	projects.Get("/", roadmapController.ListProjects)
	projects.Post("/:id/complete", roadmapController.CompleteProject)

	// Post routes
	postController := controllers.NewPostController(d)
	posts := api.Group("/posts", authMiddleware)
	posts.Post("/", middleware.RateLimit(d.Cfg.PostRateLimit, d.Cfg.PostRateWindow), postController.CreatePost)
	posts.Get("/feed", postController.Feed)
	posts.Get("/trending", postController.Trending)
	posts.Get("/saved", postController.SavedPosts)
	posts.Get("/:id", postController.GetPost)
	posts.Delete("/:id", postController.DeletePost)
	posts.Post("/:id/like", postController.ToggleLike)
	posts.Post("/:id/save", postController.ToggleSave)
	posts.Post("/:id/share", postController.Share)
	posts.Get("/:id/comments", postController.ListComments)
	posts.Post("/:id/comments", middleware.RateLimit(d.Cfg.CommentRateLimit, d.Cfg.CommentRateWindow), postController.AddComment)
	api.Delete("/comments/:id", authMiddleware, postController.DeleteComment)
	users.Get("/:id/posts", postController.UserPosts)

	// Message routes
	messageController := controllers.NewMessageController(d)
	conversations := api.Group("/conversations", authMiddleware)
	conversations.Get("/", messageController.ListConversations)
	conversations.Post("/with/:id", messageController.StartConversation)
	conversations.Get("/:key/messages", messageController.Messages)
	conversations.Post("/:key/messages", messageController.Send)
	conversations.Post("/:key/read", messageController.MarkRead)

	// Notification routes
	notificationController := controllers.NewNotificationController(d)
	notifications := api.Group("/notifications", authMiddleware)
	notifications.Get("/", notificationController.List)
	notifications.Get("/unread", notificationController.UnreadCount)
	notifications.Post("/read", notificationController.MarkAllRead)
	notifications.Post("/:id/read", notificationController.MarkRead)

	// Challenge routes
	challengeController := controllers.NewChallengeController(d)
	challenges := api.Group("/challenges", authMiddleware)
	challenges.Get("/", challengeController.List)
	challenges.Post("/:id/join", challengeController.Join)
	challenges.Post("/:id/complete", challengeController.Complete)

	// Leaderboard routes
	leaderboardController := controllers.NewLeaderboardController(d)
	api.Get("/leaderboard", authMiddleware, leaderboardController.Top)
	api.Get("/leaderboard/me", authMiddleware, leaderboardController.MyRank)

	// Admin routes
	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.Post("/challenges/seed", challengeController.Seed)
	admin.Post("/challenges/refresh", challengeController.Refresh)
	admin.Post("/streaks/expire", leaderboardController.ExpireStreaks)

	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFound(c, "Route not found")
	})
}
