package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"learnpath/backend/config"
	"learnpath/backend/controllers"
	"learnpath/backend/models"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
)

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}

func setup() {
	cfg = &config.Config{
		JWTSecret:         "testsecret",
		PostRateLimit:     3,
		PostRateWindow:    time.Minute,
		CommentRateLimit:  30,
		CommentRateWindow: time.Minute,
	}

	var err error
	db, err = utils.OpenMemoryDB()
	if err != nil {
		panic(err)
	}

	svc := services.New(&services.Env{DB: db, Log: zap.NewNop(), Loc: time.UTC})
	app = fiber.New()
	SetupRoutes(app, controllers.Deps{
		Svc:      svc,
		Cfg:      cfg,
		Validate: utils.NewValidator(models.ValidSkin),
		Log:      zap.NewNop(),
	})
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

// register creates a user and returns its id and token.
func register(t *testing.T, name string) (uint, string) {
	t.Helper()
	status, env := call(t, "POST", "/api/auth/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"ID"`
		} `json:"user"`
	}
	decode(t, env, &out)
	require.NotEmpty(t, out.Token)
	return out.User.ID, out.Token
}

func TestRegisterAndLogin(t *testing.T) {
	register(t, "testuser")

	status, env := call(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "TestUser",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, status)
	var out struct {
		Token string `json:"token"`
	}
	decode(t, env, &out)
	assert.NotEmpty(t, out.Token)

	status, _ = call(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "nope",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "TESTUSER",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestRegisterValidation(t *testing.T) {
	status, env := call(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "no spaces allowed",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Details, "username")
	assert.Contains(t, env.Details, "email")
	assert.Contains(t, env.Details, "password")
}

func TestGetProfile(t *testing.T) {
	_, token := register(t, "profileuser")

	status, env := call(t, "GET", "/api/user/profile", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var user models.User
	decode(t, env, &user)
	assert.Equal(t, "profileuser", user.Username)
	assert.Equal(t, "profileuser@example.com", user.Email)
	assert.Equal(t, models.DefaultSkin, user.SelectedSkin)

	status, env = call(t, "PUT", "/api/user/profile", token, map[string]string{"selected_skin": "pink-unicorn"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Details, "selected_skin")

	status, _ = call(t, "GET", "/api/user/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRoadmapFlow(t *testing.T) {
	_, token := register(t, "roadmapper")

	status, env := call(t, "POST", "/api/roadmaps", token, map[string]interface{}{
		"topic":    "Go",
		"category": "programming",
		"outline": map[string]interface{}{
			"areas": []map[string]interface{}{{
				"title": "Basics",
				"topics": []map[string]interface{}{
					{"title": "Syntax", "subtopics": []map[string]interface{}{{"title": "Variables"}}},
				},
			}},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var created struct {
		Roadmap struct {
			ID    string `json:"id"`
			Nodes []struct {
				Key    string `json:"key"`
				Status string `json:"status"`
			} `json:"nodes"`
		} `json:"roadmap"`
	}
	decode(t, env, &created)
	require.Len(t, created.Roadmap.Nodes, 1)
	assert.Equal(t, "active", created.Roadmap.Nodes[0].Status)

	id := created.Roadmap.ID
	status, _ = call(t, "POST", fmt.Sprintf("/api/roadmaps/%s/complete", id), token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, "POST", fmt.Sprintf("/api/roadmaps/%s/nodes/0.0/lessons", id), token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, "POST", fmt.Sprintf("/api/roadmaps/%s/complete", id), token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, "POST", fmt.Sprintf("/api/roadmaps/%s/complete", id), token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	_, other := register(t, "snooper")
	status, _ = call(t, "GET", "/api/roadmaps/"+id, other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = call(t, "GET", "/api/progress/achievements?category=completion", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var views []struct {
		ID          string `json:"id"`
		StarsEarned int    `json:"stars_earned"`
	}
	decode(t, env, &views)
	stars := map[string]int{}
	for _, v := range views {
		stars[v.ID] = v.StarsEarned
	}
	assert.Equal(t, 1, stars["finisher"])

	status, _ = call(t, "GET", "/api/progress/achievements?category=nonsense", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPostsLikesAndComments(t *testing.T) {
	authorID, author := register(t, "poster")
	_, fan := register(t, "likesfan")

	status, env := call(t, "POST", "/api/posts", author, map[string]string{"type": "text", "content": "Finished my first roadmap"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var created struct {
		Post struct {
			ID uint `json:"ID"`
		} `json:"post"`
	}
	decode(t, env, &created)
	postPath := fmt.Sprintf("/api/posts/%d", created.Post.ID)

	status, env = call(t, "POST", postPath+"/like", fan, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var toggled services.ToggleResult
	decode(t, env, &toggled)
	assert.True(t, toggled.Active)
	assert.Equal(t, 1, toggled.Count)

	status, _ = call(t, "POST", postPath+"/comments", fan, map[string]string{"content": "congrats"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, env = call(t, "GET", postPath+"/comments", author, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var comments []models.Comment
	decode(t, env, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "likesfan", comments[0].Author.Username)
	assert.Empty(t, comments[0].Author.Email)

	status, env = call(t, "GET", "/api/notifications/unread", author, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var unread struct {
		Notifications int `json:"notifications"`
	}
	decode(t, env, &unread)
	assert.Equal(t, 2, unread.Notifications)

	status, _ = call(t, "DELETE", postPath, fan, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = call(t, "GET", fmt.Sprintf("/api/users/%d/posts", authorID), fan, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var posts []models.Post
	decode(t, env, &posts)
	assert.Len(t, posts, 1)

	status, _ = call(t, "POST", "/api/posts", author, map[string]string{"type": "poem", "content": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestPostRateLimit(t *testing.T) {
	_, token := register(t, "spammer")
	for i := 0; i < cfg.PostRateLimit; i++ {
		status, _ := call(t, "POST", "/api/posts", token, map[string]string{"type": "text", "content": "again"})
		require.Equal(t, fiber.StatusCreated, status)
	}
	status, _ := call(t, "POST", "/api/posts", token, map[string]string{"type": "text", "content": "again"})
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	_, other := register(t, "quietuser")
	status, _ = call(t, "POST", "/api/posts", other, map[string]string{"type": "text", "content": "hello"})
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestAdminRoutes(t *testing.T) {
	adminID, admin := register(t, "boss")
	_, user := register(t, "worker")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", adminID).Update("role", "admin").Error)

	status, _ := call(t, "POST", "/api/admin/challenges/seed", user, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, "POST", "/api/admin/challenges/seed", admin, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env := call(t, "GET", "/api/challenges?status=active", user, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var list []services.ChallengeView
	decode(t, env, &list)
	require.NotEmpty(t, list)

	status, _ = call(t, "POST", fmt.Sprintf("/api/challenges/%d/join", list[0].ID), user, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, "POST", "/api/challenges/abc/join", user, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCheckInAndLeaderboard(t *testing.T) {
	_, token := register(t, "streaker")

	status, env := call(t, "POST", "/api/progress/check-in", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var out struct {
		Streak *struct {
			To int `json:"to"`
		} `json:"streak"`
	}
	decode(t, env, &out)
	require.NotNil(t, out.Streak)
	assert.Equal(t, 1, out.Streak.To)

	status, env = call(t, "GET", "/api/leaderboard/me", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var entry services.LeaderboardEntry
	decode(t, env, &entry)
	assert.Equal(t, "streaker", entry.Username)
	assert.GreaterOrEqual(t, entry.Rank, 1)
	assert.Equal(t, 1, entry.StreakDays)

	status, _ = call(t, "GET", "/api/leaderboard?limit=5", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestConversationRoutes(t *testing.T) {
	_, alice := register(t, "alicechat")
	bobID, bob := register(t, "bobchat")

	status, env := call(t, "POST", fmt.Sprintf("/api/conversations/with/%d", bobID), alice, nil)
	require.Equal(t, fiber.StatusOK, status)
	var started services.ConversationResult
	decode(t, env, &started)
	key := started.Conversation.Key

	status, _ = call(t, "POST", "/api/conversations/"+key+"/messages", alice, map[string]string{"content": "hey"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, env = call(t, "GET", "/api/conversations", bob, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var convs []struct {
		ID     string `json:"id"`
		Unread int    `json:"unread"`
	}
	decode(t, env, &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, key, convs[0].ID)
	assert.Equal(t, 1, convs[0].Unread)

	status, _ = call(t, "POST", "/api/conversations/"+key+"/read", bob, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestUnknownRoute(t *testing.T) {
	status, env := call(t, "GET", "/api/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Message)

	_, token := register(t, "wanderer")
	status, env = call(t, "GET", "/api/posts/999999", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, env.Message, "post")
}
