package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
	"learnpath/backend/roadmap"
	"learnpath/backend/utils"
)

var wednesdayNoon = time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc *Services
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := utils.OpenMemoryDB()
	require.NoError(t, err)
	f := &fixture{now: wednesdayNoon}
	f.svc = New(&Env{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: func() time.Time { return f.now },
		Loc:   time.UTC,
	})
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.svc.Users.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) state(t *testing.T, userID uint) gamification.State {
	t.Helper()
	p, err := f.svc.Progress.Get(context.Background(), userID)
	require.NoError(t, err)
	return p.State
}

func unlocked(out gamification.Outcome) []string {
	var ids []string
	for _, u := range out.Unlocks {
		ids = append(ids, u.AchievementID)
	}
	return ids
}

func testOutline() roadmap.Outline {
	return roadmap.Outline{Areas: []roadmap.Area{{
		Title: "Go",
		Topics: []roadmap.Topic{
			{Title: "Basics", Subtopics: []roadmap.Subtopic{{Title: "Syntax", KeyPoints: []string{"packages"}}, {Title: "Types"}}},
			{Title: "Concurrency"},
		},
	}}}
}

func TestRegisterAwardsPioneer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada")

	st := f.state(t, ada.ID)
	require.Contains(t, st.Achievements, "pioneer")
	assert.True(t, st.Achievements["pioneer"].StarUnlocked(5))
	assert.GreaterOrEqual(t, st.XP, 5000)

	_, err := f.svc.Users.Register(ctx, RegisterInput{Username: "ADA", Email: "other@example.com", Password: "correct horse"})
	assert.True(t, errors.Is(err, ErrConflict))

	ok, err := f.svc.Users.UsernameAvailable(ctx, "ada")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterUniqueIndexIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ghost := f.register(t, "ghost")

	// A removed account is invisible to the availability check but still
	// holds its name in the unique index.
	require.NoError(t, f.svc.Env.DB.Delete(&models.User{}, ghost.ID).Error)
	ok, err := f.svc.Users.UsernameAvailable(ctx, "ghost")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Users.Register(ctx, RegisterInput{Username: "Ghost", Email: "new@example.com", Password: "correct horse"})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
	_, err = f.svc.Users.Register(ctx, RegisterInput{Username: "phantom", Email: "ghost@example.com", Password: "correct horse"})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
}

func TestLoginChecksIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "grace")

	user, out, err := f.svc.Users.Login(ctx, "GRACE", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "grace", user.Username)
	require.NotNil(t, out.Streak)
	assert.Equal(t, 0, out.Streak.From)
	assert.Equal(t, 1, out.Streak.To)

	_, out, err = f.svc.Users.Login(ctx, "grace@example.com", "correct horse")
	require.NoError(t, err)
	assert.Nil(t, out.Streak)

	_, _, err = f.svc.Users.Login(ctx, "grace", "wrong")
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestRoadmapLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "linus")
	other := f.register(t, "ken")

	gen, err := f.svc.Roadmaps.Generate(ctx, u.ID, GenerateInput{Topic: "Go", Category: "programming", Outline: testOutline()})
	require.NoError(t, err)
	rm := gen.Roadmap
	require.Len(t, rm.Nodes, 2)
	assert.Equal(t, gamification.XPRoadmapGenerated, gen.Outcome.Gains[0].Amount)
	assert.Contains(t, unlocked(gen.Outcome), "pathfinder")

	_, err = f.svc.Roadmaps.View(ctx, other.ID, rm.PublicID)
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = f.svc.Roadmaps.CompleteLesson(ctx, u.ID, rm.PublicID, "0.1")
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = f.svc.Roadmaps.Complete(ctx, u.ID, rm.PublicID)
	assert.True(t, errors.Is(err, ErrConflict), "unfinished roadmap completed")
	assert.Zero(t, f.state(t, u.ID).Counters.RoadmapsCompleted)

	res, err := f.svc.Roadmaps.CompleteLesson(ctx, u.ID, rm.PublicID, "0.0")
	require.NoError(t, err)
	assert.Contains(t, unlocked(res.Outcome), "student")
	res, err = f.svc.Roadmaps.CompleteLesson(ctx, u.ID, rm.PublicID, "0.0")
	require.NoError(t, err)
	assert.True(t, res.Lesson.NodeCompleted)
	assert.Equal(t, "0.1", res.Lesson.Unlocked)

	res, err = f.svc.Roadmaps.ToggleSubtopic(ctx, u.ID, rm.PublicID, "0-1")
	require.NoError(t, err)
	assert.True(t, *res.Checked)
	require.NotEmpty(t, res.Outcome.Gains)
	assert.Equal(t, gamification.XPSubtopic, res.Outcome.Gains[0].Amount)

	res, err = f.svc.Roadmaps.ToggleSubtopic(ctx, u.ID, rm.PublicID, "0-1")
	require.NoError(t, err)
	assert.False(t, *res.Checked)
	assert.True(t, res.Outcome.Empty())

	_, err = f.svc.Roadmaps.ToggleKeyPoint(ctx, u.ID, rm.PublicID, "0-0-3")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.svc.Roadmaps.CompleteLesson(ctx, u.ID, rm.PublicID, "0.1")
	require.NoError(t, err)

	done, err := f.svc.Roadmaps.Complete(ctx, u.ID, rm.PublicID)
	require.NoError(t, err)
	ids := unlocked(done.Outcome)
	assert.Contains(t, ids, "finisher")
	assert.Contains(t, ids, "speedrunner")

	_, err = f.svc.Roadmaps.Complete(ctx, u.ID, rm.PublicID)
	assert.True(t, errors.Is(err, ErrConflict))

	st := f.state(t, u.ID)
	assert.Equal(t, 1, st.Counters.RoadmapsCompleted)
	assert.Equal(t, 3, st.Counters.LessonsCompleted)
	assert.Equal(t, 1, st.Counters.PerfectCompletions)
	assert.Equal(t, 1, st.Achievements["perfectionist"].CurrentProgress)
}

func TestProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "margaret")

	created, err := f.svc.Projects.Create(ctx, u.ID, ProjectInput{Title: "Lander"})
	require.NoError(t, err)
	assert.Contains(t, unlocked(created.Outcome), "builder")

	done, err := f.svc.Projects.Complete(ctx, u.ID, created.Project.PublicID)
	require.NoError(t, err)
	assert.Contains(t, unlocked(done.Outcome), "architect")

	_, err = f.svc.Projects.Complete(ctx, u.ID, created.Project.PublicID)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestLikeToggleCountsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	fan := f.register(t, "fan")

	post, err := f.svc.Social.CreatePost(ctx, author.ID, PostInput{Type: models.PostTypeText, Content: "hello"})
	require.NoError(t, err)
	assert.Contains(t, unlocked(post.Outcome), "storyteller")

	res, err := f.svc.Social.ToggleLike(ctx, fan.ID, post.Post.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, 1, res.Count)

	res, err = f.svc.Social.ToggleLike(ctx, fan.ID, post.Post.ID)
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Equal(t, 0, res.Count)

	res, err = f.svc.Social.ToggleLike(ctx, fan.ID, post.Post.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.Outcome.Empty())

	assert.Equal(t, 1, f.state(t, fan.ID).Counters.LikesGiven)

	notes, total, err := f.svc.Notifications.List(ctx, author.ID, false, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.NotificationLike, notes[0].Type)

	// Liking your own post never notifies.
	_, err = f.svc.Social.ToggleLike(ctx, author.ID, post.Post.ID)
	require.NoError(t, err)
	_, total, _ = f.svc.Notifications.List(ctx, author.ID, false, Page{})
	assert.EqualValues(t, 1, total)
}

func TestCommentsAndMentions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")

	post, err := f.svc.Social.CreatePost(ctx, author.ID, PostInput{Type: models.PostTypeText, Content: "first"})
	require.NoError(t, err)

	c, err := f.svc.Social.AddComment(ctx, bob.ID, post.Post.ID, CommentInput{Content: "nice, @Carol look"})
	require.NoError(t, err)

	n, err := f.svc.Notifications.UnreadCount(ctx, carol.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, _ = f.svc.Notifications.UnreadCount(ctx, author.ID)
	assert.EqualValues(t, 1, n)

	err = f.svc.Social.DeleteComment(ctx, author.ID, c.Comment.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
	require.NoError(t, f.svc.Social.DeleteComment(ctx, bob.ID, c.Comment.ID))

	got, err := f.svc.Social.GetPost(ctx, post.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CommentsCount)

	marked, err := f.svc.Notifications.MarkAllRead(ctx, carol.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)
}

func TestFollowPrivateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "alice")
	c := f.register(t, "cleo")
	private := true
	_, err := f.svc.Users.UpdateProfile(ctx, c.ID, ProfileInput{IsPrivate: &private})
	require.NoError(t, err)

	_, err = f.svc.Social.Follow(ctx, a.ID, a.ID)
	assert.True(t, errors.Is(err, ErrInvalid))

	res, err := f.svc.Social.Follow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, res.Status)

	status, err := f.svc.Social.FollowStatus(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	cleo, _ := f.svc.Users.Get(ctx, c.ID)
	assert.Equal(t, 0, cleo.FollowersCount)

	_, err = f.svc.Social.Accept(ctx, c.ID, a.ID)
	require.NoError(t, err)
	cleo, _ = f.svc.Users.Get(ctx, c.ID)
	assert.Equal(t, 1, cleo.FollowersCount)
	status, _ = f.svc.Social.FollowStatus(ctx, a.ID, c.ID)
	assert.Equal(t, "following", status)
	assert.Equal(t, 1, f.state(t, c.ID).Counters.Followers)

	require.NoError(t, f.svc.Social.Unfollow(ctx, a.ID, c.ID))
	cleo, _ = f.svc.Users.Get(ctx, c.ID)
	assert.Equal(t, 0, cleo.FollowersCount)
	status, _ = f.svc.Social.FollowStatus(ctx, a.ID, c.ID)
	assert.Equal(t, FollowNone, status)

	// The pair can be requested again after an unfollow.
	res, err = f.svc.Social.Follow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, res.Status)
}

func TestFeedShowsFollowedAuthors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.register(t, "reader")
	followed := f.register(t, "followed")
	stranger := f.register(t, "stranger")

	_, err := f.svc.Social.Follow(ctx, reader.ID, followed.ID)
	require.NoError(t, err)
	_, err = f.svc.Social.CreatePost(ctx, followed.ID, PostInput{Type: models.PostTypeText, Content: "from followed"})
	require.NoError(t, err)
	_, err = f.svc.Social.CreatePost(ctx, stranger.ID, PostInput{Type: models.PostTypeText, Content: "from stranger"})
	require.NoError(t, err)

	feed, err := f.svc.Social.Feed(ctx, reader.ID, Page{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "from followed", feed[0].Content)
	assert.Equal(t, "followed", feed[0].Author.Username)
}

func TestPendingRequestsAndDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	amy := f.register(t, "amy")
	ben := f.register(t, "ben")
	private := true
	_, err := f.svc.Users.UpdateProfile(ctx, owner.ID, ProfileInput{IsPrivate: &private})
	require.NoError(t, err)

	for _, u := range []*models.User{ben, amy} {
		res, err := f.svc.Social.Follow(ctx, u.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FollowPending, res.Status)
	}

	pending, err := f.svc.Social.PendingRequests(ctx, owner.ID, Page{})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "amy", pending[0].Username)
	assert.Equal(t, "ben", pending[1].Username)

	none, err := f.svc.Social.PendingRequests(ctx, amy.ID, Page{})
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, f.svc.Social.Decline(ctx, owner.ID, ben.ID))
	err = f.svc.Social.Decline(ctx, owner.ID, ben.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	status, err := f.svc.Social.FollowStatus(ctx, ben.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowNone, status)

	pending, _ = f.svc.Social.PendingRequests(ctx, owner.ID, Page{})
	require.Len(t, pending, 1)
	assert.Equal(t, "amy", pending[0].Username)

	// A declined follower can ask again.
	res, err := f.svc.Social.Follow(ctx, ben.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, res.Status)
	pending, _ = f.svc.Social.PendingRequests(ctx, owner.ID, Page{})
	assert.Len(t, pending, 2)

	_, err = f.svc.Social.Accept(ctx, owner.ID, ben.ID)
	require.NoError(t, err)
	followers, err := f.svc.Social.Followers(ctx, owner.ID, Page{})
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "ben", followers[0].Username)
	o, _ := f.svc.Users.Get(ctx, owner.ID)
	assert.Equal(t, 1, o.FollowersCount)
}

func TestTrendingOrdersByEngagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	fan := f.register(t, "fan")
	critic := f.register(t, "critic")

	post := func(text string) uint {
		res, err := f.svc.Social.CreatePost(ctx, author.ID, PostInput{Type: models.PostTypeText, Content: text})
		require.NoError(t, err)
		return res.Post.ID
	}
	quiet := post("quiet")
	liked := post("liked")
	discussed := post("discussed")

	_, err := f.svc.Social.ToggleLike(ctx, fan.ID, liked)
	require.NoError(t, err)
	_, err = f.svc.Social.ToggleLike(ctx, fan.ID, discussed)
	require.NoError(t, err)
	for _, u := range []uint{fan.ID, critic.ID} {
		_, err = f.svc.Social.AddComment(ctx, u, discussed, CommentInput{Content: "interesting"})
		require.NoError(t, err)
	}

	top, err := f.svc.Social.Trending(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []uint{discussed, liked, quiet}, []uint{top[0].ID, top[1].ID, top[2].ID})
	assert.Equal(t, "author", top[0].Author.Username)

	top, err = f.svc.Social.Trending(ctx, 24*time.Hour, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, discussed, top[0].ID)

	f.advance(48 * time.Hour)
	top, err = f.svc.Social.Trending(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestOnlyAuthorsDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	other := f.register(t, "other")

	post, err := f.svc.Social.CreatePost(ctx, author.ID, PostInput{Type: models.PostTypeText, Content: "mine"})
	require.NoError(t, err)
	c, err := f.svc.Social.AddComment(ctx, author.ID, post.Post.ID, CommentInput{Content: "also mine"})
	require.NoError(t, err)

	err = f.svc.Social.DeletePost(ctx, other.ID, post.Post.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
	err = f.svc.Social.DeleteComment(ctx, other.ID, c.Comment.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	got, err := f.svc.Social.GetPost(ctx, post.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)

	require.NoError(t, f.svc.Social.DeletePost(ctx, author.ID, post.Post.ID))
	_, err = f.svc.Social.GetPost(ctx, post.Post.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	a, _ := f.svc.Users.Get(ctx, author.ID)
	assert.Equal(t, 0, a.PostsCount)
}

func TestConversations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "anna")
	b := f.register(t, "boris")
	c := f.register(t, "chen")

	assert.Equal(t, "1_2", ConversationKey(2, 1))

	started, err := f.svc.Messaging.Start(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, started.Created)
	assert.Equal(t, ConversationKey(a.ID, b.ID), started.Conversation.Key)
	assert.Contains(t, unlocked(started.Outcome), "collaborator")

	again, err := f.svc.Messaging.Start(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, again.Created)

	key := started.Conversation.Key
	_, err = f.svc.Messaging.Send(ctx, a.ID, key, MessageInput{Content: "hi"})
	require.NoError(t, err)
	_, err = f.svc.Messaging.Send(ctx, a.ID, key, MessageInput{Content: "there"})
	require.NoError(t, err)

	n, err := f.svc.Messaging.UnreadTotal(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, _ = f.svc.Messaging.UnreadTotal(ctx, a.ID)
	assert.Equal(t, 0, n)

	require.NoError(t, f.svc.Messaging.MarkRead(ctx, b.ID, key))
	n, _ = f.svc.Messaging.UnreadTotal(ctx, b.ID)
	assert.Equal(t, 0, n)

	_, err = f.svc.Messaging.Messages(ctx, c.ID, key, Page{})
	assert.True(t, errors.Is(err, ErrForbidden))

	msgs, err := f.svc.Messaging.Messages(ctx, b.ID, key, Page{})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestChallenges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "runner")

	n, err := f.svc.Challenges.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = f.svc.Challenges.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	active, err := f.svc.Challenges.List(ctx, u.ID, models.ChallengeActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	upcoming, err := f.svc.Challenges.List(ctx, u.ID, models.ChallengeUpcoming)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)

	code := active[0]
	assert.Equal(t, "30 Days of Code", code.Title)

	_, err = f.svc.Challenges.Complete(ctx, u.ID, code.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	joined, err := f.svc.Challenges.Join(ctx, u.ID, code.ID)
	require.NoError(t, err)
	assert.Contains(t, unlocked(joined.Outcome), "challenger")
	joined, err = f.svc.Challenges.Join(ctx, u.ID, code.ID)
	require.NoError(t, err)
	assert.True(t, joined.Outcome.Empty())
	assert.Equal(t, 1, joined.Challenge.Participants)

	before := f.state(t, u.ID).XP
	done, err := f.svc.Challenges.Complete(ctx, u.ID, code.ID)
	require.NoError(t, err)
	require.NotEmpty(t, done.Outcome.Gains)
	assert.Equal(t, gamification.SourceChallenge, done.Outcome.Gains[0].Source)
	assert.Equal(t, 500, done.Outcome.Gains[0].Amount)
	assert.Contains(t, unlocked(done.Outcome), "champion")
	assert.Equal(t, before+done.Outcome.TotalXP(), f.state(t, u.ID).XP)

	_, err = f.svc.Challenges.Complete(ctx, u.ID, code.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	react := upcoming[0]
	_, err = f.svc.Challenges.Join(ctx, u.ID, react.ID)
	require.NoError(t, err)
	_, err = f.svc.Challenges.Complete(ctx, u.ID, react.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	list, err := f.svc.Challenges.List(ctx, u.ID, "")
	require.NoError(t, err)
	for _, ch := range list {
		if ch.ID == code.ID {
			assert.True(t, ch.Completed)
		}
	}

	f.advance(3 * 24 * time.Hour)
	changed, err := f.svc.Challenges.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	f.advance(30 * 24 * time.Hour)
	changed, err = f.svc.Challenges.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	_, err = f.svc.Challenges.Join(ctx, u.ID, code.ID)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "first")
	b := f.register(t, "second")

	_, err := f.svc.Roadmaps.Generate(ctx, b.ID, GenerateInput{Topic: "Rust", Category: "programming", Outline: testOutline()})
	require.NoError(t, err)

	top, err := f.svc.Leaderboard.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.ID, top[0].UserID)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, "second", top[0].Username)
	assert.Greater(t, top[0].XP, top[1].XP)

	rank, err := f.svc.Leaderboard.Rank(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rank.Rank)
}

func TestExpireStreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "lapsed")

	_, err := f.svc.Progress.CheckIn(ctx, u.ID)
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	n, err := f.svc.Progress.ExpireStreaks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.advance(24 * time.Hour)
	n, err = f.svc.Progress.ExpireStreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := f.svc.Progress.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StreakDays)
	assert.Equal(t, 1, p.State.Streak.Longest)
}

func TestSaveDetectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "racer")
	p := f.svc.Progress
	db := f.svc.Env.DB

	first, _, err := p.load(db, u.ID)
	require.NoError(t, err)
	second, _, err := p.load(db, u.ID)
	require.NoError(t, err)

	require.NoError(t, p.save(db, first))
	assert.True(t, errors.Is(p.save(db, second), errStale))
}

func TestGetStoresReconciledState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "veteran")
	db := f.svc.Env.DB

	// Simulate a document written before "bookmarker" existed.
	var row models.Progress
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&row).Error)
	delete(row.State.Achievements, "bookmarker")
	require.NoError(t, db.Model(&row).Select("state").Updates(&row).Error)
	version := row.Version

	got, err := f.svc.Progress.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, got.State.Achievements, "bookmarker")

	var stored models.Progress
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&stored).Error)
	assert.Contains(t, stored.State.Achievements, "bookmarker")
	assert.Equal(t, version+1, stored.Version)

	_, err = f.svc.Progress.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&stored).Error)
	assert.Equal(t, version+1, stored.Version, "an up to date state is not rewritten")
}

func TestActivitySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "counter")

	_, err := f.svc.Progress.CheckIn(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.svc.Progress.Record(ctx, u.ID, gamification.Event{Kind: gamification.KindPostShared})
	require.NoError(t, err)
	_, err = f.svc.Progress.Record(ctx, u.ID, gamification.Event{Kind: "bogus"})
	assert.True(t, errors.Is(err, ErrInvalid))

	rows, err := f.svc.Progress.ActivitySummary(ctx, u.ID, wednesdayNoon.Add(-time.Hour))
	require.NoError(t, err)
	kinds := map[string]int64{}
	for _, r := range rows {
		kinds[r.Kind] = r.Count
	}
	assert.Equal(t, int64(1), kinds["pioneer"])
	assert.Equal(t, int64(1), kinds["daily_check_in"])
	assert.Equal(t, int64(1), kinds["post_shared"])
}
