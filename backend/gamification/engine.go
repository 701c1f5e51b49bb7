// Package gamification turns user activity into progression: XP, levels,
// streaks and tiered achievements. Everything here is deterministic; the
// caller supplies the clock and owns persistence.
package gamification

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

type StarUnlock struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Star          int    `json:"star"`
	XPReward      int    `json:"xp_reward"`
}

type StreakChange struct {
	From       int     `json:"from"`
	To         int     `json:"to"`
	Milestone  int     `json:"milestone_xp,omitempty"`
	Multiplier float64 `json:"multiplier"`
}

// Outcome describes what one engine call changed.
type Outcome struct {
	Gains   []XPGain      `json:"xp_gains"`
	Unlocks []StarUnlock  `json:"unlocks"`
	LevelUp *LevelChange  `json:"level_up,omitempty"`
	Streak  *StreakChange `json:"streak,omitempty"`
}

func (o Outcome) TotalXP() int {
	n := 0
	for _, g := range o.Gains {
		n += g.Amount
	}
	return n
}

func (o Outcome) Empty() bool {
	return len(o.Gains) == 0 && len(o.Unlocks) == 0 && o.LevelUp == nil && o.Streak == nil
}

type Engine struct {
	catalog *Catalog
}

func NewEngine(c *Catalog) *Engine {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Engine{catalog: c}
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

// AddXP credits amount from source. A multiplier <= 0 means "use the
// current streak multiplier".
func (e *Engine) AddXP(st *State, amount int, source Source, multiplier float64, now time.Time) (Outcome, error) {
	if amount < 0 {
		return Outcome{}, errors.Wrapf(ErrInvalidEvent, "negative xp amount %d", amount)
	}
	s := e.begin(st, now)
	s.addXP(amount, source, multiplier)
	return s.finish(), nil
}

// UpdateAchievement sets the progress of one achievement. Unknown ids are
// ignored.
func (e *Engine) UpdateAchievement(st *State, id string, progress int, now time.Time) Outcome {
	s := e.begin(st, now)
	s.enqueue(id, progress)
	return s.finish()
}

func (e *Engine) UpdateStreak(st *State, now time.Time) Outcome {
	s := e.begin(st, now)
	s.updateStreak()
	return s.finish()
}

// Apply folds one activity event into st.
func (e *Engine) Apply(st *State, ev Event, now time.Time) (Outcome, error) {
	if err := ev.validate(); err != nil {
		return Outcome{}, err
	}
	s := e.begin(st, now)
	c := &st.Counters

	switch ev.Kind {
	case KindRoadmapGenerated:
		s.updateStreak()
		c.RoadmapsGenerated++
		c.RoadmapsViewed++
		c.DomainsExplored, _ = addUnique(c.DomainsExplored, ev.Category)
		s.addXP(XPRoadmapGenerated, SourceRoadmapGeneration, 0)
		s.enqueue("pathfinder", c.RoadmapsGenerated)
		s.enqueue("specialist", len(c.DomainsExplored))
		s.enqueue("explorer", c.RoadmapsViewed)
		s.enqueue("jack_of_all_trades", len(c.DomainsExplored))
		s.enqueue("hundred_club", c.RoadmapsGenerated)
		switch now.Hour() {
		case 3:
			s.enqueue("night_owl", 1)
		case 6:
			s.enqueue("early_bird", 1)
		}

	case KindRoadmapViewed:
		c.RoadmapsViewed++
		s.enqueue("explorer", c.RoadmapsViewed)

	case KindRoadmapCompleted:
		s.updateStreak()
		c.RoadmapsCompleted++
		s.addXP(XPRoadmapCompleted, SourceRoadmapCompletion, 0)
		s.enqueue("finisher", c.RoadmapsCompleted)
		if int(now.Sub(ev.GeneratedAt).Hours()/24) < speedRunDays {
			c.SpeedRuns++
			s.enqueue("speedrunner", c.SpeedRuns)
		}
		if ev.AllNodesCompleted {
			c.PerfectCompletions++
			s.enqueue("perfectionist", c.PerfectCompletions)
		}
		if ev.Category != "" {
			c.CompletedCategories, _ = addUnique(c.CompletedCategories, ev.Category)
			s.enqueue("polymath", len(c.CompletedCategories))
		}
		if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
			c.WeekendCompletions++
			s.enqueue("weekend_warrior", c.WeekendCompletions)
		}
		s.enqueue("scholar", c.LessonsCompleted)

	case KindLessonCompleted:
		s.updateStreak()
		c.LessonsCompleted++
		s.addXP(XPLessonCompleted, SourceModuleCompletion, 0)
		s.enqueue("student", c.LessonsCompleted)
		s.enqueue("daily_learner", len(st.ActiveDays))
		switch h := now.Hour(); {
		case h < 2:
			s.enqueue("midnight_learner", 1)
		case h >= 5 && h < 7:
			s.enqueue("early_riser", 1)
		}

	case KindSubtopicCompleted:
		s.updateStreak()
		s.addXP(XPSubtopic, SourceLessonCompletion, 0)

	case KindKeyPointCompleted:
		s.updateStreak()
		s.addXP(XPKeyPoint, SourceLessonCompletion, 0)

	case KindProjectCreated:
		c.ProjectsCreated++
		s.enqueue("builder", c.ProjectsCreated)

	case KindProjectCompleted:
		s.updateStreak()
		c.ProjectsCompleted++
		s.enqueue("architect", c.ProjectsCompleted)

	case KindDailyCheckIn:
		s.updateStreak()

	case KindPostCreated:
		c.Posts++
		s.enqueue("storyteller", c.Posts)

	case KindPostShared:
		c.Shares++
		s.enqueue("influencer", c.Shares)

	case KindLikeGiven:
		c.LikesGiven++
		c.SocialInteractions++
		s.enqueue("appreciator", c.LikesGiven)
		s.enqueue("social_butterfly", c.SocialInteractions)

	case KindCommentAdded:
		c.Comments++
		c.SocialInteractions++
		s.enqueue("commentator", c.Comments)
		s.enqueue("social_butterfly", c.SocialInteractions)

	case KindPostSaved:
		c.Saves++
		s.enqueue("bookmarker", c.Saves)

	case KindFollowedUser:
		c.Following++
		c.SocialInteractions++
		s.enqueue("networker", c.Following)
		s.enqueue("social_butterfly", c.SocialInteractions)

	case KindGainedFollower:
		c.Followers++
		s.enqueue("learning_influencer", c.Followers)

	case KindPostLikes:
		// Progress is the best single post so far.
		if ev.Likes >= trendsetterMinimum {
			best := ev.Likes
			if p := st.Achievements["trendsetter"]; p != nil && p.CurrentProgress > best {
				best = p.CurrentProgress
			}
			s.enqueue("trendsetter", best)
		}

	case KindConversationStarted:
		c.Conversations++
		s.enqueue("collaborator", c.Conversations)

	case KindChallengeJoined:
		c.ChallengesJoined++
		s.enqueue("challenger", c.ChallengesJoined)

	case KindChallengeCompleted:
		c.ChallengesCompleted++
		s.enqueue("champion", c.ChallengesCompleted)
		s.addXP(ev.XPReward, SourceChallenge, 1)

	case KindPioneer:
		s.enqueue("pioneer", 1)
	}

	return s.finish(), nil
}

type pendingProgress struct {
	id       string
	progress int
}

// session accumulates one engine call. Achievement updates are queued and
// drained in order so that XP paid by a star can unlock further stars
// (xp_collector, leveler) without recursion. The loop ends because every
// payout requires a star that was locked before.
type session struct {
	e     *Engine
	st    *State
	now   time.Time
	out   Outcome
	queue []pendingProgress
}

func (e *Engine) begin(st *State, now time.Time) *session {
	st.Reconcile(e.catalog)
	return &session{e: e, st: st, now: now}
}

func (s *session) finish() Outcome {
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.evaluate(next.id, next.progress)
	}
	return s.out
}

func (s *session) enqueue(id string, progress int) {
	s.queue = append(s.queue, pendingProgress{id: id, progress: progress})
}

func (s *session) evaluate(id string, progress int) {
	def, ok := s.e.catalog.Lookup(id)
	if !ok {
		return
	}
	p := s.st.Achievements[id]
	if p == nil {
		p = &AchievementProgress{ID: id}
		s.st.Achievements[id] = p
	}
	stars, xp := CheckTiers(def, p, progress, s.now)
	for _, star := range stars {
		reward := 0
		for _, t := range def.Tiers {
			if t.Star == star {
				reward = t.XPReward
			}
		}
		s.out.Unlocks = append(s.out.Unlocks, StarUnlock{
			AchievementID: id,
			Name:          def.Name,
			Star:          star,
			XPReward:      reward,
		})
	}
	if xp > 0 {
		s.addXP(xp, SourceAchievement, 1)
	}
}

func (s *session) addXP(amount int, source Source, multiplier float64) {
	if amount <= 0 {
		return
	}
	if multiplier <= 0 {
		multiplier = s.st.Streak.Multiplier
		if multiplier <= 0 {
			multiplier = 1
		}
	}
	final := int(math.Floor(float64(amount) * multiplier))
	if final <= 0 {
		return
	}

	oldXP := s.st.XP
	s.st.XP += final
	gain := XPGain{Amount: final, Source: source, Multiplier: multiplier, At: s.now}
	s.st.History = append(s.st.History, gain)
	if over := len(s.st.History) - HistoryLimit; over > 0 {
		s.st.History = append([]XPGain(nil), s.st.History[over:]...)
	}
	s.st.markActive(s.now)
	s.out.Gains = append(s.out.Gains, gain)

	if change, ok := CheckLevelUp(oldXP, s.st.XP); ok {
		s.st.Level = change.To
		if s.out.LevelUp == nil {
			s.out.LevelUp = &change
		} else {
			s.out.LevelUp.To = change.To
			s.out.LevelUp.Tier = change.Tier
			s.out.LevelUp.TierChanged = TierFor(s.out.LevelUp.From).Title != change.Tier
		}
		s.enqueue("leveler", change.To)
	}
	s.enqueue("xp_collector", s.st.XP)
}

func (s *session) updateStreak() {
	before := s.st.Streak.Current
	next, changed := AdvanceStreak(s.st.Streak, s.now)
	s.st.Streak = next
	s.st.markActive(s.now)
	if !changed {
		return
	}

	milestone := MilestoneReward(next.Current)
	s.out.Streak = &StreakChange{
		From:       before,
		To:         next.Current,
		Milestone:  milestone,
		Multiplier: next.Multiplier,
	}
	s.enqueue("consistency", next.Current)
	s.enqueue("marathoner", next.Current)
	if milestone > 0 {
		s.addXP(milestone, SourceStreak, 1)
	}
}
