package gamification

import (
	"sort"
	"time"
)

const (
	HistoryLimit = 100
	dayLayout    = "2006-01-02"
)

type Source string

const (
	SourceRoadmapGeneration Source = "roadmap_generation"
	SourceRoadmapCompletion Source = "roadmap_completion"
	SourceModuleCompletion  Source = "module_completion"
	SourceLessonCompletion  Source = "lesson_completion"
	SourceAchievement       Source = "achievement"
	SourceStreak            Source = "streak"
	SourceDailyLogin        Source = "daily_login"
	SourceSocial            Source = "social"
	SourceChallenge         Source = "challenge"
)

type XPGain struct {
	Amount     int       `json:"amount"`
	Source     Source    `json:"source"`
	Multiplier float64   `json:"multiplier"`
	At         time.Time `json:"timestamp"`
}

// AchievementProgress is a user's standing on one achievement. Unlocked
// maps star number to the time it was first reached.
type AchievementProgress struct {
	ID              string            `json:"id"`
	CurrentProgress int               `json:"current_progress"`
	TotalXPEarned   int               `json:"total_xp_earned"`
	Unlocked        map[int]time.Time `json:"unlocked,omitempty"`
}

func (p *AchievementProgress) StarUnlocked(star int) bool {
	_, ok := p.Unlocked[star]
	return ok
}

// Counters are the raw activity metrics that achievements measure.
type Counters struct {
	RoadmapsGenerated   int      `json:"roadmaps_generated"`
	RoadmapsCompleted   int      `json:"roadmaps_completed"`
	RoadmapsViewed      int      `json:"roadmaps_viewed"`
	DomainsExplored     []string `json:"domains_explored,omitempty"`
	CompletedCategories []string `json:"completed_categories,omitempty"`
	SpeedRuns           int      `json:"speed_runs"`
	PerfectCompletions  int      `json:"perfect_completions"`
	WeekendCompletions  int      `json:"weekend_completions"`
	LessonsCompleted    int      `json:"lessons_completed"`
	ProjectsCreated     int      `json:"projects_created"`
	ProjectsCompleted   int      `json:"projects_completed"`
	Posts               int      `json:"posts"`
	Shares              int      `json:"shares"`
	LikesGiven          int      `json:"likes_given"`
	Comments            int      `json:"comments"`
	Saves               int      `json:"saves"`
	Following           int      `json:"following"`
	Followers           int      `json:"followers"`
	SocialInteractions  int      `json:"social_interactions"`
	Conversations       int      `json:"conversations"`
	ChallengesJoined    int      `json:"challenges_joined"`
	ChallengesCompleted int      `json:"challenges_completed"`
}

// State is everything the engine knows about one user.
type State struct {
	XP           int                             `json:"xp"`
	Level        int                             `json:"level"`
	Achievements map[string]*AchievementProgress `json:"achievements"`
	Streak       Streak                          `json:"streak"`
	History      []XPGain                        `json:"xp_history"`
	ActiveDays   []string                        `json:"active_days"`
	Counters     Counters                        `json:"counters"`
}

func NewState(c *Catalog) State {
	st := State{
		Level:        1,
		Achievements: make(map[string]*AchievementProgress, c.Len()),
		Streak:       NewStreak(),
	}
	st.Reconcile(c)
	return st
}

// Reconcile adds progress entries for definitions the state predates and
// repairs fields an older document may lack. It reports whether anything
// changed.
func (st *State) Reconcile(c *Catalog) bool {
	changed := false
	if st.Achievements == nil {
		st.Achievements = make(map[string]*AchievementProgress, c.Len())
		changed = true
	}
	for _, d := range c.defs {
		if _, ok := st.Achievements[d.ID]; !ok {
			st.Achievements[d.ID] = &AchievementProgress{ID: d.ID}
			changed = true
		}
	}
	if st.Level < 1 {
		st.Level = LevelFromXP(st.XP)
		changed = true
	}
	if st.Streak.Multiplier == 0 {
		st.Streak.Multiplier = StreakMultiplier(st.Streak.Current)
		changed = true
	}
	return changed
}

// markActive records now's calendar day and reports whether it is new.
func (st *State) markActive(now time.Time) bool {
	day := now.Format(dayLayout)
	i := sort.SearchStrings(st.ActiveDays, day)
	if i < len(st.ActiveDays) && st.ActiveDays[i] == day {
		return false
	}
	st.ActiveDays = append(st.ActiveDays, "")
	copy(st.ActiveDays[i+1:], st.ActiveDays[i:])
	st.ActiveDays[i] = day
	return true
}

func (st *State) ActiveOn(now time.Time) bool {
	day := now.Format(dayLayout)
	i := sort.SearchStrings(st.ActiveDays, day)
	return i < len(st.ActiveDays) && st.ActiveDays[i] == day
}

func (st *State) UserLevel() UserLevel {
	return LevelFor(st.XP)
}

func addUnique(set []string, v string) ([]string, bool) {
	for _, s := range set {
		if s == v {
			return set, false
		}
	}
	return append(set, v), true
}
