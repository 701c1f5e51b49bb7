package gamification

import (
	"time"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindRoadmapGenerated    Kind = "roadmap_generated"
	KindRoadmapViewed       Kind = "roadmap_viewed"
	KindRoadmapCompleted    Kind = "roadmap_completed"
	KindLessonCompleted     Kind = "lesson_completed"
	KindSubtopicCompleted   Kind = "subtopic_completed"
	KindKeyPointCompleted   Kind = "key_point_completed"
	KindProjectCreated      Kind = "project_created"
	KindProjectCompleted    Kind = "project_completed"
	KindDailyCheckIn        Kind = "daily_check_in"
	KindPostCreated         Kind = "post_created"
	KindPostShared          Kind = "post_shared"
	KindLikeGiven           Kind = "like_given"
	KindCommentAdded        Kind = "comment_added"
	KindPostSaved           Kind = "post_saved"
	KindFollowedUser        Kind = "followed_user"
	KindGainedFollower      Kind = "gained_follower"
	KindPostLikes           Kind = "post_likes"
	KindConversationStarted Kind = "conversation_started"
	KindChallengeJoined     Kind = "challenge_joined"
	KindChallengeCompleted  Kind = "challenge_completed"
	KindPioneer             Kind = "pioneer"
)

var (
	ErrUnknownEvent = errors.New("unknown activity event")
	ErrInvalidEvent = errors.New("invalid activity event")
)

// Event is one user activity. Only the fields its Kind uses are read.
type Event struct {
	Kind Kind `json:"kind"`

	// roadmap_generated, roadmap_completed
	Category string `json:"category,omitempty"`
	// roadmap_completed
	GeneratedAt       time.Time `json:"generated_at,omitempty"`
	AllNodesCompleted bool      `json:"all_nodes_completed,omitempty"`
	// post_likes
	Likes int `json:"likes,omitempty"`
	// challenge_completed
	XPReward int `json:"xp_reward,omitempty"`
}

// Base XP for learning activity before the streak multiplier.
const (
	XPRoadmapGenerated = 50
	XPRoadmapCompleted = 200
	XPLessonCompleted  = 75
	XPSubtopic         = 50
	XPKeyPoint         = 10

	speedRunDays       = 7
	trendsetterMinimum = 10
)

func (e Event) validate() error {
	switch e.Kind {
	case KindRoadmapGenerated:
		if e.Category == "" {
			return errors.Wrap(ErrInvalidEvent, "roadmap_generated needs a category")
		}
	case KindRoadmapCompleted:
		if e.GeneratedAt.IsZero() {
			return errors.Wrap(ErrInvalidEvent, "roadmap_completed needs generated_at")
		}
	case KindPostLikes:
		if e.Likes < 0 {
			return errors.Wrap(ErrInvalidEvent, "likes must not be negative")
		}
	case KindChallengeCompleted:
		if e.XPReward < 0 {
			return errors.Wrap(ErrInvalidEvent, "xp_reward must not be negative")
		}
	case KindRoadmapViewed, KindLessonCompleted, KindSubtopicCompleted, KindKeyPointCompleted,
		KindProjectCreated, KindProjectCompleted, KindDailyCheckIn, KindPostCreated,
		KindPostShared, KindLikeGiven, KindCommentAdded, KindPostSaved, KindFollowedUser,
		KindGainedFollower, KindConversationStarted, KindChallengeJoined, KindPioneer:
	default:
		return errors.Wrapf(ErrUnknownEvent, "%q", e.Kind)
	}
	return nil
}
