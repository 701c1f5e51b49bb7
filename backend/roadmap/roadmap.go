// Package roadmap holds the node state machine of a learning roadmap.
// Nodes unlock strictly in order: finishing the lessons of one node
// activates the next.
package roadmap

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusLocked    Status = "locked"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

var (
	ErrEmptyOutline = errors.New("roadmap outline has no topics")
	ErrUnknownNode  = errors.New("unknown roadmap node")
	ErrNodeLocked   = errors.New("roadmap node is locked")
	ErrUnknownItem  = errors.New("unknown roadmap item")
)

// Outline is the learning-area / topic / subtopic tree a roadmap is built
// from. Every topic becomes one node whose lessons are its subtopics.
type Outline struct {
	Areas []Area `json:"areas" validate:"required,min=1,dive"`
}

type Area struct {
	Title  string  `json:"title" validate:"required,max=200"`
	Topics []Topic `json:"topics" validate:"required,min=1,dive"`
}

type Topic struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Subtopics   []Subtopic `json:"subtopics" validate:"dive"`
}

type Subtopic struct {
	Title     string   `json:"title" validate:"required,max=200"`
	KeyPoints []string `json:"key_points" validate:"max=20"`
}

type Node struct {
	Key              string `json:"key"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Position         int    `json:"position"`
	Lessons          int    `json:"lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	Status           Status `json:"status"`
}

// Build flattens the outline into nodes in reading order. The first node
// starts active, the rest locked. A topic without subtopics is one lesson.
func Build(o Outline) ([]Node, error) {
	var nodes []Node
	for ai, area := range o.Areas {
		for ti, topic := range area.Topics {
			lessons := len(topic.Subtopics)
			if lessons == 0 {
				lessons = 1
			}
			nodes = append(nodes, Node{
				Key:         fmt.Sprintf("%d.%d", ai, ti),
				Title:       topic.Title,
				Description: topic.Description,
				Position:    len(nodes),
				Lessons:     lessons,
				Status:      StatusLocked,
			})
		}
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyOutline
	}
	nodes[0].Status = StatusActive
	return nodes, nil
}

// LessonResult reports what one CompleteLesson call changed.
type LessonResult struct {
	Counted       bool   `json:"counted"`
	NodeCompleted bool   `json:"node_completed"`
	Unlocked      string `json:"unlocked,omitempty"`
}

// CompleteLesson records one finished lesson on the node with key. Lessons
// on a completed node are ignored; a locked node is an error.
func CompleteLesson(nodes []Node, key string) (LessonResult, error) {
	i := indexOf(nodes, key)
	if i < 0 {
		return LessonResult{}, errors.Wrapf(ErrUnknownNode, "%q", key)
	}
	n := &nodes[i]
	switch n.Status {
	case StatusCompleted:
		return LessonResult{}, nil
	case StatusLocked:
		return LessonResult{}, errors.Wrapf(ErrNodeLocked, "%q", key)
	}

	res := LessonResult{Counted: true}
	n.CompletedLessons++
	if n.CompletedLessons < n.Lessons {
		return res, nil
	}
	n.CompletedLessons = n.Lessons
	n.Status = StatusCompleted
	res.NodeCompleted = true
	for j := i + 1; j < len(nodes); j++ {
		if nodes[j].Status == StatusLocked {
			nodes[j].Status = StatusActive
			res.Unlocked = nodes[j].Key
			break
		}
	}
	return res, nil
}

func AllCompleted(nodes []Node) bool {
	for _, n := range nodes {
		if n.Status != StatusCompleted {
			return false
		}
	}
	return len(nodes) > 0
}

// Percent is completed lessons over total lessons, 0..100.
func Percent(nodes []Node) int {
	total, done := 0, 0
	for _, n := range nodes {
		total += n.Lessons
		done += n.CompletedLessons
	}
	if total == 0 {
		return 0
	}
	return done * 100 / total
}

func indexOf(nodes []Node, key string) int {
	for i := range nodes {
		if nodes[i].Key == key {
			return i
		}
	}
	return -1
}

// SubtopicKey identifies subtopic s of node position p.
func SubtopicKey(p, s int) string {
	return fmt.Sprintf("%d-%d", p, s)
}

// KeyPointKey identifies key point k of subtopic s of node position p.
func KeyPointKey(p, s, k int) string {
	return fmt.Sprintf("%d-%d-%d", p, s, k)
}

// ValidItemKey checks that key addresses a subtopic (2 parts) or a key
// point (3 parts) that exists in the outline.
func ValidItemKey(o Outline, key string, keyPoint bool) bool {
	parts := strings.Split(key, "-")
	want := 2
	if keyPoint {
		want = 3
	}
	if len(parts) != want {
		return false
	}
	idx := make([]int, len(parts))
	for i, p := range parts {
		if _, err := fmt.Sscanf(p, "%d", &idx[i]); err != nil || idx[i] < 0 || fmt.Sprint(idx[i]) != p {
			return false
		}
	}
	topic, ok := topicAt(o, idx[0])
	if !ok || idx[1] >= len(topic.Subtopics) {
		return false
	}
	if keyPoint && idx[2] >= len(topic.Subtopics[idx[1]].KeyPoints) {
		return false
	}
	return true
}

func topicAt(o Outline, position int) (Topic, bool) {
	for _, a := range o.Areas {
		if position < len(a.Topics) {
			return a.Topics[position], true
		}
		position -= len(a.Topics)
	}
	return Topic{}, false
}

// Toggle flips key in set and reports whether it is now completed. Only a
// transition to completed earns anything; unchecking is free.
func Toggle(set map[string]bool, key string) (map[string]bool, bool) {
	if set == nil {
		set = make(map[string]bool)
	}
	if set[key] {
		delete(set, key)
		return set, false
	}
	set[key] = true
	return set, true
}
