package models

// All lists every table AutoMigrate manages.
func All() []interface{} {
	return []interface{}{
		&User{},
		&LoginHistory{},
		&Progress{},
		&ActivityLog{},
		&Roadmap{},
		&RoadmapNode{},
		&Project{},
		&Post{},
		&PostLike{},
		&PostSave{},
		&Comment{},
		&Follow{},
		&Conversation{},
		&Message{},
		&Notification{},
		&Challenge{},
		&ChallengeParticipant{},
	}
}
