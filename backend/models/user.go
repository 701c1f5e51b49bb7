package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username       string `gorm:"uniqueIndex;not null" json:"username"`
	UsernameLower  string `gorm:"uniqueIndex;not null" json:"-"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string `gorm:"not null" json:"-"`
	Role           string `gorm:"default:user" json:"role"` // user, admin
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	PhotoURL       string `json:"photo_url"`
	IsPrivate      bool   `gorm:"default:false" json:"is_private"`
	SelectedSkin   string `gorm:"default:cyber-neon" json:"selected_skin"`
	PostsCount     int    `gorm:"default:0" json:"posts_count"`
	FollowersCount int    `gorm:"default:0" json:"followers_count"`
	FollowingCount int    `gorm:"default:0" json:"following_count"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UsernameLower = lower(u.Username)
	return nil
}

type LoginHistory struct {
	gorm.Model
	UserID    uint
	LoginTime time.Time
}

// Skins a user may pick for the roadmap view. Purely cosmetic.
var Skins = []string{"cyber-neon", "forest-quest", "space-odyssey", "dragons-lair", "ocean-depths"}

const DefaultSkin = "cyber-neon"

func ValidSkin(id string) bool {
	for _, s := range Skins {
		if s == id {
			return true
		}
	}
	return false
}
