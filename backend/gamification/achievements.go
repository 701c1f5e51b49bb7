package gamification

import "time"

// CheckTiers records progress against def and unlocks every tier it has
// newly reached. It returns the unlocked star numbers in tier order and
// the XP they pay. Tiers that are already unlocked never pay again, and a
// lower progress value never relocks anything.
func CheckTiers(def Definition, p *AchievementProgress, progress int, now time.Time) ([]int, int) {
	p.CurrentProgress = progress

	var stars []int
	xp := 0
	for _, t := range def.Tiers {
		if p.StarUnlocked(t.Star) || progress < t.Requirement {
			continue
		}
		if p.Unlocked == nil {
			p.Unlocked = make(map[int]time.Time, len(def.Tiers))
		}
		p.Unlocked[t.Star] = now
		stars = append(stars, t.Star)
		xp += t.XPReward
	}
	p.TotalXPEarned += xp
	return stars, xp
}

func StarsEarned(def Definition, p *AchievementProgress) int {
	n := 0
	for _, t := range def.Tiers {
		if p.StarUnlocked(t.Star) {
			n++
		}
	}
	return n
}

// NextTier returns the lowest tier not yet unlocked.
func NextTier(def Definition, p *AchievementProgress) (Tier, bool) {
	for _, t := range def.Tiers {
		if !p.StarUnlocked(t.Star) {
			return t, true
		}
	}
	return Tier{}, false
}

// AchievementView joins a definition with a user's progress on it.
type AchievementView struct {
	Definition
	CurrentProgress int        `json:"current_progress"`
	TotalXPEarned   int        `json:"total_xp_earned"`
	StarsEarned     int        `json:"stars_earned"`
	UnlockedStars   []int      `json:"unlocked_stars"`
	Next            *Tier      `json:"next,omitempty"`
	LastUnlockedAt  *time.Time `json:"last_unlocked_at,omitempty"`
}

// Views lists every catalog achievement with the user's progress, in
// catalog order, optionally restricted to one category.
func (st *State) Views(c *Catalog, only Category) []AchievementView {
	var out []AchievementView
	for _, d := range c.defs {
		if only != "" && d.Category != only {
			continue
		}
		p := st.Achievements[d.ID]
		if p == nil {
			p = &AchievementProgress{ID: d.ID}
		}
		v := AchievementView{
			Definition:      d,
			CurrentProgress: p.CurrentProgress,
			TotalXPEarned:   p.TotalXPEarned,
			StarsEarned:     StarsEarned(d, p),
			UnlockedStars:   []int{},
		}
		for _, t := range d.Tiers {
			at, ok := p.Unlocked[t.Star]
			if !ok {
				continue
			}
			v.UnlockedStars = append(v.UnlockedStars, t.Star)
			if v.LastUnlockedAt == nil || at.After(*v.LastUnlockedAt) {
				at := at
				v.LastUnlockedAt = &at
			}
		}
		if next, ok := NextTier(d, p); ok {
			v.Next = &next
		}
		out = append(out, v)
	}
	return out
}
