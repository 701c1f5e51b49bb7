package gamification

const MaxLevel = 100

type LevelTier struct {
	MinLevel int      `json:"min_level"`
	MaxLevel int      `json:"max_level"`
	Title    string   `json:"title"`
	Color    string   `json:"color"`
	Glow     string   `json:"glow_intensity"`
	Unlocks  []string `json:"unlocks"`
}

var LevelTiers = []LevelTier{
	{MinLevel: 1, MaxLevel: 5, Title: "Novice Explorer", Color: "#3b82f6", Glow: "minimal",
		Unlocks: []string{"Basic roadmap generation (1 at a time)"}},
	{MinLevel: 6, MaxLevel: 10, Title: "Apprentice Learner", Color: "#a855f7", Glow: "slight",
		Unlocks: []string{"Multiple roadmaps (up to 3)"}},
	{MinLevel: 11, MaxLevel: 20, Title: "Skilled Navigator", Color: "#06b6d4", Glow: "medium",
		Unlocks: []string{"Advanced roadmap customization"}},
	{MinLevel: 21, MaxLevel: 35, Title: "Master Strategist", Color: "#6366f1", Glow: "strong",
		Unlocks: []string{"Community roadmap sharing"}},
	{MinLevel: 36, MaxLevel: 50, Title: "Elite Pathfinder", Color: "#fbbf24", Glow: "intense",
		Unlocks: []string{"Custom achievement creation"}},
	{MinLevel: 51, MaxLevel: 75, Title: "Legendary Sage", Color: "linear-gradient(135deg, #f093fb 0%, #f5576c 100%)", Glow: "epic",
		Unlocks: []string{"Mentor features", "Exclusive badges"}},
	{MinLevel: 76, MaxLevel: 100, Title: "Grandmaster", Color: "linear-gradient(135deg, #667eea 0%, #764ba2 50%, #f093fb 100%)", Glow: "legendary",
		Unlocks: []string{"All features", "Special cosmetics"}},
}

// levelBand is one linear segment of the level curve: levels
// first..last cost step XP each, starting at base.
type levelBand struct {
	first, last int
	base, step  int
}

var levelBands = []levelBand{
	{first: 1, last: 5, base: 0, step: 500},
	{first: 6, last: 10, base: 2500, step: 500},
	{first: 11, last: 20, base: 5000, step: 500},
	{first: 21, last: 35, base: 10000, step: 667},
	{first: 36, last: 50, base: 20000, step: 1000},
	{first: 51, last: 75, base: 35000, step: 1000},
	{first: 76, last: MaxLevel, base: 60000, step: 1600},
}

// LevelFromXP maps total XP onto the piecewise-linear curve.
func LevelFromXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	for i, b := range levelBands {
		if i+1 < len(levelBands) && xp >= levelBands[i+1].base {
			continue
		}
		level := (xp-b.base)/b.step + b.first
		if level > MaxLevel {
			level = MaxLevel
		}
		return level
	}
	return MaxLevel
}

// XPForLevel is the total XP at which level is reached.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	for _, b := range levelBands {
		if level <= b.last {
			return b.base + (level-b.first)*b.step
		}
	}
	b := levelBands[len(levelBands)-1]
	return b.base + (level-b.first)*b.step
}

func TierFor(level int) LevelTier {
	for _, t := range LevelTiers {
		if level >= t.MinLevel && level <= t.MaxLevel {
			return t
		}
	}
	return LevelTiers[0]
}

type UserLevel struct {
	Level         int       `json:"level"`
	CurrentXP     int       `json:"current_xp"`
	XPToNextLevel int       `json:"xp_to_next_level"`
	Tier          LevelTier `json:"tier"`
	TotalXP       int       `json:"total_xp_earned"`
}

func LevelFor(totalXP int) UserLevel {
	level := LevelFromXP(totalXP)
	ul := UserLevel{
		Level:     level,
		CurrentXP: totalXP - XPForLevel(level),
		Tier:      TierFor(level),
		TotalXP:   totalXP,
	}
	if level < MaxLevel {
		ul.XPToNextLevel = XPForLevel(level+1) - totalXP
	}
	return ul
}

type LevelChange struct {
	From        int    `json:"from"`
	To          int    `json:"to"`
	TierChanged bool   `json:"tier_changed"`
	Tier        string `json:"tier"`
}

// CheckLevelUp reports whether moving from oldXP to newXP crosses a level.
func CheckLevelUp(oldXP, newXP int) (LevelChange, bool) {
	from, to := LevelFromXP(oldXP), LevelFromXP(newXP)
	if to <= from {
		return LevelChange{From: from, To: to, Tier: TierFor(to).Title}, false
	}
	return LevelChange{
		From:        from,
		To:          to,
		TierChanged: TierFor(from).Title != TierFor(to).Title,
		Tier:        TierFor(to).Title,
	}, true
}
