package gamification

import (
	_ "embed"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Category string

const (
	CategoryGeneration Category = "generation"
	CategoryCompletion Category = "completion"
	CategoryEngagement Category = "engagement"
	CategorySocial     Category = "social"
	CategorySpecial    Category = "special"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneration, CategoryCompletion, CategoryEngagement, CategorySocial, CategorySpecial:
		return true
	}
	return false
}

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Tier is one star of an achievement. Reaching Requirement on the
// achievement's metric pays XPReward once.
type Tier struct {
	Star        int `yaml:"star" json:"star"`
	Requirement int `yaml:"requirement" json:"requirement"`
	XPReward    int `yaml:"xp" json:"xp_reward"`
}

type Definition struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Category    Category `yaml:"category" json:"category"`
	Rarity      Rarity   `yaml:"rarity" json:"rarity"`
	Icon        string   `yaml:"icon" json:"icon"`
	Tiers       []Tier   `yaml:"tiers" json:"tiers"`
}

// Catalog is an immutable, ordered set of achievement definitions.
type Catalog struct {
	defs []Definition
	byID map[string]int
}

//go:embed achievements.yaml
var defaultCatalogYAML []byte

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in catalog. It panics if the embedded
// file is malformed, which the package tests guard against.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// ParseCatalog decodes a YAML list of definitions and validates it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, errors.Wrap(err, "decode achievement catalog")
	}
	return NewCatalog(defs)
}

func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs: make([]Definition, 0, len(defs)),
		byID: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := validateDefinition(d); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, errors.Errorf("achievement %q defined twice", d.ID)
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

func validateDefinition(d Definition) error {
	if d.ID == "" {
		return errors.New("achievement without id")
	}
	if !d.Category.Valid() {
		return errors.Errorf("achievement %q: unknown category %q", d.ID, d.Category)
	}
	if len(d.Tiers) == 0 || len(d.Tiers) > 5 {
		return errors.Errorf("achievement %q: needs 1 to 5 tiers, has %d", d.ID, len(d.Tiers))
	}
	for i, t := range d.Tiers {
		if t.Star < 1 || t.Star > 5 {
			return errors.Errorf("achievement %q: star %d out of range", d.ID, t.Star)
		}
		if t.Requirement <= 0 || t.XPReward <= 0 {
			return errors.Errorf("achievement %q: star %d needs a positive requirement and reward", d.ID, t.Star)
		}
		if i == 0 {
			continue
		}
		prev := d.Tiers[i-1]
		if t.Star <= prev.Star || t.Requirement <= prev.Requirement {
			return errors.Errorf("achievement %q: tiers must ascend (star %d after star %d)", d.ID, t.Star, prev.Star)
		}
	}
	return nil
}

func (c *Catalog) Lookup(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Definitions returns the definitions in catalog order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *Catalog) ByCategory(cat Category) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

func (c *Catalog) Len() int { return len(c.defs) }
