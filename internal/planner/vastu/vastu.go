package vastu

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Vastu Rule Catalogue
// ============================================================

//go:embed rules.yaml
var defaultRules []byte

const (
	anyDirection = "any"
	allRooms     = "all"
)

type Severity string

const (
	SeverityGood    Severity = "good"
	SeverityWarning Severity = "warning"
	SeverityBad     Severity = "bad"
)

type Rule struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	RoomTypes   []string `yaml:"room_types" json:"roomTypes"`
	Direction   string   `yaml:"direction" json:"direction"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Category    string   `yaml:"category" json:"category"`
}

type Direction struct {
	Angle  float64 `yaml:"angle" json:"angle"`
	Symbol string  `yaml:"symbol" json:"symbol"`
	Color  string  `yaml:"color" json:"color"`
}

// Catalog - неизменяемый набор правил, компас и рекомендации по мебели.
type Catalog struct {
	Rules           []Rule                         `yaml:"rules"`
	Directions      map[string]Direction           `yaml:"directions"`
	Recommendations map[string]map[string][]string `yaml:"recommendations"`
}

// Default разбирает встроенный rules.yaml.
func Default() (*Catalog, error) {
	return Parse(defaultRules)
}

// Parse читает каталог из YAML и проверяет направления и уровни.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode vastu rules: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for _, r := range c.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("vastu rule without id")
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("duplicate vastu rule %q", r.ID)
		}
		seen[r.ID] = struct{}{}

		if r.Direction != anyDirection {
			if _, ok := c.Directions[r.Direction]; !ok {
				return nil, fmt.Errorf("vastu rule %q: unknown direction %q", r.ID, r.Direction)
			}
		}
		switch r.Severity {
		case SeverityGood, SeverityWarning, SeverityBad:
		default:
			return nil, fmt.Errorf("vastu rule %q: unknown severity %q", r.ID, r.Severity)
		}
	}
	return &c, nil
}

// ForRoom возвращает правила для типа комнаты, включая общие ("all").
func (c *Catalog) ForRoom(roomType string) []Rule {
	room := normalize(roomType)
	return c.filter(func(r Rule) bool {
		for _, t := range r.RoomTypes {
			if t == room || t == allRooms {
				return true
			}
		}
		return false
	})
}

// ForDirection возвращает правила для стороны света; правила "any" подходят всегда.
func (c *Catalog) ForDirection(direction string) []Rule {
	dir := normalize(direction)
	return c.filter(func(r Rule) bool {
		return r.Direction == dir || r.Direction == anyDirection
	})
}

func (c *Catalog) ForCategory(category string) []Rule {
	cat := normalize(category)
	return c.filter(func(r Rule) bool { return r.Category == cat })
}

// ForFurniture возвращает рекомендуемые направления для предмета в комнате.
func (c *Catalog) ForFurniture(furniture, roomType string) []string {
	recs, ok := c.Recommendations[normalize(furniture)]
	if !ok {
		return []string{}
	}
	if dirs, ok := recs[normalize(roomType)]; ok {
		return append([]string(nil), dirs...)
	}
	return append([]string{}, recs[anyDirection]...)
}

// Score - доля "хороших" правил комнаты в процентах; предупреждения идут за половину.
func (c *Catalog) Score(roomType string) float64 {
	rules := c.ForRoom(roomType)
	if len(rules) == 0 {
		return 100
	}
	var score float64
	for _, r := range rules {
		switch r.Severity {
		case SeverityGood:
			score += 10
		case SeverityWarning:
			score += 5
		}
	}
	return math.Min(100, score/float64(len(rules)*10)*100)
}

// DirectionNames возвращает стороны света по возрастанию угла.
func (c *Catalog) DirectionNames() []string {
	names := make([]string, 0, len(c.Directions))
	for name := range c.Directions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return c.Directions[names[i]].Angle < c.Directions[names[j]].Angle
	})
	return names
}

func (c *Catalog) filter(keep func(Rule) bool) []Rule {
	out := []Rule{}
	for _, r := range c.Rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
