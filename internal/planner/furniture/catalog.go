package furniture

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Furniture Model Catalogue
// ============================================================

//go:embed models.yaml
var builtinModels []byte

type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Model struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Category string  `yaml:"category" json:"category"`
	ModelURL string  `yaml:"model_url" json:"modelUrl"`
	Price    float64 `yaml:"price" json:"price"`
}

// Catalog - неизменяемый список моделей мебели, на которые ссылается ModelRef.
type Catalog struct {
	Categories []Category `yaml:"categories"`
	Models     []Model    `yaml:"models"`

	byID map[string]int
}

// Parse читает каталог из YAML. Id моделей уникальны, категория обязана существовать.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode furniture models: %w", err)
	}

	categories := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		categories[cat.ID] = struct{}{}
	}

	c.byID = make(map[string]int, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("furniture model without id")
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate furniture model %q", m.ID)
		}
		if _, ok := categories[m.Category]; !ok {
			return nil, fmt.Errorf("furniture model %q: unknown category %q", m.ID, m.Category)
		}
		if m.Price < 0 {
			return nil, fmt.Errorf("furniture model %q: negative price", m.ID)
		}
		c.byID[m.ID] = i
	}
	return &c, nil
}

var builtin = sync.OnceValues(func() (*Catalog, error) {
	return Parse(builtinModels)
})

// Default возвращает встроенный каталог; разбирается один раз.
func Default() (*Catalog, error) {
	return builtin()
}

// Builtin - Default для мест, где каталог обязан быть (встроенный файл покрыт тестом).
func Builtin() *Catalog {
	c, err := builtin()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Get(id string) (Model, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Model{}, false
	}
	return c.Models[i], true
}

// Has реализует проверку ModelRef для ledger.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// ByCategory возвращает модели категории; пустая строка - все модели.
func (c *Catalog) ByCategory(category string) []Model {
	category = strings.ToLower(strings.TrimSpace(category))
	out := []Model{}
	for _, m := range c.Models {
		if category == "" || m.Category == category {
			out = append(out, m)
		}
	}
	return out
}
