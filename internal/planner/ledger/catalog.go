package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"room-planner/internal/planner/models"
)

// ============================================================
// Materials & Defaults
// ============================================================

const (
	DefaultColor   = "#8B7355"
	DefaultTexture = "wood"
)

type Texture struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Textures = []Texture{
	{ID: "wood", Name: "Wood", Description: "Natural wood grain"},
	{ID: "matte", Name: "Matte White", Description: "Smooth matte finish"},
	{ID: "marble", Name: "Glossy Marble", Description: "Polished marble surface"},
	{ID: "granite", Name: "Granite", Description: "Textured granite finish"},
	{ID: "fabric", Name: "Fabric", Description: "Soft fabric upholstery"},
	{ID: "metal", Name: "Metal", Description: "Brushed metal finish"},
}

type Swatch struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

var Palette = []Swatch{
	{ID: "warm-gray", Name: "Warm Gray", Value: "#8B8680"},
	{ID: "ocean-blue", Name: "Ocean Blue", Value: "#006994"},
	{ID: "burnt-sienna", Name: "Burnt Sienna", Value: "#E97451"},
	{ID: "ivory", Name: "Ivory", Value: "#FFFFF0"},
	{ID: "jet-black", Name: "Jet Black", Value: "#343434"},
}

var hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// validateFinish проверяет цвет (#rgb или #rrggbb) и ключ текстуры. Пустые значения допустимы.
func validateFinish(color, texture string) error {
	if color != "" && !hexColorRe.MatchString(color) {
		return fmt.Errorf("%w: color %q is not a hex colour", models.ErrInvalidArgument, color)
	}
	if texture != "" && !KnownTexture(texture) {
		return fmt.Errorf("%w: unknown texture %q", models.ErrInvalidArgument, texture)
	}
	return nil
}

func KnownTexture(id string) bool {
	for _, t := range Textures {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Default описывает предмет стартовой расстановки.
type Default struct {
	ModelRef string
	Position models.Vector3
	Scale    models.Vector3
}

var one = models.Vector3{X: 1, Y: 1, Z: 1}

var roomDefaults = map[string][]Default{
	"bedroom": {
		{ModelRef: "bed-platform", Position: models.Vector3{Z: -2}, Scale: one},
		{ModelRef: "table-side", Position: models.Vector3{X: 3}, Scale: models.Vector3{X: 0.8, Y: 0.8, Z: 0.8}},
	},
	"living room": {
		{ModelRef: "sofa-sectional", Scale: one},
		{ModelRef: "table-coffee", Position: models.Vector3{Z: 2}, Scale: models.Vector3{X: 0.9, Y: 0.9, Z: 0.9}},
	},
	"kitchen": {
		{ModelRef: "dining-set", Scale: one},
	},
}

// DefaultsFor возвращает стартовую расстановку; тип комнаты без учёта регистра.
func DefaultsFor(roomType string) []Default {
	return roomDefaults[strings.ToLower(strings.TrimSpace(roomType))]
}
