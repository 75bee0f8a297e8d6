package mapper

import (
	"fmt"
	"math"

	"room-planner/internal/planner/models"
)

// ============================================================
// Coordinate Mapper
// ============================================================

// Значения по умолчанию для холста 400x300: центр холста - начало координат
// сцены, 10 пикселей на единицу.
const (
	DefaultScaleFactor = 10.0
	DefaultOffsetX     = 200.0
	DefaultOffsetY     = 150.0
)

// Mapper переводит пиксели редактора в единицы сцены и обратно.
// x редактора -> x сцены, y редактора -> z сцены, пол лежит на y = 0.
type Mapper struct {
	scale   float64
	offsetX float64
	offsetY float64
}

func New(scale, offsetX, offsetY float64) (*Mapper, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: scale factor must be positive, got %v", models.ErrInvalidArgument, scale)
	}
	return &Mapper{scale: scale, offsetX: offsetX, offsetY: offsetY}, nil
}

func Default() *Mapper {
	return &Mapper{scale: DefaultScaleFactor, offsetX: DefaultOffsetX, offsetY: DefaultOffsetY}
}

// FitCanvas центрирует комнату roomWidth x roomDepth на холсте, выбирая
// наибольший масштаб, при котором она влезает по обеим осям.
func FitCanvas(canvasWidth, canvasHeight, roomWidth, roomDepth float64) (*Mapper, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, fmt.Errorf("%w: canvas %vx%v", models.ErrInvalidArgument, canvasWidth, canvasHeight)
	}
	if roomWidth <= 0 || roomDepth <= 0 {
		return nil, fmt.Errorf("%w: room %vx%v", models.ErrInvalidArgument, roomWidth, roomDepth)
	}
	scale := math.Min(canvasWidth/roomWidth, canvasHeight/roomDepth)
	return New(scale, canvasWidth/2, canvasHeight/2)
}

func (m *Mapper) ScaleFactor() float64 { return m.scale }

func (m *Mapper) Offset() (float64, float64) { return m.offsetX, m.offsetY }

func (m *Mapper) ToScene(p models.Point2D) models.Vector3 {
	return models.Vector3{
		X: (p.X - m.offsetX) / m.scale,
		Y: 0,
		Z: (p.Y - m.offsetY) / m.scale,
	}
}

// ToEditor обратна ToScene; y отбрасывается.
func (m *Mapper) ToEditor(v models.Vector3) models.Point2D {
	return models.Point2D{
		X: v.X*m.scale + m.offsetX,
		Y: v.Z*m.scale + m.offsetY,
	}
}

func (m *Mapper) ToSceneAll(points []models.Point2D) []models.Vector3 {
	out := make([]models.Vector3, len(points))
	for i, p := range points {
		out[i] = m.ToScene(p)
	}
	return out
}

func (m *Mapper) ToEditorDistance(d float64) float64 {
	return d * m.scale
}

// ============================================================
// Furniture footprint
// ============================================================

// Габариты модели мебели при масштабе 1, в единицах сцены.
const (
	FootprintWidth = 4.0
	FootprintDepth = 3.0
)

// Footprint возвращает четыре угла проекции мебели на пол в пикселях,
// с учётом поворота вокруг y.
func (m *Mapper) Footprint(f models.FurnitureInstance) []models.Point2D {
	center := m.ToEditor(f.Position)
	halfW := m.ToEditorDistance(FootprintWidth*f.Scale.X) / 2
	halfD := m.ToEditorDistance(FootprintDepth*f.Scale.Z) / 2

	corners := []models.Point2D{
		{X: -halfW, Y: -halfD},
		{X: halfW, Y: -halfD},
		{X: halfW, Y: halfD},
		{X: -halfW, Y: halfD},
	}

	sin := math.Sin(f.Rotation.Y)
	cos := math.Cos(f.Rotation.Y)
	for i, c := range corners {
		corners[i] = models.Point2D{
			X: center.X + c.X*cos - c.Y*sin,
			Y: center.Y + c.X*sin + c.Y*cos,
		}
	}
	return corners
}
