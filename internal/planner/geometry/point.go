package geometry

import (
	"fmt"
	"math"

	"room-planner/internal/planner/models"
)

// ============================================================
// Point primitives
// ============================================================

// Epsilon - допуск при сравнении координат.
const Epsilon = 1e-9

func Distance(a, b models.Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func Midpoint(a, b models.Point2D) models.Point2D {
	return models.Point2D{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
	}
}

// Snap округляет обе координаты до ближайшего кратного gridSize.
func Snap(p models.Point2D, gridSize float64) (models.Point2D, error) {
	if gridSize <= 0 || math.IsNaN(gridSize) || math.IsInf(gridSize, 0) {
		return p, fmt.Errorf("%w: grid size must be positive, got %v", models.ErrInvalidArgument, gridSize)
	}
	return models.Point2D{
		X: math.Round(p.X/gridSize) * gridSize,
		Y: math.Round(p.Y/gridSize) * gridSize,
	}, nil
}

// IsWithinRadius - попадание указателя в узел.
func IsWithinRadius(p, center models.Point2D, radius float64) bool {
	return Distance(p, center) <= radius
}

func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SegmentDistance возвращает расстояние от p до отрезка a-b и параметр
// t в [0, 1] ближайшей точки.
func SegmentDistance(p, a, b models.Point2D) (float64, float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy

	if lenSq == 0 {
		return Distance(p, a), 0
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = Clamp(t, 0, 1)

	proj := models.Point2D{X: a.X + t*dx, Y: a.Y + t*dy}
	return Distance(p, proj), t
}

// Cross - z-компонента (a-o) x (b-o).
func Cross(o, a, b models.Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func AlmostEqual(a, b models.Point2D) bool {
	return math.Abs(a.X-b.X) < Epsilon && math.Abs(a.Y-b.Y) < Epsilon
}
