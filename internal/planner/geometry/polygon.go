package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"room-planner/internal/planner/models"
)

// ============================================================
// Polygon measures
// ============================================================

// Функции ниже считают точки замкнутым контуром: последняя соединяется с
// первой. Замыкающий дубликат не передаётся.

func toRing(points []models.Point2D) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

func fromOrb(p orb.Point) models.Point2D {
	return models.Point2D{X: p.X(), Y: p.Y()}
}

// Bounds возвращает углы ограничивающего прямоугольника.
func Bounds(points []models.Point2D) (models.Point2D, models.Point2D) {
	if len(points) == 0 {
		return models.Point2D{}, models.Point2D{}
	}
	b := toRing(points).Bound()
	return fromOrb(b.Min), fromOrb(b.Max)
}

func Area(points []models.Point2D) float64 {
	if len(points) < 3 {
		return 0
	}
	return math.Abs(planar.Area(toRing(points)))
}

// SignedArea положительна для обхода против часовой стрелки (ось y вверх).
func SignedArea(points []models.Point2D) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func Centroid(points []models.Point2D) models.Point2D {
	switch len(points) {
	case 0:
		return models.Point2D{}
	case 1, 2:
		var sx, sy float64
		for _, p := range points {
			sx += p.X
			sy += p.Y
		}
		return models.Point2D{X: sx / float64(len(points)), Y: sy / float64(len(points))}
	}
	c, _ := planar.CentroidArea(toRing(points))
	return fromOrb(c)
}

func Contains(points []models.Point2D, p models.Point2D) bool {
	if len(points) < 3 {
		return false
	}
	return planar.RingContains(toRing(points), orb.Point{p.X, p.Y})
}

// InBounds - быстрая проверка по ограничивающему прямоугольнику.
func InBounds(points []models.Point2D, p models.Point2D) bool {
	if len(points) == 0 {
		return false
	}
	return toRing(points).Bound().Contains(orb.Point{p.X, p.Y})
}

// IsClockwise определяет обход в системе с осью y вверх. В редакторе ось y
// направлена вниз, поэтому контур "по часовой" на экране даёт false.
func IsClockwise(points []models.Point2D) bool {
	if len(points) < 3 {
		return false
	}
	return toRing(points).Orientation() == orb.CW
}

func Perimeter(points []models.Point2D) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		total += Distance(points[i], points[(i+1)%n])
	}
	return total
}

// ============================================================
// Self-intersection
// ============================================================

// SegmentsIntersect проверяет, есть ли у отрезков ab и cd общая точка.
// Касание и наложение на одной прямой тоже считаются пересечением.
func SegmentsIntersect(a, b, c, d models.Point2D) bool {
	d1 := Cross(c, d, a)
	d2 := Cross(c, d, b)
	d3 := Cross(a, b, c)
	d4 := Cross(a, b, d)

	if opposite(d1, d2) && opposite(d3, d4) {
		return true
	}
	return (math.Abs(d1) <= Epsilon && onSegment(c, d, a)) ||
		(math.Abs(d2) <= Epsilon && onSegment(c, d, b)) ||
		(math.Abs(d3) <= Epsilon && onSegment(a, b, c)) ||
		(math.Abs(d4) <= Epsilon && onSegment(a, b, d))
}

func opposite(x, y float64) bool {
	return (x > Epsilon && y < -Epsilon) || (x < -Epsilon && y > Epsilon)
}

// onSegment: p уже лежит на прямой ab.
func onSegment(a, b, p models.Point2D) bool {
	return p.X >= min(a.X, b.X)-Epsilon && p.X <= max(a.X, b.X)+Epsilon &&
		p.Y >= min(a.Y, b.Y)-Epsilon && p.Y <= max(a.Y, b.Y)+Epsilon
}

// SelfIntersects сообщает, пересекает ли контур сам себя. Стены нулевой
// длины (подряд идущие совпадающие узлы) пропускаются, соседние стены
// не сравниваются.
func SelfIntersects(points []models.Point2D) bool {
	ring := make([]models.Point2D, 0, len(points))
	for _, p := range points {
		if len(ring) > 0 && AlmostEqual(ring[len(ring)-1], p) {
			continue
		}
		ring = append(ring, p)
	}
	for len(ring) > 1 && AlmostEqual(ring[0], ring[len(ring)-1]) {
		ring = ring[:len(ring)-1]
	}

	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if SegmentsIntersect(a, b, ring[j], ring[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}
