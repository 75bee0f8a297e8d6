package mapper

import (
	"fmt"
	"math"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"
)

// ============================================================
// Extrusion
// ============================================================

const areaEpsilon = 1e-9

// ExtrudePolygon строит меши пола и стен по контуру в координатах редактора.
// Пол триангулируется на y = 0, каждое ребро становится стеной высотой wallHeight.
func (m *Mapper) ExtrudePolygon(points []models.Point2D, wallHeight float64) (models.RoomGeometry, error) {
	if len(points) < 3 {
		return models.RoomGeometry{}, fmt.Errorf("%w: room outline has %d nodes, need 3", models.ErrDegenerateGeometry, len(points))
	}
	if wallHeight <= 0 || math.IsNaN(wallHeight) {
		return models.RoomGeometry{}, fmt.Errorf("%w: wall height must be positive, got %v", models.ErrDegenerateGeometry, wallHeight)
	}

	indices, err := Triangulate(points)
	if err != nil {
		return models.RoomGeometry{}, err
	}

	return models.RoomGeometry{
		Floor: models.Mesh{
			Vertices: m.ToSceneAll(points),
			Indices:  indices,
		},
		Walls:      m.extrudeWalls(points, wallHeight),
		WallHeight: wallHeight,
	}, nil
}

func (m *Mapper) extrudeWalls(points []models.Point2D, wallHeight float64) models.Mesh {
	n := len(points)
	mesh := models.Mesh{
		Vertices: make([]models.Vector3, 0, n*4),
		Indices:  make([]int, 0, n*6),
	}

	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		if geometry.AlmostEqual(a, b) {
			continue
		}

		bottomA := m.ToScene(a)
		bottomB := m.ToScene(b)
		topA := bottomA
		topA.Y = wallHeight
		topB := bottomB
		topB.Y = wallHeight

		base := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, bottomA, bottomB, topB, topA)
		mesh.Indices = append(mesh.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}

	return mesh
}

// ============================================================
// Triangulation
// ============================================================

// Triangulate разбивает простой многоугольник на треугольники методом
// отсечения ушей. Возвращает индексы в points, обход сохраняется.
// Коллинеарные и повторяющиеся узлы пропускаются.
func Triangulate(points []models.Point2D) ([]int, error) {
	n := len(points)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d nodes", models.ErrDegenerateGeometry, n)
	}

	area := geometry.SignedArea(points)
	if math.Abs(area) < areaEpsilon {
		return nil, fmt.Errorf("%w: outline has no area", models.ErrDegenerateGeometry)
	}
	if geometry.SelfIntersects(points) {
		return nil, fmt.Errorf("%w: outline intersects itself", models.ErrDegenerateGeometry)
	}
	sign := 1.0
	if area < 0 {
		sign = -1
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	out := make([]int, 0, 3*(n-2))
	for len(idx) > 3 {
		clipped := false
		for i := 0; i < len(idx); i++ {
			prev := idx[(i-1+len(idx))%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]

			c := geometry.Cross(points[prev], points[cur], points[next]) * sign
			if math.Abs(c) <= areaEpsilon {
				idx = removeAt(idx, i)
				clipped = true
				break
			}
			if c < 0 {
				continue // reflex
			}
			if anyInside(points, idx, prev, cur, next, sign) {
				continue
			}

			out = append(out, prev, cur, next)
			idx = removeAt(idx, i)
			clipped = true
			break
		}
		if !clipped {
			return nil, fmt.Errorf("%w: outline intersects itself", models.ErrDegenerateGeometry)
		}
	}

	if len(idx) == 3 {
		c := geometry.Cross(points[idx[0]], points[idx[1]], points[idx[2]]) * sign
		if c > areaEpsilon {
			out = append(out, idx[0], idx[1], idx[2])
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: outline has no area", models.ErrDegenerateGeometry)
	}
	return out, nil
}

func anyInside(points []models.Point2D, idx []int, a, b, c int, sign float64) bool {
	pa, pb, pc := points[a], points[b], points[c]
	for _, j := range idx {
		if j == a || j == b || j == c {
			continue
		}
		q := points[j]
		if geometry.AlmostEqual(q, pa) || geometry.AlmostEqual(q, pb) || geometry.AlmostEqual(q, pc) {
			continue
		}
		if geometry.Cross(pa, pb, q)*sign >= -areaEpsilon &&
			geometry.Cross(pb, pc, q)*sign >= -areaEpsilon &&
			geometry.Cross(pc, pa, q)*sign >= -areaEpsilon {
			return true
		}
	}
	return false
}

func removeAt(idx []int, i int) []int {
	return append(idx[:i], idx[i+1:]...)
}
