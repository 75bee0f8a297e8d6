package shape

import (
	"fmt"
	"math"
	"sort"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"
)

// ============================================================
// Room Shape Store
// ============================================================

// MinPoints - минимальный контур, который ещё можно отрисовать как комнату.
const MinPoints = 3

// DefaultTolerance - радиус, в котором вставка считается попаданием в соседний узел.
const DefaultTolerance = 1.0

type Op string

const (
	OpSet    Op = "set"
	OpInsert Op = "insert"
	OpMove   Op = "move"
	OpRemove Op = "remove"
)

// Event описывает применённое изменение; Points - копия контура после него.
type Event struct {
	Op     Op               `json:"op"`
	Index  int              `json:"index"`
	Points []models.Point2D `json:"points"`
}

type Observer func(Event)

// Store хранит упорядоченный контур комнаты. Не потокобезопасен.
type Store struct {
	points    []models.Point2D
	tolerance float64
	observers map[int]Observer
	nextObs   int
}

func NewStore(points []models.Point2D) *Store {
	return &Store{
		points:    clonePoints(points),
		tolerance: DefaultTolerance,
		observers: make(map[int]Observer),
	}
}

func (s *Store) SetTolerance(t float64) {
	if t < 0 {
		t = 0
	}
	s.tolerance = t
}

func (s *Store) Tolerance() float64 {
	return s.tolerance
}

// Points возвращает копию контура.
func (s *Store) Points() []models.Point2D {
	return clonePoints(s.points)
}

func (s *Store) Len() int {
	return len(s.points)
}

func (s *Store) At(index int) (models.Point2D, error) {
	if index < 0 || index >= len(s.points) {
		return models.Point2D{}, fmt.Errorf("%w: node %d of %d", models.ErrIndexOutOfRange, index, len(s.points))
	}
	return s.points[index], nil
}

func (s *Store) Valid() bool {
	return len(s.points) >= MinPoints
}

// ============================================================
// Mutations
// ============================================================

// SetShape заменяет контур целиком, без проверок.
func (s *Store) SetShape(points []models.Point2D) {
	s.points = clonePoints(points)
	s.notify(OpSet, -1)
}

// InsertAt вставляет p перед узлом index. Индекс прижимается к [0, Len].
func (s *Store) InsertAt(index int, p models.Point2D) error {
	n := len(s.points)
	if index < 0 {
		index = 0
	}
	if index > n {
		index = n
	}

	if n > 0 {
		prev := s.points[(index-1+n)%n]
		next := s.points[index%n]
		if geometry.Distance(p, prev) <= s.tolerance || geometry.Distance(p, next) <= s.tolerance {
			return fmt.Errorf("%w: point (%g, %g) coincides with a neighbour", models.ErrInvalidArgument, p.X, p.Y)
		}
	}

	s.points = append(s.points, models.Point2D{})
	copy(s.points[index+1:], s.points[index:])
	s.points[index] = p

	s.notify(OpInsert, index)
	return nil
}

func (s *Store) MoveNode(index int, p models.Point2D) error {
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("%w: node %d of %d", models.ErrIndexOutOfRange, index, len(s.points))
	}
	s.points[index] = p
	s.notify(OpMove, index)
	return nil
}

func (s *Store) RemoveNode(index int) error {
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("%w: node %d of %d", models.ErrIndexOutOfRange, index, len(s.points))
	}
	if len(s.points)-1 < MinPoints {
		return fmt.Errorf("%w: room needs at least %d nodes", models.ErrInvariantViolation, MinPoints)
	}
	s.points = append(s.points[:index], s.points[index+1:]...)
	s.notify(OpRemove, index)
	return nil
}

// ============================================================
// Edge queries
// ============================================================

// LongestEdgeMidpoint ищет самое длинное ребро замкнутого контура. Ребро i
// соединяет узлы i и i+1, последнее замыкается на узел 0. При равенстве
// побеждает меньший индекс.
func (s *Store) LongestEdgeMidpoint() (int, models.Point2D, error) {
	n := len(s.points)
	if n < 2 {
		return 0, models.Point2D{}, fmt.Errorf("%w: need at least 2 nodes for an edge", models.ErrDegenerateGeometry)
	}

	longest := 0
	longestLen := -1.0
	for i := 0; i < n; i++ {
		d := geometry.Distance(s.points[i], s.points[(i+1)%n])
		if d > longestLen {
			longestLen = d
			longest = i
		}
	}

	return longest, geometry.Midpoint(s.points[longest], s.points[(longest+1)%n]), nil
}

func (s *Store) EdgeMidpoint(edge int) (models.Point2D, error) {
	n := len(s.points)
	if n < 2 {
		return models.Point2D{}, fmt.Errorf("%w: need at least 2 nodes for an edge", models.ErrDegenerateGeometry)
	}
	if edge < 0 || edge >= n {
		return models.Point2D{}, fmt.Errorf("%w: edge %d of %d", models.ErrIndexOutOfRange, edge, n)
	}
	return geometry.Midpoint(s.points[edge], s.points[(edge+1)%n]), nil
}

// NearestEdge возвращает ребро, ближайшее к p (при равенстве - меньший индекс).
func (s *Store) NearestEdge(p models.Point2D) (int, error) {
	n := len(s.points)
	if n < 2 {
		return 0, fmt.Errorf("%w: need at least 2 nodes for an edge", models.ErrDegenerateGeometry)
	}

	nearest := 0
	minDist := math.MaxFloat64
	for i := 0; i < n; i++ {
		d, _ := geometry.SegmentDistance(p, s.points[i], s.points[(i+1)%n])
		if d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest, nil
}

// ============================================================
// Observers
// ============================================================

// Subscribe регистрирует наблюдателя, который вызывается синхронно после
// каждого изменения. Возвращает функцию отписки.
func (s *Store) Subscribe(o Observer) func() {
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	return func() { delete(s.observers, id) }
}

func (s *Store) notify(op Op, index int) {
	if len(s.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		o, ok := s.observers[id]
		if !ok {
			continue
		}
		o(Event{Op: op, Index: index, Points: clonePoints(s.points)})
	}
}

// ============================================================
// Helpers
// ============================================================

func clonePoints(points []models.Point2D) []models.Point2D {
	if points == nil {
		return []models.Point2D{}
	}
	out := make([]models.Point2D, len(points))
	copy(out, points)
	return out
}
