package shape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"room-planner/internal/planner/models"
)

func pt(x, y float64) models.Point2D { return models.Point2D{X: x, Y: y} }

func rectangle() []models.Point2D {
	return []models.Point2D{pt(50, 50), pt(350, 50), pt(350, 250), pt(50, 250)}
}

func TestSetShapeCopiesInput(t *testing.T) {
	in := rectangle()
	s := NewStore(nil)
	s.SetShape(in)
	in[0] = pt(0, 0)

	require.Equal(t, pt(50, 50), s.Points()[0])

	out := s.Points()
	out[1] = pt(1, 1)
	require.Equal(t, pt(350, 50), s.Points()[1])
}

func TestSetShapeAllowsTransientInvalid(t *testing.T) {
	s := NewStore(rectangle())
	s.SetShape([]models.Point2D{pt(1, 1)})
	require.Equal(t, 1, s.Len())
	require.False(t, s.Valid())
}

func TestInsertAt(t *testing.T) {
	t.Run("inserts before index", func(t *testing.T) {
		s := NewStore(rectangle())
		require.NoError(t, s.InsertAt(2, pt(350, 150)))
		require.Equal(t, []models.Point2D{pt(50, 50), pt(350, 50), pt(350, 150), pt(350, 250), pt(50, 250)}, s.Points())
	})

	t.Run("clamps index", func(t *testing.T) {
		s := NewStore(rectangle())
		require.NoError(t, s.InsertAt(99, pt(20, 150)))
		require.Equal(t, pt(20, 150), s.Points()[4])

		require.NoError(t, s.InsertAt(-7, pt(200, 20)))
		require.Equal(t, pt(200, 20), s.Points()[0])
		require.Equal(t, 6, s.Len())
	})

	t.Run("into empty shape", func(t *testing.T) {
		s := NewStore(nil)
		require.NoError(t, s.InsertAt(0, pt(100, 100)))
		require.Equal(t, 1, s.Len())
	})

	t.Run("rejects point on a neighbour", func(t *testing.T) {
		s := NewStore(rectangle())
		err := s.InsertAt(1, pt(50.5, 50))
		require.True(t, errors.Is(err, models.ErrInvalidArgument))
		require.Equal(t, rectangle(), s.Points())

		// wrap-around neighbours of index 0 are the last and first nodes
		err = s.InsertAt(0, pt(50, 250))
		require.True(t, errors.Is(err, models.ErrInvalidArgument))
	})
}

func TestMoveNode(t *testing.T) {
	s := NewStore(rectangle())
	require.NoError(t, s.MoveNode(2, pt(400, 280)))
	require.Equal(t, pt(400, 280), s.Points()[2])
	require.Equal(t, 4, s.Len())

	for _, idx := range []int{-1, 4, 100} {
		err := s.MoveNode(idx, pt(0, 0))
		require.True(t, errors.Is(err, models.ErrIndexOutOfRange), "index %d", idx)
	}
}

func TestRemoveNode(t *testing.T) {
	s := NewStore(rectangle())
	require.NoError(t, s.RemoveNode(1))
	require.Equal(t, []models.Point2D{pt(50, 50), pt(350, 250), pt(50, 250)}, s.Points())

	err := s.RemoveNode(0)
	require.True(t, errors.Is(err, models.ErrInvariantViolation))
	require.Equal(t, 3, s.Len())

	err = s.RemoveNode(3)
	require.True(t, errors.Is(err, models.ErrIndexOutOfRange))
}

func TestRemoveNodeKeepsMinimum(t *testing.T) {
	s := NewStore([]models.Point2D{pt(0, 0), pt(100, 0), pt(100, 100), pt(50, 150), pt(0, 100), pt(-20, 50)})
	for s.Len() > MinPoints {
		require.NoError(t, s.RemoveNode(0))
		require.GreaterOrEqual(t, s.Len(), MinPoints)
	}
	before := s.Points()
	require.Error(t, s.RemoveNode(0))
	require.Equal(t, before, s.Points())
}

func TestLongestEdgeMidpoint(t *testing.T) {
	t.Run("triangle", func(t *testing.T) {
		s := NewStore([]models.Point2D{pt(0, 0), pt(10, 0), pt(0, 100)})
		edge, mid, err := s.LongestEdgeMidpoint()
		require.NoError(t, err)
		require.Equal(t, 1, edge)
		require.Equal(t, pt(5, 50), mid)
	})

	t.Run("ties go to the lowest edge", func(t *testing.T) {
		s := NewStore(rectangle())
		edge, mid, err := s.LongestEdgeMidpoint()
		require.NoError(t, err)
		require.Equal(t, 0, edge)
		require.Equal(t, pt(200, 50), mid)
	})

	t.Run("closing edge counts", func(t *testing.T) {
		s := NewStore([]models.Point2D{pt(0, 0), pt(10, 0), pt(10, 10), pt(-200, 10)})
		edge, _, err := s.LongestEdgeMidpoint()
		require.NoError(t, err)
		require.Equal(t, 2, edge)

		s.SetShape([]models.Point2D{pt(0, 0), pt(10, 0), pt(10, 300)})
		edge, mid, err := s.LongestEdgeMidpoint()
		require.NoError(t, err)
		require.Equal(t, 2, edge)
		require.Equal(t, pt(5, 150), mid)
	})

	t.Run("needs an edge", func(t *testing.T) {
		s := NewStore([]models.Point2D{pt(1, 1)})
		_, _, err := s.LongestEdgeMidpoint()
		require.True(t, errors.Is(err, models.ErrDegenerateGeometry))
	})
}

func TestEdgeQueries(t *testing.T) {
	s := NewStore(rectangle())

	mid, err := s.EdgeMidpoint(1)
	require.NoError(t, err)
	require.Equal(t, pt(350, 150), mid)

	_, err = s.EdgeMidpoint(4)
	require.True(t, errors.Is(err, models.ErrIndexOutOfRange))

	edge, err := s.NearestEdge(pt(340, 120))
	require.NoError(t, err)
	require.Equal(t, 1, edge)

	edge, err = s.NearestEdge(pt(45, 200))
	require.NoError(t, err)
	require.Equal(t, 3, edge)
}

func TestRectangleScenario(t *testing.T) {
	s := NewStore(rectangle())

	// insert on the right-hand edge, then remove the new node again
	mid, err := s.EdgeMidpoint(1)
	require.NoError(t, err)
	require.NoError(t, s.InsertAt(2, mid))
	require.Equal(t, 5, s.Len())
	require.Equal(t, pt(350, 150), s.Points()[2])
	require.NoError(t, s.RemoveNode(2))
	require.Equal(t, rectangle(), s.Points())

	// appended variant: the new node sits at index 4
	require.NoError(t, s.InsertAt(4, pt(350, 150)))
	require.Equal(t, 5, s.Len())
	require.NoError(t, s.RemoveNode(4))
	require.Equal(t, rectangle(), s.Points())

	// default add-node position
	edge, mid, err := s.LongestEdgeMidpoint()
	require.NoError(t, err)
	require.NoError(t, s.InsertAt(edge+1, mid))
	require.Equal(t, pt(200, 50), s.Points()[1])
	require.NoError(t, s.RemoveNode(edge+1))
	require.Equal(t, rectangle(), s.Points())
}

func TestObservers(t *testing.T) {
	s := NewStore(rectangle())

	var events []Event
	unsubscribe := s.Subscribe(func(e Event) { events = append(events, e) })

	require.NoError(t, s.MoveNode(0, pt(60, 60)))
	require.NoError(t, s.InsertAt(1, pt(200, 60)))
	require.NoError(t, s.RemoveNode(1))
	s.SetShape(rectangle())

	require.Len(t, events, 4)
	require.Equal(t, OpMove, events[0].Op)
	require.Equal(t, 0, events[0].Index)
	require.Equal(t, pt(60, 60), events[0].Points[0])
	require.Equal(t, OpInsert, events[1].Op)
	require.Len(t, events[1].Points, 5)
	require.Equal(t, OpRemove, events[2].Op)
	require.Equal(t, OpSet, events[3].Op)

	// failed mutations stay silent
	_ = s.MoveNode(10, pt(0, 0))
	require.Len(t, events, 4)

	unsubscribe()
	require.NoError(t, s.MoveNode(0, pt(70, 70)))
	require.Len(t, events, 4)
}
