package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"room-planner/internal/planner/models"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := New(db, zap.NewNop())
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func snapshot(id string) models.ProjectSnapshot {
	return models.ProjectSnapshot{
		ID:        id,
		Name:      "Flat " + id,
		RoomType:  "bedroom",
		RoomShape: []models.Point2D{{X: 50, Y: 50}, {X: 350, Y: 50}, {X: 350, Y: 250}},
		Furniture: []models.FurnitureInstance{{
			ID:       "f1",
			ModelRef: "bed-platform",
			Position: models.Vector3{Z: -2},
			Scale:    models.Vector3{X: 1, Y: 1, Z: 1},
			Color:    "#8B7355",
			Texture:  "wood",
		}},
		UpdatedAt: "2026-03-01T10:00:00Z",
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	changed, err := repo.Save(ctx, snapshot("a"), "fp1")
	require.NoError(t, err)
	require.True(t, changed)

	got, fp, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "fp1", fp)
	require.Equal(t, snapshot("a"), got)
}

func TestSaveSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Save(ctx, snapshot("a"), "fp1")
	require.NoError(t, err)

	changed, err := repo.Save(ctx, snapshot("a"), "fp1")
	require.NoError(t, err)
	require.False(t, changed)

	next := snapshot("a")
	next.RoomShape = append(next.RoomShape, models.Point2D{X: 50, Y: 250})
	changed, err = repo.Save(ctx, next, "fp2")
	require.NoError(t, err)
	require.True(t, changed)

	got, _, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got.RoomShape, 4)
}

func TestSaveEmptyCollections(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Save(ctx, models.ProjectSnapshot{ID: "empty", UpdatedAt: "2026-03-01T10:00:00Z"}, "fp")
	require.NoError(t, err)

	got, _, err := repo.Get(ctx, "empty")
	require.NoError(t, err)
	require.Empty(t, got.RoomShape)
	require.Empty(t, got.Furniture)

	_, err = repo.Save(ctx, models.ProjectSnapshot{}, "fp")
	require.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestGetMissing(t *testing.T) {
	_, _, err := newRepo(t).Get(context.Background(), "nope")
	require.True(t, errors.Is(err, models.ErrNotFound))
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	older := snapshot("old")
	older.UpdatedAt = "2026-01-01T00:00:00Z"
	_, err := repo.Save(ctx, older, "x")
	require.NoError(t, err)
	_, err = repo.Save(ctx, snapshot("new"), "y")
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "new", list[0].ID)
	require.Equal(t, "y", list[0].Fingerprint)
	require.Equal(t, "old", list[1].ID)

	require.NoError(t, repo.Delete(ctx, "old"))
	require.True(t, errors.Is(repo.Delete(ctx, "old"), models.ErrNotFound))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestInitIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, repo.Init(context.Background()))
}
