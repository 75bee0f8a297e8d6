package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"room-planner/internal/planner/furniture"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/project"
	"room-planner/internal/planner/repository"
	"room-planner/internal/planner/service"
	"room-planner/internal/planner/vastu"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repository.New(db, zap.NewNop())
	require.NoError(t, repo.Init(context.Background()))

	rules, err := vastu.Default()
	require.NoError(t, err)

	app := fiber.New()
	workspaces := service.NewWorkspaces(project.DefaultOptions(), repo, zap.NewNop())
	NewPlannerHandler(workspaces, rules, furniture.Builtin(), zap.NewNop()).Register(app)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func createProject(t *testing.T, app *fiber.App, params service.CreateParams) models.ProjectSnapshot {
	t.Helper()
	resp, data := do(t, app, http.MethodPost, "/projects", params)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[models.ProjectSnapshot](t, data)
}

var rectangle = []models.Point2D{{X: 50, Y: 50}, {X: 350, Y: 50}, {X: 350, Y: 250}, {X: 50, Y: 250}}

func TestCreateAndGetProject(t *testing.T) {
	app := newApp(t)

	resp, data := do(t, app, http.MethodPost, "/projects", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decode[models.ProjectSnapshot](t, data)
	require.Equal(t, project.DefaultShape(), snap.RoomShape)

	resp, data = do(t, app, http.MethodGet, "/projects/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[projectResponse](t, data)
	require.Equal(t, snap.ID, got.ID)
	require.Equal(t, "idle", got.State)
	require.Equal(t, 400.0, got.Canvas.CanvasWidth)
	require.Equal(t, `"`+got.Fingerprint+`"`, resp.Header.Get("ETag"))

	req := httptest.NewRequest(http.MethodGet, "/projects/"+snap.ID, nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	cached, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotModified, cached.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/projects/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShapeEndpoints(t *testing.T) {
	app := newApp(t)
	snap := createProject(t, app, service.CreateParams{Shape: rectangle})
	base := "/projects/" + snap.ID + "/shape"

	// longest edge midpoint by default
	resp, data := do(t, app, http.MethodPost, base+"/nodes", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shape := decode[shapeResponse](t, data)
	require.Equal(t, 1, *shape.Index)
	require.Equal(t, models.Point2D{X: 200, Y: 50}, shape.Points[1])
	require.InDelta(t, 600.0, shape.Stats.FloorArea, 1e-9)
	require.InDelta(t, 100.0, shape.Stats.WallLength, 1e-9)

	resp, _ = do(t, app, http.MethodDelete, base+"/nodes/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	idx := 2
	resp, data = do(t, app, http.MethodPost, base+"/nodes", insertRequest{Index: &idx, Point: &models.Point2D{X: 350, Y: 150}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, decode[shapeResponse](t, data).Points, 5)

	resp, _ = do(t, app, http.MethodPost, base+"/nodes", insertRequest{Index: &idx, Point: &models.Point2D{X: 350, Y: 150.5}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = do(t, app, http.MethodPut, base+"/nodes/0", models.Point2D{X: 40, Y: 40})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, models.Point2D{X: 40, Y: 40}, decode[shapeResponse](t, data).Points[0])

	resp, _ = do(t, app, http.MethodPut, base+"/nodes/9", models.Point2D{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, base+"/nodes/abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = do(t, app, http.MethodPut, base, shapeRequest{Path: "M 0 0 L 100 0 L 100 100 Z"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	shape = decode[shapeResponse](t, data)
	require.Len(t, shape.Points, 3)
	require.True(t, shape.Valid)

	resp, _ = do(t, app, http.MethodDelete, base+"/nodes/0", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, base, shapeRequest{Path: "M 0 0", Points: rectangle})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = do(t, app, http.MethodPut, base, shapeRequest{SVG: `<svg><rect id="room" x="50" y="50" width="300" height="200"/></svg>`})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, rectangle, decode[shapeResponse](t, data).Points)
}

func TestGestureFlow(t *testing.T) {
	app := newApp(t)
	snap := createProject(t, app, service.CreateParams{Shape: rectangle})
	path := "/projects/" + snap.ID + "/gestures"

	resp, data := do(t, app, http.MethodPost, path, gestureRequest{Type: "pointerDown", X: 53, Y: 54})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decode[gestureResponse](t, data)
	require.True(t, g.Applied)
	require.Equal(t, "dragging", g.State)

	_, data = do(t, app, http.MethodPost, path, gestureRequest{Type: "pointerMove", X: -50, Y: 500})
	g = decode[gestureResponse](t, data)
	require.Equal(t, models.Point2D{X: 6, Y: 294}, g.Points[0])

	_, data = do(t, app, http.MethodPost, path, gestureRequest{Type: "pointerUp"})
	require.Equal(t, "idle", decode[gestureResponse](t, data).State)

	_, data = do(t, app, http.MethodPost, path, gestureRequest{Type: "addNode"})
	g = decode[gestureResponse](t, data)
	require.Equal(t, 5, len(g.Points))
	require.NotNil(t, g.Index)

	_, data = do(t, app, http.MethodPost, path, gestureRequest{Type: "removeNode"})
	require.True(t, decode[gestureResponse](t, data).Applied)

	resp, _ = do(t, app, http.MethodPost, path, gestureRequest{Type: "wave"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	disabled := false
	resp, data = do(t, app, http.MethodPatch, "/projects/"+snap.ID+"/editor", editorRequest{EditingEnabled: &disabled})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.False(t, decode[models.EditorSession](t, data).EditingEnabled)

	_, data = do(t, app, http.MethodPost, path, gestureRequest{Type: "pointerDown", X: 350, Y: 50})
	require.False(t, decode[gestureResponse](t, data).Applied)
}

func TestFurnitureEndpoints(t *testing.T) {
	app := newApp(t)
	snap := createProject(t, app, service.CreateParams{})
	base := "/projects/" + snap.ID + "/furniture"

	resp, data := do(t, app, http.MethodPost, base, map[string]any{
		"id":       "sofa-1",
		"modelRef": "sofa-sectional",
		"position": models.Vector3{X: 1, Y: 2, Z: 3},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decode[models.FurnitureInstance](t, data)
	require.Equal(t, models.Vector3{X: 1, Y: 1, Z: 1}, placed.Scale)

	resp, _ = do(t, app, http.MethodPost, base, map[string]any{"id": "sofa-1", "modelRef": "sofa-sectional"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, base, map[string]any{"modelRef": "sofa-sectional", "color": "red"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, base, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = do(t, app, http.MethodPatch, base+"/sofa-1", map[string]any{"position": map[string]float64{"x": 9}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, models.Vector3{X: 9, Y: 2, Z: 3}, decode[models.FurnitureInstance](t, data).Position)

	resp, data = do(t, app, http.MethodPut, base+"/sofa-1/select", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "sofa-1", decode[models.EditorSession](t, data).SelectedFurnitureID)

	resp, _ = do(t, app, http.MethodDelete, base+"/sofa-1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, base+"/sofa-1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, data = do(t, app, http.MethodGet, "/projects/"+snap.ID, nil)
	require.Empty(t, decode[projectResponse](t, data).Session.SelectedFurnitureID)

	_, data = do(t, app, http.MethodGet, base, nil)
	require.Empty(t, decode[[]models.FurnitureInstance](t, data))
}

func TestSceneAndSVG(t *testing.T) {
	app := newApp(t)
	snap := createProject(t, app, service.CreateParams{Shape: rectangle})

	resp, data := do(t, app, http.MethodGet, "/projects/"+snap.ID+"/scene?wallHeight=2.5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scene := decode[project.Scene](t, data)
	require.Equal(t, 2, scene.Room.Floor.Triangles())
	require.Equal(t, 2.5, scene.Room.WallHeight)
	require.Empty(t, scene.Outside)

	resp, data = do(t, app, http.MethodPost, "/projects/"+snap.ID+"/furniture", map[string]any{
		"modelRef": "table-side",
		"position": models.Vector3{X: 30, Y: 0, Z: 0},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	far := decode[models.FurnitureInstance](t, data)
	_, data = do(t, app, http.MethodGet, "/projects/"+snap.ID+"/scene", nil)
	require.Equal(t, []string{far.ID}, decode[project.Scene](t, data).Outside)

	resp, _ = do(t, app, http.MethodGet, "/projects/"+snap.ID+"/scene?wallHeight=0", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, "/projects/"+snap.ID+"/scene?wallHeight=tall", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = do(t, app, http.MethodGet, "/projects/"+snap.ID+"/svg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	require.True(t, strings.Contains(string(data), `d="M 50 50 L 350 50 L 350 250 L 50 250 Z"`))
}

func TestSaveRestoreEndpoints(t *testing.T) {
	app := newApp(t)
	snap := createProject(t, app, service.CreateParams{Name: "Flat", Shape: rectangle})
	base := "/projects/" + snap.ID

	resp, data := do(t, app, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decode[service.SaveResult](t, data).Changed)

	_, data = do(t, app, http.MethodPost, base+"/save", nil)
	require.False(t, decode[service.SaveResult](t, data).Changed)

	do(t, app, http.MethodPut, base+"/shape/nodes/0", models.Point2D{X: 10, Y: 10})

	resp, data = do(t, app, http.MethodPost, base+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, rectangle, decode[models.ProjectSnapshot](t, data).RoomShape)

	_, data = do(t, app, http.MethodGet, "/projects", nil)
	list := decode[[]models.ProjectSummary](t, data)
	require.Len(t, list, 1)
	require.Equal(t, "Flat", list[0].Name)

	resp, _ = do(t, app, http.MethodPost, base+"/close", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// saved projects reopen on demand
	resp, _ = do(t, app, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteProjectRemovesSavedCopy(t *testing.T) {
	app := newApp(t)
	snap := createProject(t, app, service.CreateParams{Name: "Flat", Shape: rectangle})
	base := "/projects/" + snap.ID

	resp, _ := do(t, app, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_, data := do(t, app, http.MethodGet, "/projects", nil)
	require.Empty(t, decode[[]models.ProjectSummary](t, data))

	resp, _ = do(t, app, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	draft := createProject(t, app, service.CreateParams{})
	resp, _ = do(t, app, http.MethodDelete, "/projects/"+draft.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, "/projects/"+draft.ID+"/close", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	app := newApp(t)

	_, data := do(t, app, http.MethodGet, "/vastu?room=bedroom&direction=south", nil)
	v := decode[vastuResponse](t, data)
	ids := []string{}
	for _, r := range v.Rules {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []string{"bed-head-south", "bed-no-mirror-facing", "clutter-free"}, ids)
	require.InDelta(t, 90.0, *v.Score, 1e-9)
	require.Len(t, v.DirectionOrder, 8)

	_, data = do(t, app, http.MethodGet, "/vastu?furniture=bed&room=bedroom", nil)
	require.Equal(t, []string{"south", "west"}, decode[vastuResponse](t, data).Recommended)

	resp, data := do(t, app, http.MethodGet, "/catalog/materials", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), `"granite"`)
}

func TestFurnitureCatalogEndpoints(t *testing.T) {
	app := newApp(t)

	resp, data := do(t, app, http.MethodGet, "/catalog/furniture", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[struct {
		Categories []furniture.Category `json:"categories"`
		Models     []furniture.Model    `json:"models"`
	}](t, data)
	require.Len(t, all.Categories, 7)
	require.Len(t, all.Models, 35)

	_, data = do(t, app, http.MethodGet, "/catalog/furniture?category=beds", nil)
	beds := decode[struct {
		Models []furniture.Model `json:"models"`
	}](t, data)
	require.Len(t, beds.Models, 5)
	for _, m := range beds.Models {
		require.Equal(t, "beds", m.Category)
	}

	resp, data = do(t, app, http.MethodGet, "/catalog/furniture/sofa-modern", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[furniture.Model](t, data)
	require.Equal(t, "sofas", m.Category)
	require.NotEmpty(t, m.ModelURL)

	resp, _ = do(t, app, http.MethodGet, "/catalog/furniture/sofas-6", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	snap := createProject(t, app, service.CreateParams{})
	resp, _ = do(t, app, http.MethodPost, "/projects/"+snap.ID+"/furniture", map[string]any{"modelRef": "sofas-6"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, "/projects/"+snap.ID+"/furniture", map[string]any{"modelRef": "sofa-modern"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}
