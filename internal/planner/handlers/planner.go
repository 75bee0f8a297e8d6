package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"room-planner/internal/planner/editor"
	"room-planner/internal/planner/furniture"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/project"
	"room-planner/internal/planner/service"
	"room-planner/internal/planner/vastu"
)

// ============================================================
// Planner Handler
// ============================================================

type PlannerHandler struct {
	workspaces *service.Workspaces
	vastu      *vastu.Catalog
	catalog    *furniture.Catalog
	log        *zap.Logger
}

func NewPlannerHandler(workspaces *service.Workspaces, rules *vastu.Catalog, catalog *furniture.Catalog, log *zap.Logger) *PlannerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PlannerHandler{
		workspaces: workspaces,
		vastu:      rules,
		catalog:    catalog,
		log:        log,
	}
}

// Register вешает маршруты планировщика на router.
func (h *PlannerHandler) Register(r fiber.Router) {
	r.Post("/projects", h.CreateProject)
	r.Get("/projects", h.ListProjects)
	r.Get("/projects/:id", h.GetProject)
	r.Delete("/projects/:id", h.DeleteProject)
	r.Post("/projects/:id/close", h.CloseProject)
	r.Post("/projects/:id/save", h.SaveProject)
	r.Post("/projects/:id/restore", h.RestoreProject)

	r.Put("/projects/:id/shape", h.SetShape)
	r.Post("/projects/:id/shape/nodes", h.InsertNode)
	r.Put("/projects/:id/shape/nodes/:index", h.MoveNode)
	r.Delete("/projects/:id/shape/nodes/:index", h.RemoveNode)

	r.Post("/projects/:id/gestures", h.Gesture)
	r.Patch("/projects/:id/editor", h.UpdateEditor)

	r.Get("/projects/:id/furniture", h.ListFurniture)
	r.Post("/projects/:id/furniture", h.PlaceFurniture)
	r.Patch("/projects/:id/furniture/:fid", h.UpdateFurniture)
	r.Delete("/projects/:id/furniture/:fid", h.RemoveFurniture)
	r.Put("/projects/:id/furniture/:fid/select", h.SelectFurniture)
	r.Delete("/projects/:id/furniture/:fid/select", h.ClearFurnitureSelection)

	r.Get("/projects/:id/scene", h.GetScene)
	r.Get("/projects/:id/svg", h.GetSVG)

	r.Get("/catalog/materials", h.GetMaterials)
	r.Get("/catalog/furniture", h.ListModels)
	r.Get("/catalog/furniture/:model", h.GetModel)
	r.Get("/vastu", h.GetVastu)
}

// ============================================================
// Projects
// ============================================================

type projectResponse struct {
	models.ProjectSnapshot
	Session     models.EditorSession `json:"session"`
	State       string               `json:"state"`
	Canvas      editor.Config        `json:"canvas"`
	Stats       project.ShapeStats   `json:"stats"`
	Revision    uint64               `json:"revision"`
	Fingerprint string               `json:"fingerprint"`
}

func describe(ws *project.Workspace) (projectResponse, error) {
	snap := ws.Snapshot()
	fp, err := project.Fingerprint(snap)
	if err != nil {
		return projectResponse{}, err
	}
	return projectResponse{
		ProjectSnapshot: snap,
		Session:         ws.Editor.Session(),
		State:           ws.Editor.State().String(),
		Canvas:          ws.Editor.Config(),
		Stats:           ws.Measure(),
		Revision:        ws.Revision(),
		Fingerprint:     fp,
	}, nil
}

// CreateProject открывает новый проект; тело запроса необязательно.
func (h *PlannerHandler) CreateProject(c fiber.Ctx) error {
	var req service.CreateParams
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}

	snap, err := h.workspaces.Create(req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(snap)
}

func (h *PlannerHandler) ListProjects(c fiber.Ctx) error {
	list, err := h.workspaces.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(list)
}

// GetProject отдаёт снимок, состояние редактора и ETag по отпечатку.
func (h *PlannerHandler) GetProject(c fiber.Ctx) error {
	var resp projectResponse
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		var err error
		resp, err = describe(ws)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}

	etag := strconv.Quote(resp.Fingerprint)
	c.Set(fiber.HeaderETag, etag)
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(http.StatusNotModified)
	}
	return c.JSON(resp)
}

// DeleteProject удаляет проект из памяти и из хранилища.
func (h *PlannerHandler) DeleteProject(c fiber.Ctx) error {
	if err := h.workspaces.Delete(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// CloseProject выгружает проект из памяти; сохранённая копия остаётся.
func (h *PlannerHandler) CloseProject(c fiber.Ctx) error {
	if err := h.workspaces.Close(c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *PlannerHandler) SaveProject(c fiber.Ctx) error {
	res, err := h.workspaces.Save(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *PlannerHandler) RestoreProject(c fiber.Ctx) error {
	snap, err := h.workspaces.Restore(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(snap)
}

// ============================================================
// Editor
// ============================================================

type editorRequest struct {
	EditingEnabled *bool `json:"editingEnabled"`
	SnapToGrid     *bool `json:"snapToGrid"`
}

// UpdateEditor переключает режим редактирования и привязку к сетке.
func (h *PlannerHandler) UpdateEditor(c fiber.Ctx) error {
	var req editorRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	var session models.EditorSession
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		if req.EditingEnabled != nil {
			ws.Editor.SetEditing(*req.EditingEnabled)
		}
		if req.SnapToGrid != nil {
			ws.Editor.SetSnapToGrid(*req.SnapToGrid)
		}
		session = ws.Editor.Session()
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(session)
}

type gestureRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type gestureResponse struct {
	Applied bool                 `json:"applied"`
	Index   *int                 `json:"index,omitempty"`
	State   string               `json:"state"`
	Session models.EditorSession `json:"session"`
	Points  []models.Point2D     `json:"points"`
}

// Gesture прогоняет событие указателя через конечный автомат редактора.
func (h *PlannerHandler) Gesture(c fiber.Ctx) error {
	var req gestureRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	p := models.Point2D{X: req.X, Y: req.Y}

	var resp gestureResponse
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		var err error
		index := -1

		switch req.Type {
		case "pointerDown":
			resp.Applied = ws.Editor.PointerDown(p)
		case "pointerMove":
			resp.Applied, err = ws.Editor.PointerMove(p)
		case "pointerUp":
			ws.Editor.PointerUp()
			resp.Applied = true
		case "pointerLeave":
			ws.Editor.PointerLeave()
			resp.Applied = true
		case "doubleClick":
			index, err = ws.Editor.DoubleClick(p)
		case "addNode":
			index, err = ws.Editor.AddNode()
		case "removeNode":
			resp.Applied = ws.Editor.RemoveSelectedNode()
		default:
			return fmt.Errorf("%w: unknown gesture %q", models.ErrInvalidArgument, req.Type)
		}
		if err != nil {
			return err
		}
		if index >= 0 {
			resp.Applied = true
			resp.Index = &index
		}

		resp.State = ws.Editor.State().String()
		resp.Session = ws.Editor.Session()
		resp.Points = ws.Shape.Points()
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

// ============================================================
// Helpers
// ============================================================

// fail переводит ошибку ядра в HTTP статус.
func (h *PlannerHandler) fail(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIndexOutOfRange), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvariantViolation), errors.Is(err, models.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, models.ErrDegenerateGeometry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNoStore):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func paramIndex(c fiber.Ctx) (int, error) {
	idx, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: node index %q is not an integer", models.ErrInvalidArgument, c.Params("index"))
	}
	return idx, nil
}
